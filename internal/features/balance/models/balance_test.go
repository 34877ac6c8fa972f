package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheRecord_FreshAt(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := CacheRecord{Timestamp: ts}
	ttl := 30 * time.Second

	assert.True(t, rec.FreshAt(ts, ttl))
	assert.True(t, rec.FreshAt(ts.Add(29*time.Second), ttl))
	assert.False(t, rec.FreshAt(ts.Add(30*time.Second), ttl))
	assert.False(t, rec.FreshAt(ts.Add(31*time.Second), ttl))
	assert.False(t, rec.FreshAt(ts.Add(-time.Second), ttl), "future timestamp")
	assert.False(t, rec.FreshAt(ts.Add(-time.Hour), ttl), "clock skew")
}
