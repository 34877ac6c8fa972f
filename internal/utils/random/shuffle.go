package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
)

// Shuffle performs a cryptographically secure shuffle of the slice.
func Shuffle[T any](slice []T) error {
	n := len(slice)
	for i := n - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate random number: %w", err)
		}
		j := int(jBig.Int64())
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// QuickPick draws count distinct numbers from 1..max, sorted ascending.
func QuickPick(count, max int) ([]int, error) {
	if count <= 0 || count > max {
		return nil, fmt.Errorf("cannot pick %d distinct numbers from 1..%d", count, max)
	}
	pool := make([]int, max)
	for i := range pool {
		pool[i] = i + 1
	}
	if err := Shuffle(pool); err != nil {
		return nil, err
	}
	picked := pool[:count]
	slices.Sort(picked)
	return picked, nil
}
