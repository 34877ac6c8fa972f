package random

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffle_KeepsElements(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	s := slices.Clone(in)
	require.NoError(t, Shuffle(s))

	slices.Sort(s)
	assert.Equal(t, in, s)
}

func TestQuickPick(t *testing.T) {
	for i := 0; i < 100; i++ {
		nums, err := QuickPick(5, 36)
		require.NoError(t, err)
		require.Len(t, nums, 5)
		assert.True(t, slices.IsSorted(nums))
		for j, n := range nums {
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, 36)
			if j > 0 {
				assert.NotEqual(t, nums[j-1], n)
			}
		}
	}
}

func TestQuickPick_WholePool(t *testing.T) {
	nums, err := QuickPick(5, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, nums)
}

func TestQuickPick_Invalid(t *testing.T) {
	_, err := QuickPick(6, 5)
	assert.Error(t, err)
	_, err = QuickPick(0, 5)
	assert.Error(t, err)
}
