package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	sizes := func(K, Np int) (histo map[int]int) {
		pm := NewPartitionMap(Np, K)
		histo = make(map[int]int)
		next := 0
		for np := 0; np < pm.ParallelDegree; np++ {
			kMin, kMax := pm.GetBucketRange(np)
			assert.Equal(t, next, kMin)
			next = kMax
			histo[kMax-kMin]++
		}
		assert.Equal(t, K, next)
		return
	}
	assert.Equal(t, map[int]int{0: 30, 1: 2}, sizes(2, 32))
	assert.Equal(t, map[int]int{1: 32}, sizes(32, 32))
	assert.Equal(t, map[int]int{8: 32}, sizes(256, 32))
	assert.Equal(t, map[int]int{8: 1, 9: 31}, sizes(287, 32))
	for n := 1; n < 2000; n++ {
		for _, np := range []int{1, 3, 7, 32} {
			histo := sizes(n, np)
			assert.LessOrEqual(t, len(histo), 2)
			lo, hi := math.MaxInt, 0
			for size := range histo {
				lo, hi = min(lo, size), max(hi, size)
			}
			assert.LessOrEqual(t, hi-lo, 1)
		}
	}
	kMin, kMax := NewPartitionMap(3, 10).GetBucketRange(2)
	assert.Equal(t, [2]int{7, 10}, [2]int{kMin, kMax})
}

func TestPOW(t *testing.T) {
	for p := -12; p <= 12; p++ {
		assert.InDelta(t, math.Pow(1.3, float64(p)), POW(1.3, p), 1.e-12*math.Pow(1.3, math.Abs(float64(p))))
	}
	assert.Equal(t, 1., POW(0., 0))
	assert.InDelta(t, 1.e-12, POW(1.e-6, 2), 1.e-27)
	assert.True(t, math.IsInf(POW(0., -2), 1))
}
