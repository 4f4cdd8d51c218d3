package utils

// PartitionMap splits the index range [0, MaxIndex) into ParallelDegree
// contiguous buckets whose sizes differ by at most one
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	var (
		size      = maxIndex / ParallelDegree
		remainder = maxIndex % ParallelDegree
		start     int
	)
	// the first remainder buckets take one extra index
	for n := range pm.Partitions {
		end := start + size
		if n < remainder {
			end++
		}
		pm.Partitions[n] = [2]int{start, end}
		start = end
	}
	return
}

// GetBucketRange is the half open index range [kMin, kMax) of a bucket
func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}
