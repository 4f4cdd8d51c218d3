package patch

import (
	"fmt"
)

// IntVector holds a per-direction integer, only the first Dim entries of an
// owning Box are meaningful
type IntVector [3]int

func NewIntVector(dim, val int) (iv IntVector) {
	for d := 0; d < dim; d++ {
		iv[d] = val
	}
	return
}

func (iv IntVector) Max(other IntVector) (m IntVector) {
	for d := 0; d < 3; d++ {
		m[d] = iv[d]
		if other[d] > m[d] {
			m[d] = other[d]
		}
	}
	return
}

// GreaterOrEqual compares the first dim entries
func (iv IntVector) GreaterOrEqual(other IntVector, dim int) bool {
	for d := 0; d < dim; d++ {
		if iv[d] < other[d] {
			return false
		}
	}
	return true
}

// Min returns the smallest of the first dim entries
func (iv IntVector) Min(dim int) (m int) {
	m = iv[0]
	for d := 1; d < dim; d++ {
		if iv[d] < m {
			m = iv[d]
		}
	}
	return
}

// Box is an inclusive index space region [Lo, Hi]
type Box struct {
	Dim    int
	Lo, Hi IntVector
}

func NewBox(dim int, lo, hi IntVector) (b Box) {
	if dim < 1 || dim > 3 {
		panic(fmt.Errorf("box dimension %d is not in [1,3]", dim))
	}
	b = Box{Dim: dim, Lo: lo, Hi: hi}
	for d := dim; d < 3; d++ {
		b.Lo[d], b.Hi[d] = 0, 0
	}
	return
}

func (b Box) NumberCells(d int) int {
	if d >= b.Dim {
		return 1
	}
	return b.Hi[d] - b.Lo[d] + 1
}

func (b Box) Size() int {
	if b.IsEmpty() {
		return 0
	}
	return b.NumberCells(0) * b.NumberCells(1) * b.NumberCells(2)
}

func (b Box) IsEmpty() bool {
	for d := 0; d < b.Dim; d++ {
		if b.Hi[d] < b.Lo[d] {
			return true
		}
	}
	return false
}

func (b Box) Grow(g IntVector) (gb Box) {
	gb = b
	for d := 0; d < b.Dim; d++ {
		gb.Lo[d] -= g[d]
		gb.Hi[d] += g[d]
	}
	return
}

// Contains is true when every cell of other lies within b
func (b Box) Contains(other Box) bool {
	if other.IsEmpty() {
		return true
	}
	for d := 0; d < b.Dim; d++ {
		if other.Lo[d] < b.Lo[d] || other.Hi[d] > b.Hi[d] {
			return false
		}
	}
	return true
}

func (b Box) ContainsCell(i, j, k int) bool {
	var (
		c = [3]int{i, j, k}
	)
	for d := 0; d < b.Dim; d++ {
		if c[d] < b.Lo[d] || c[d] > b.Hi[d] {
			return false
		}
	}
	return true
}

func (b Box) Intersect(other Box) (ib Box) {
	ib = b
	for d := 0; d < b.Dim; d++ {
		if other.Lo[d] > ib.Lo[d] {
			ib.Lo[d] = other.Lo[d]
		}
		if other.Hi[d] < ib.Hi[d] {
			ib.Hi[d] = other.Hi[d]
		}
	}
	return
}

func (b Box) Equal(other Box) bool {
	return b.Dim == other.Dim && b.Lo == other.Lo && b.Hi == other.Hi
}

// Shift moves the box by n cells along direction d
func (b Box) Shift(d, n int) (sb Box) {
	sb = b
	sb.Lo[d] += n
	sb.Hi[d] += n
	return
}

// Extents returns how far other reaches beyond b in each direction, zero
// where other lies inside
func (b Box) Extents(other Box) (ext IntVector) {
	for d := 0; d < b.Dim; d++ {
		if lo := b.Lo[d] - other.Lo[d]; lo > ext[d] {
			ext[d] = lo
		}
		if hi := other.Hi[d] - b.Hi[d]; hi > ext[d] {
			ext[d] = hi
		}
	}
	return
}

func (b Box) String() string {
	return fmt.Sprintf("[%v,%v]", b.Lo[:b.Dim], b.Hi[:b.Dim])
}
