package patch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	b := NewBox(2, IntVector{0, 0}, IntVector{9, 4})
	assert.Equal(t, 10, b.NumberCells(0))
	assert.Equal(t, 5, b.NumberCells(1))
	assert.Equal(t, 1, b.NumberCells(2))
	assert.Equal(t, 50, b.Size())

	gb := b.Grow(NewIntVector(2, 3))
	assert.Equal(t, IntVector{-3, -3, 0}, gb.Lo)
	assert.Equal(t, IntVector{12, 7, 0}, gb.Hi)
	assert.True(t, gb.Contains(b))
	assert.False(t, b.Contains(gb))
	assert.Equal(t, NewIntVector(2, 3), b.Extents(gb))

	ib := gb.Intersect(NewBox(2, IntVector{5, -10}, IntVector{20, 2}))
	assert.True(t, ib.Equal(NewBox(2, IntVector{5, -3}, IntVector{12, 2})))

	empty := NewBox(1, IntVector{3}, IntVector{2})
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 0, empty.Size())
}

func TestCellDataIndexing(t *testing.T) {
	b := NewBox(3, IntVector{0, 0, 0}, IntVector{3, 2, 1})
	cd := NewCellData(b, 2, NewIntVector(3, 1))
	gb := cd.GhostBox()
	assert.Equal(t, 6*5*4, len(cd.Data[0]))
	// fastest varying first
	var count int
	ForEachCell(gb, func(i, j, k int) {
		assert.Equal(t, count, cd.Index(i, j, k))
		count++
	})
	assert.Equal(t, 1, cd.Stride(0))
	assert.Equal(t, 6, cd.Stride(1))
	assert.Equal(t, 30, cd.Stride(2))
	cd.Set(1, 2, 1, 0, 4.5)
	assert.Equal(t, 4.5, cd.At(1, 2, 1, 0))
}

func TestSideDataDivergence(t *testing.T) {
	var (
		b    = NewBox(2, IntVector{0, 0}, IntVector{3, 3})
		geom = Geometry{Dx: [3]float64{0.5, 0.25}}
		sd   = NewSideData(b, 1)
		out  = NewCellData(b, 1, IntVector{})
	)
	// F_x = x-face index, F_y = 0 gives divergence 1/dx everywhere
	for d := 0; d < 2; d++ {
		ForEachCell(sd.SideBox(d), func(i, j, k int) {
			if d == 0 {
				sd.Data[d][0][sd.Index(d, i, j, k)] = float64(i)
			}
		})
	}
	sd.Divergence(geom, out, b)
	ForEachCell(b, func(i, j, k int) {
		assert.InDelta(t, 2., out.At(0, i, j, k), 1.e-14)
	})
	sd2 := NewSideData(b, 1)
	sd2.Fill(1)
	sd2.Add(sd2)
	assert.Equal(t, 2., sd2.Data[1][0][0])
}

func TestPatchData(t *testing.T) {
	b := NewBox(2, IntVector{4, 0}, IntVector{7, 3})
	p := NewPatch(3, b, Geometry{Dx: [3]float64{0.1, 0.1}, XLo: [3]float64{0.4, 0}})
	_, err := p.CellData("density", CURRENT)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPatchData))

	cd := NewCellData(b, 1, NewIntVector(2, 2))
	p.SetCellData("density", CURRENT, cd)
	got, err := p.CellData("density", CURRENT)
	require.NoError(t, err)
	assert.Same(t, cd, got)
	_, err = p.CellData("density", SCRATCH)
	assert.Error(t, err)

	x := p.CellCenter(4, 0, 0)
	assert.InDelta(t, 0.45, x[0], 1.e-14)
	assert.InDelta(t, 0.05, x[1], 1.e-14)
}

func TestValidDataBox(t *testing.T) {
	b := NewBox(2, IntVector{0, 0}, IntVector{7, 7})
	p := NewPatch(0, b, Geometry{Dx: [3]float64{1, 1}})
	ghost := NewIntVector(2, 3)
	assert.True(t, p.ValidDataBox(ghost).Equal(b.Grow(ghost)))
	p.SetValidDataBox(NewBox(2, IntVector{-1, -10}, IntVector{20, 20}))
	vb := p.ValidDataBox(ghost)
	assert.Equal(t, IntVector{-1, -3, 0}, vb.Lo)
	assert.Equal(t, IntVector{10, 10, 0}, vb.Hi)
}
