package patch

import (
	"fmt"
)

// CellData holds Depth dense arrays over the interior box grown by Ghost.
// Cells are addressed fastest-varying-first relative to the ghost box corner.
type CellData struct {
	Box      Box
	Ghost    IntVector
	Depth    int
	Data     [][]float64
	ghostBox Box
	nx, nxy  int
}

func NewCellData(box Box, depth int, ghost IntVector) (cd *CellData) {
	var (
		gb = box.Grow(ghost)
	)
	cd = &CellData{
		Box:      box,
		Ghost:    ghost,
		Depth:    depth,
		Data:     make([][]float64, depth),
		ghostBox: gb,
		nx:       gb.NumberCells(0),
		nxy:      gb.NumberCells(0) * gb.NumberCells(1),
	}
	for n := 0; n < depth; n++ {
		cd.Data[n] = make([]float64, gb.Size())
	}
	return
}

func (cd *CellData) GhostBox() Box { return cd.ghostBox }

func (cd *CellData) Index(i, j, k int) int {
	var (
		lo = cd.ghostBox.Lo
	)
	return (i - lo[0]) + (j-lo[1])*cd.nx + (k-lo[2])*cd.nxy
}

// Stride is the linear index increment for a unit step along direction d
func (cd *CellData) Stride(d int) int {
	switch d {
	case 0:
		return 1
	case 1:
		return cd.nx
	default:
		return cd.nxy
	}
}

func (cd *CellData) Component(n int) []float64 {
	if n < 0 || n >= cd.Depth {
		panic(fmt.Errorf("component %d out of range for depth %d", n, cd.Depth))
	}
	return cd.Data[n]
}

func (cd *CellData) At(n, i, j, k int) float64 {
	return cd.Data[n][cd.Index(i, j, k)]
}

func (cd *CellData) Set(n, i, j, k int, val float64) {
	cd.Data[n][cd.Index(i, j, k)] = val
}

func (cd *CellData) Fill(val float64) {
	for n := 0; n < cd.Depth; n++ {
		for i := range cd.Data[n] {
			cd.Data[n][i] = val
		}
	}
}

// CopyFrom copies all overlapping cells of src into cd
func (cd *CellData) CopyFrom(src *CellData) {
	var (
		ob = cd.ghostBox.Intersect(src.ghostBox)
		nd = min(cd.Depth, src.Depth)
	)
	ForEachCell(ob, func(i, j, k int) {
		dst, s := cd.Index(i, j, k), src.Index(i, j, k)
		for n := 0; n < nd; n++ {
			cd.Data[n][dst] = src.Data[n][s]
		}
	})
}

// SideData holds face centered arrays. Direction d is stored over Box
// extended by one face in d, face i lies between cells i-1 and i.
type SideData struct {
	Box   Box
	Depth int
	Data  [3][][]float64
	boxes [3]Box
}

func NewSideData(box Box, depth int) (sd *SideData) {
	sd = &SideData{
		Box:   box,
		Depth: depth,
	}
	for d := 0; d < box.Dim; d++ {
		sd.boxes[d] = box
		sd.boxes[d].Hi[d]++
		sd.Data[d] = make([][]float64, depth)
		for n := 0; n < depth; n++ {
			sd.Data[d][n] = make([]float64, sd.boxes[d].Size())
		}
	}
	return
}

func (sd *SideData) SideBox(d int) Box { return sd.boxes[d] }

func (sd *SideData) Index(d, i, j, k int) int {
	var (
		b   = sd.boxes[d]
		nx  = b.NumberCells(0)
		nxy = nx * b.NumberCells(1)
	)
	return (i - b.Lo[0]) + (j-b.Lo[1])*nx + (k-b.Lo[2])*nxy
}

func (sd *SideData) Fill(val float64) {
	for d := 0; d < sd.Box.Dim; d++ {
		for n := 0; n < sd.Depth; n++ {
			for i := range sd.Data[d][n] {
				sd.Data[d][n][i] = val
			}
		}
	}
}

// Add accumulates other into sd, both must share the same box and depth
func (sd *SideData) Add(other *SideData) {
	if !sd.Box.Equal(other.Box) || sd.Depth != other.Depth {
		panic(fmt.Errorf("side data mismatch: %s/%d vs %s/%d",
			sd.Box, sd.Depth, other.Box, other.Depth))
	}
	for d := 0; d < sd.Box.Dim; d++ {
		for n := 0; n < sd.Depth; n++ {
			a, b := sd.Data[d][n], other.Data[d][n]
			for i := range a {
				a[i] += b[i]
			}
		}
	}
}

// Divergence writes sum_d (F(i+1/2) - F(i-1/2))/dx_d into out over box
func (sd *SideData) Divergence(geom Geometry, out *CellData, box Box) {
	if !sd.Box.Contains(box) || !out.GhostBox().Contains(box) {
		panic(fmt.Errorf("divergence box %s not covered by flux %s or output %s",
			box, sd.Box, out.GhostBox()))
	}
	ForEachCell(box, func(i, j, k int) {
		var (
			ind = out.Index(i, j, k)
			c   = [3]int{i, j, k}
		)
		for n := 0; n < sd.Depth; n++ {
			out.Data[n][ind] = 0
		}
		for d := 0; d < box.Dim; d++ {
			var (
				up  = c
				idx = geom.Dx[d]
			)
			up[d]++
			lo, hi := sd.Index(d, i, j, k), sd.Index(d, up[0], up[1], up[2])
			for n := 0; n < sd.Depth; n++ {
				out.Data[n][ind] += (sd.Data[d][n][hi] - sd.Data[d][n][lo]) / idx
			}
		}
	})
}

// ForEachCell visits the cells of b with i fastest
func ForEachCell(b Box, f func(i, j, k int)) {
	if b.IsEmpty() {
		return
	}
	for k := b.Lo[2]; k <= b.Hi[2]; k++ {
		for j := b.Lo[1]; j <= b.Hi[1]; j++ {
			for i := b.Lo[0]; i <= b.Hi[0]; i++ {
				f(i, j, k)
			}
		}
	}
}
