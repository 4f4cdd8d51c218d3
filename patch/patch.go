// Package patch is the slice of the mesh hierarchy the flow kernel borrows:
// an index box with its geometry and named cell data per data context.
package patch

import (
	"errors"
	"fmt"
)

var ErrMissingPatchData = errors.New("patch data not found")

type DataContext string

const (
	CURRENT DataContext = "CURRENT"
	NEW     DataContext = "NEW"
	SCRATCH DataContext = "SCRATCH"
)

type Geometry struct {
	Dx  [3]float64 // cell spacing
	XLo [3]float64 // coordinate of the lower corner of the patch box
}

func (g Geometry) CellVolume(dim int) (vol float64) {
	vol = 1
	for d := 0; d < dim; d++ {
		vol *= g.Dx[d]
	}
	return
}

type dataKey struct {
	name    string
	context DataContext
}

type Patch struct {
	Number   int
	Box      Box
	Geometry Geometry
	data     map[dataKey]*CellData
	validBox *Box
}

func NewPatch(number int, box Box, geom Geometry) *Patch {
	return &Patch{
		Number:   number,
		Box:      box,
		Geometry: geom,
		data:     make(map[dataKey]*CellData),
	}
}

func (p *Patch) Dim() int { return p.Box.Dim }

func (p *Patch) SetCellData(name string, ctx DataContext, cd *CellData) {
	if !cd.Box.Equal(p.Box) {
		panic(fmt.Errorf("cell data box %s does not match patch box %s", cd.Box, p.Box))
	}
	p.data[dataKey{name, ctx}] = cd
}

func (p *Patch) CellData(name string, ctx DataContext) (cd *CellData, err error) {
	var ok bool
	if cd, ok = p.data[dataKey{name, ctx}]; !ok {
		err = fmt.Errorf("%w: variable %q in context %s of patch %d",
			ErrMissingPatchData, name, ctx, p.Number)
	}
	return
}

// CellCenter returns the coordinate of the center of cell (i,j,k)
func (p *Patch) CellCenter(i, j, k int) (x [3]float64) {
	var (
		c = [3]int{i, j, k}
	)
	for d := 0; d < p.Box.Dim; d++ {
		x[d] = p.Geometry.XLo[d] + (float64(c[d]-p.Box.Lo[d])+0.5)*p.Geometry.Dx[d]
	}
	return
}

// SetValidDataBox limits the cells whose data may be read, for ghost cells
// beyond a physical boundary that are not filled
func (p *Patch) SetValidDataBox(b Box) { p.validBox = &b }

// ValidDataBox is the box grown by ghost, clipped to the valid data box
func (p *Patch) ValidDataBox(ghost IntVector) (b Box) {
	b = p.Box.Grow(ghost)
	if p.validBox != nil {
		b = b.Intersect(*p.validBox)
	}
	return
}
