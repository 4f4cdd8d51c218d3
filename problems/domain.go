package problems

import (
	"fmt"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/utils"
)

// Domain is the index box and physical extent of the computational domain
type Domain struct {
	Box      patch.Box
	XLo, XHi [3]float64
	Dx       [3]float64
	NPatches int
}

func NewDomain(ip *InputParameters.InputParametersFlow) (dm *Domain, err error) {
	var (
		dim = ip.Dimension
		dp  = ip.Domain
		lo  patch.IntVector
		hi  patch.IntVector
	)
	if len(dp.Lo) != dim || len(dp.Hi) != dim || len(dp.XLo) != dim || len(dp.XHi) != dim {
		return nil, fmt.Errorf("%w: Domain.Lo, Hi, XLo and XHi need %d entries each", ErrProblemSetup, dim)
	}
	dm = &Domain{NPatches: max(dp.NumberOfPatches, 1)}
	for d := 0; d < dim; d++ {
		lo[d], hi[d] = dp.Lo[d], dp.Hi[d]
		dm.XLo[d], dm.XHi[d] = dp.XLo[d], dp.XHi[d]
		if hi[d] < lo[d] || dm.XHi[d] <= dm.XLo[d] {
			return nil, fmt.Errorf("%w: direction %d has cells [%d,%d] over [%g,%g]", ErrProblemSetup,
				d, lo[d], hi[d], dm.XLo[d], dm.XHi[d])
		}
	}
	dm.Box = patch.NewBox(dim, lo, hi)
	for d := 0; d < dim; d++ {
		dm.Dx[d] = (dm.XHi[d] - dm.XLo[d]) / float64(dm.Box.NumberCells(d))
	}
	if dm.NPatches > dm.Box.NumberCells(0) {
		return nil, fmt.Errorf("%w: %d patches over %d cells in x", ErrProblemSetup,
			dm.NPatches, dm.Box.NumberCells(0))
	}
	return
}

// Decompose splits the domain box into slabs along x
func (dm *Domain) Decompose() (patches []*patch.Patch) {
	var (
		pm = utils.NewPartitionMap(dm.NPatches, dm.Box.NumberCells(0))
	)
	for n := 0; n < dm.NPatches; n++ {
		var (
			kMin, kMax = pm.GetBucketRange(n)
			box        = dm.Box
			geom       = patch.Geometry{Dx: dm.Dx, XLo: dm.XLo}
		)
		box.Lo[0] = dm.Box.Lo[0] + kMin
		box.Hi[0] = dm.Box.Lo[0] + kMax - 1
		geom.XLo[0] = dm.XLo[0] + float64(kMin)*dm.Dx[0]
		patches = append(patches, patch.NewPatch(n, box, geom))
	}
	return
}

// Initialize stores the conservative state of ic over the ghost box of p,
// ghost cells included
func Initialize(fm *flowmodel.FlowModel, p *patch.Patch, ctx patch.DataContext, ghost int,
	ic Initializer) (err error) {
	var (
		names  = fm.ConservativeVariableNames()
		depths = fm.ConservativeVariableDepths()
		cds    = make([]*patch.CellData, len(names))
		neq    = fm.NumberOfEquations()
		prim   = make([]float64, neq)
		cons   = make([]float64, neq)
		bu     = fm.BasicUtilities()
	)
	for n := range names {
		cds[n] = patch.NewCellData(p.Box, depths[n], patch.NewIntVector(p.Dim(), ghost))
	}
	patch.ForEachCell(cds[0].GhostBox(), func(i, j, k int) {
		if err != nil {
			return
		}
		ic.Primitive(prim, p.CellCenter(i, j, k))
		if !bu.CheckPhysicalBounds(prim) {
			err = fmt.Errorf("%w: %s gives unphysical state %v at cell (%d,%d,%d)",
				ErrProblemSetup, ic.Type(), prim, i, j, k)
			return
		}
		bu.ConvertPrimitiveToConservative(cons, prim)
		var n0 int
		for n, cd := range cds {
			ind := cd.Index(i, j, k)
			for c := 0; c < depths[n]; c++ {
				cd.Data[c][ind] = cons[n0+c]
			}
			n0 += depths[n]
		}
	})
	if err != nil {
		return
	}
	for n, name := range names {
		p.SetCellData(name, ctx, cds[n])
	}
	return
}

// BuildPatches decomposes the domain and initializes every patch with ghost
// cells filled from the initial condition
func BuildPatches(ip *InputParameters.InputParametersFlow, fm *flowmodel.FlowModel, ctx patch.DataContext,
	ghost int) (dm *Domain, patches []*patch.Patch, err error) {
	var (
		ic Initializer
	)
	if dm, err = NewDomain(ip); err != nil {
		return
	}
	if ic, err = NewInitializer(ip, fm); err != nil {
		return
	}
	patches = dm.Decompose()
	for _, p := range patches {
		if err = Initialize(fm, p, ctx, ghost, ic); err != nil {
			return nil, nil, err
		}
	}
	return
}

// ExchangeGhostCells copies interior data of each patch into the ghost cells
// of the patches overlapping it. Ghost cells outside every patch keep their
// values.
func ExchangeGhostCells(names []string, patches []*patch.Patch, ctx patch.DataContext) (err error) {
	for _, name := range names {
		for _, dst := range patches {
			var to *patch.CellData
			if to, err = dst.CellData(name, ctx); err != nil {
				return
			}
			for _, src := range patches {
				if src == dst {
					continue
				}
				var from *patch.CellData
				if from, err = src.CellData(name, ctx); err != nil {
					return
				}
				overlap := to.GhostBox().Intersect(src.Box)
				if overlap.IsEmpty() {
					continue
				}
				patch.ForEachCell(overlap, func(i, j, k int) {
					var (
						indTo   = to.Index(i, j, k)
						indFrom = from.Index(i, j, k)
					)
					for c := 0; c < to.Depth; c++ {
						to.Data[c][indTo] = from.Data[c][indFrom]
					}
				})
			}
		}
	}
	return
}
