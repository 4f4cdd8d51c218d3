package flowmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/amrflow/patch"
)

// BasicUtilities converts between conservative and primitive variables and
// builds the characteristic decomposition of the primitive system
type BasicUtilities struct {
	fm   *FlowModel
	ps   pointState
	cons []float64
	prim []float64
}

func (fm *FlowModel) SetupBasicUtilities() {
	neq := fm.NumberOfEquations()
	fm.basic = &BasicUtilities{
		fm:   fm,
		cons: make([]float64, neq),
		prim: make([]float64, neq),
	}
}

func (fm *FlowModel) BasicUtilities() *BasicUtilities { return fm.basic }

func (fm *FlowModel) primitiveToConservative(cons, prim []float64, ps *pointState) {
	var (
		iMom = fm.MomentumIndex()
	)
	copy(cons, prim)
	for d := 0; d < fm.Dim; d++ {
		cons[iMom+d] = ps.rho * prim[iMom+d]
	}
	cons[fm.EnergyIndex()] = ps.E
}

func (bu *BasicUtilities) ConvertPrimitiveToConservative(cons, prim []float64) {
	bu.fm.thermo(&bu.ps, prim)
	bu.fm.primitiveToConservative(cons, prim, &bu.ps)
}

func (bu *BasicUtilities) ConvertConservativeToPrimitive(prim, cons []float64) {
	var (
		fm   = bu.fm
		iMom = fm.MomentumIndex()
		iE   = fm.EnergyIndex()
		rho  float64
		ke   float64
		Y, Z []float64
	)
	copy(prim, cons)
	for n := 0; n < fm.NS; n++ {
		rho += cons[n]
	}
	for d := 0; d < fm.Dim; d++ {
		prim[iMom+d] = cons[iMom+d] / rho
		ke += prim[iMom+d] * prim[iMom+d]
	}
	if fm.NS > 1 {
		if len(bu.ps.Y) != fm.NS {
			bu.ps.Y = make([]float64, fm.NS)
		}
		Y = bu.ps.Y
		for n := 0; n < fm.NS; n++ {
			Y[n] = cons[n] / rho
		}
		if fm.HasVolumeFractions() {
			Z = cons[fm.VolumeFractionIndex() : fm.VolumeFractionIndex()+fm.NS]
		}
	}
	prim[iE] = fm.mixing.EquationOfState().Pressure(rho, cons[iE]/rho-0.5*ke, fm.mixture(Y, Z))
}

// ComputePrimitiveCellData converts the registered conserved data to
// primitive variables over box
func (bu *BasicUtilities) ComputePrimitiveCellData(out *patch.CellData, box patch.Box) (err error) {
	var (
		fm = bu.fm
	)
	if err = fm.checkRegistered(); err != nil {
		return
	}
	if !fm.conservative[0].GhostBox().Contains(box) || !out.GhostBox().Contains(box) {
		return fmt.Errorf("%w: %s", ErrSubdomainOutsideGhostBox, box)
	}
	patch.ForEachCell(box, func(i, j, k int) {
		fm.GatherConservative(bu.cons, i, j, k)
		bu.ConvertConservativeToPrimitive(bu.prim, bu.cons)
		ind := out.Index(i, j, k)
		for n, v := range bu.prim {
			out.Data[n][ind] = v
		}
	})
	return
}

// CheckPhysicalBounds is true for positive partial densities and volume
// fractions, positive density and positive shifted pressure
func (bu *BasicUtilities) CheckPhysicalBounds(prim []float64) bool {
	var (
		fm  = bu.fm
		rho float64
		Y   []float64
		Z   []float64
		p   = prim[fm.EnergyIndex()]
	)
	for n, v := range prim {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		if n < fm.NS {
			if v < 0 {
				return false
			}
			rho += v
		}
	}
	if rho <= 0 {
		return false
	}
	if fm.NS > 1 {
		if len(bu.ps.Y) != fm.NS {
			bu.ps.Y = make([]float64, fm.NS)
		}
		Y = bu.ps.Y
		for n := 0; n < fm.NS; n++ {
			Y[n] = prim[n] / rho
		}
		if fm.HasVolumeFractions() {
			Z = prim[fm.VolumeFractionIndex() : fm.VolumeFractionIndex()+fm.NS]
			for _, z := range Z {
				if z < 0 || z > 1 {
					return false
				}
			}
		}
	}
	return p+fm.mixing.EquationOfState().PressureShift(fm.mixture(Y, Z)) > 0
}

// ComputeCharacteristicEigenvectors fills the left (L) and right (R)
// eigenvector matrices of the primitive system along d for the averaged
// state (rho, Y, c), L R = I. Rows of L are ordered by eigenvalue u-c,
// the u waves, then u+c.
func (bu *BasicUtilities) ComputeCharacteristicEigenvectors(L, R *mat.Dense, rho float64,
	Y []float64, c float64, d int) {
	var (
		fm   = bu.fm
		neq  = fm.NumberOfEquations()
		iMom = fm.MomentumIndex()
		iP   = fm.EnergyIndex()
		iUn  = iMom + d
		row  = 1
		c2   = c * c
		last = neq - 1
	)
	L.Zero()
	R.Zero()
	// u - c
	L.Set(0, iUn, -0.5*rho*c)
	L.Set(0, iP, 0.5)
	R.Set(iUn, 0, -1./(rho*c))
	R.Set(iP, 0, 1.)
	// u + c
	L.Set(last, iUn, 0.5*rho*c)
	L.Set(last, iP, 0.5)
	R.Set(iUn, last, 1./(rho*c))
	R.Set(iP, last, 1.)
	for n := 0; n < fm.NS; n++ {
		y := 1.
		if fm.NS > 1 {
			y = Y[n]
		}
		R.Set(n, 0, y/c2)
		R.Set(n, last, y/c2)
		L.Set(row, n, 1.)
		L.Set(row, iP, -y/c2)
		R.Set(n, row, 1.)
		row++
	}
	for m := 0; m < fm.Dim; m++ {
		if m == d {
			continue
		}
		L.Set(row, iMom+m, 1.)
		R.Set(iMom+m, row, 1.)
		row++
	}
	if fm.HasVolumeFractions() {
		for n := 0; n < fm.NS; n++ {
			L.Set(row, fm.VolumeFractionIndex()+n, 1.)
			R.Set(fm.VolumeFractionIndex()+n, row, 1.)
			row++
		}
	}
}

// RegisterDerivedVariablesForCharacteristicProjection registers the averaged
// state used by ComputeCharacteristicEigenvectors
func (bu *BasicUtilities) RegisterDerivedVariablesForCharacteristicProjection(ghost patch.IntVector) error {
	return bu.fm.RegisterDerivedVariables([]DerivedVariable{DENSITY, SOUND_SPEED}, ghost)
}

// ProjectToCharacteristic computes w = L v
func ProjectToCharacteristic(w, v []float64, L *mat.Dense) {
	mat.NewVecDense(len(w), w).MulVec(L, mat.NewVecDense(len(v), v))
}

// ProjectFromCharacteristic computes v = R w
func ProjectFromCharacteristic(v, w []float64, R *mat.Dense) {
	mat.NewVecDense(len(v), v).MulVec(R, mat.NewVecDense(len(w), w))
}

// RegisterDerivedVariablesForStableDt requests the wave speeds of every direction
func (bu *BasicUtilities) RegisterDerivedVariablesForStableDt() error {
	var (
		vars = make([]DerivedVariable, bu.fm.Dim)
	)
	for d := range vars {
		vars[d] = MaxWaveSpeed(d)
	}
	return bu.fm.RegisterDerivedVariables(vars, patch.IntVector{})
}

// ComputeStableDt returns the largest time step satisfying
// dt * sum_d (|u_d| + c)/dx_d <= cfl over the patch interior
func (bu *BasicUtilities) ComputeStableDt(cfl float64) (dt float64, err error) {
	var (
		fm      = bu.fm
		waves   = make([]*patch.CellData, fm.Dim)
		maxRate float64
	)
	if err = bu.RegisterDerivedVariablesForStableDt(); err != nil {
		return
	}
	if err = fm.ComputeDerivedCellData(); err != nil {
		return
	}
	for d := 0; d < fm.Dim; d++ {
		if waves[d], err = fm.DerivedCellData(MaxWaveSpeed(d)); err != nil {
			return
		}
	}
	dx := fm.patch.Geometry.Dx
	patch.ForEachCell(fm.patch.Box.Intersect(fm.subdomain), func(i, j, k int) {
		var rate float64
		for d, w := range waves {
			rate += w.Data[0][w.Index(i, j, k)] / dx[d]
		}
		maxRate = math.Max(maxRate, rate)
	})
	if maxRate == 0 {
		return math.Inf(1), nil
	}
	dt = cfl / maxRate
	return
}
