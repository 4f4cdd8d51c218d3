package problems

import (
	"fmt"
	"math"

	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/flowmodel"
)

// SodShockTube is the Sod Riemann problem split at X0 along x, with its
// exact solution for a single species ideal gas
type SodShockTube struct {
	fm          *flowmodel.FlowModel
	X0          float64
	Left, Right GasState
	Gamma       float64

	// star region between the rarefaction tail and the shock
	PStar      float64
	UStar      float64
	RhoStarL   float64
	RhoStarR   float64
	ShockSpeed float64
	cLeft      float64
	mu2        float64
}

func NewSodShockTube(fm *flowmodel.FlowModel, x0 float64) (st *SodShockTube, err error) {
	mr := fm.MixingRules()
	if fm.Type != flowmodel.SINGLE_SPECIES || mr.EquationOfStateType() != eos.IDEAL_GAS {
		return nil, fmt.Errorf("%w: Sod shock tube needs a single species ideal gas, have %s with %s",
			ErrProblemSetup, fm.Type, mr.EquationOfStateType())
	}
	props := make([]float64, mr.EquationOfState().NumberOfThermodynamicProperties())
	mr.MixtureThermodynamicProperties(props, nil, nil)
	st = &SodShockTube{
		fm:    fm,
		X0:    x0,
		Left:  GasState{Density: 1., Pressure: 1.},
		Right: GasState{Density: 0.125, Pressure: 0.1},
		Gamma: props[0],
	}
	st.solveStarRegion()
	return
}

func (st *SodShockTube) rarefactionVelocity(P float64) float64 {
	g := st.Gamma
	return 2. * st.cLeft / (g - 1.) * (1. - math.Pow(P/st.Left.Pressure, (g-1.)/(2.*g)))
}

// pressureFunction is zero at the star pressure, increasing in P
func (st *SodShockTube) pressureFunction(P float64) float64 {
	var (
		rhoR, PR = st.Right.Density, st.Right.Pressure
	)
	return (P-PR)*math.Sqrt((1.-st.mu2)/(rhoR*(P+st.mu2*PR))) - st.rarefactionVelocity(P)
}

func (st *SodShockTube) solveStarRegion() {
	var (
		g      = st.Gamma
		lo, hi = st.Right.Pressure, st.Left.Pressure
	)
	st.mu2 = (g - 1.) / (g + 1.)
	st.cLeft = math.Sqrt(g * st.Left.Pressure / st.Left.Density)
	for n := 0; n < 200 && hi-lo > 1.e-15*hi; n++ {
		mid := 0.5 * (lo + hi)
		if st.pressureFunction(mid) > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	st.PStar = 0.5 * (lo + hi)
	st.UStar = st.rarefactionVelocity(st.PStar)
	pr := st.PStar / st.Right.Pressure
	st.RhoStarR = st.Right.Density * (pr + st.mu2) / (1. + st.mu2*pr)
	st.RhoStarL = st.Left.Density * math.Pow(st.PStar/st.Left.Pressure, 1./g)
	ratio := st.RhoStarR / st.Right.Density
	st.ShockSpeed = st.UStar * ratio / (ratio - 1.)
}

// WavePositions are the rarefaction head and tail, the contact and the shock
func (st *SodShockTube) WavePositions(t float64) (x [4]float64) {
	cTail := st.cLeft - 0.5*(st.Gamma-1.)*st.UStar
	x[0] = st.X0 - st.cLeft*t
	x[1] = st.X0 + (st.UStar-cTail)*t
	x[2] = st.X0 + st.UStar*t
	x[3] = st.X0 + st.ShockSpeed*t
	return
}

// Exact is the density, velocity and pressure at x and time t
func (st *SodShockTube) Exact(x, t float64) (rho, u, p float64) {
	if t <= 0 {
		if x < st.X0 {
			return st.Left.Density, st.Left.Velocity, st.Left.Pressure
		}
		return st.Right.Density, st.Right.Velocity, st.Right.Pressure
	}
	w := st.WavePositions(t)
	switch {
	case x < w[0]:
		return st.Left.Density, st.Left.Velocity, st.Left.Pressure
	case x < w[1]:
		c := st.mu2*(st.X0-x)/t + (1.-st.mu2)*st.cLeft
		rho = st.Left.Density * math.Pow(c/st.cLeft, 2./(st.Gamma-1.))
		p = st.Left.Pressure * math.Pow(rho/st.Left.Density, st.Gamma)
		u = (1. - st.mu2) * ((x-st.X0)/t + st.cLeft)
		return
	case x < w[2]:
		return st.RhoStarL, st.UStar, st.PStar
	case x < w[3]:
		return st.RhoStarR, st.UStar, st.PStar
	}
	return st.Right.Density, st.Right.Velocity, st.Right.Pressure
}

func (st *SodShockTube) Type() ProblemType { return SOD_SHOCK_TUBE }

func (st *SodShockTube) Primitive(prim []float64, x [3]float64) {
	for n := range prim {
		prim[n] = 0
	}
	rho, u, p := st.Exact(x[0], 0)
	prim[0] = rho
	prim[st.fm.MomentumIndex()] = u
	prim[st.fm.EnergyIndex()] = p
}
