package flowmodel

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/types"
)

type RiemannSolverType uint8

const (
	RIEMANN_HLLC RiemannSolverType = iota
	RIEMANN_HLL
	RIEMANN_ROE
)

var (
	RiemannSolverNames = map[string]RiemannSolverType{
		"hllc": RIEMANN_HLLC,
		"hll":  RIEMANN_HLL,
		"roe":  RIEMANN_ROE,
	}
	RiemannSolverPrintNames = []string{"HLLC", "HLL", "ROE"}
)

func (rt RiemannSolverType) String() string { return RiemannSolverPrintNames[rt] }

func NewRiemannSolverType(label string) (rt RiemannSolverType, err error) {
	var ok bool
	if len(label) == 0 {
		return RIEMANN_HLLC, nil
	}
	if rt, ok = RiemannSolverNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: Riemann solver %q, expected one of %v", ErrUnsupportedModel,
			label, RiemannSolverPrintNames)
	}
	return
}

// RiemannSolver computes the interface flux between two primitive states.
// The returned velocity is the normal velocity at the interface, used by the
// volume fraction source of the five equation model.
type RiemannSolver interface {
	Type() RiemannSolverType
	ComputeConvectiveFlux(flux, primL, primR []float64, dir types.Direction) (uFace float64)
}

func (fm *FlowModel) SetupRiemannSolver(label string) (err error) {
	var (
		rt RiemannSolverType
	)
	if rt, err = NewRiemannSolverType(label); err != nil {
		return
	}
	switch rt {
	case RIEMANN_HLLC, RIEMANN_HLL:
		fm.riemann = newHLLSolver(fm, rt)
	case RIEMANN_ROE:
		if fm.Type != SINGLE_SPECIES {
			return fmt.Errorf("%w: %s Riemann solver requires %s, got %s", ErrUnsupportedModel,
				rt, SINGLE_SPECIES, fm.Type)
		}
		fm.riemann = newRoeSolver(fm)
	}
	return
}

func (fm *FlowModel) RiemannSolver() RiemannSolver { return fm.riemann }

// pointState holds the thermodynamic view of one primitive vector
type pointState struct {
	rho, p, c, E float64
	Y, Z         []float64
}

// thermo fills ps from prim, Y and Z are nil when the mixing rules do not use them
func (fm *FlowModel) thermo(ps *pointState, prim []float64) {
	var (
		ke float64
		eq = fm.mixing.EquationOfState()
	)
	ps.rho = 0
	for n := 0; n < fm.NS; n++ {
		ps.rho += prim[n]
	}
	if fm.NS > 1 {
		if len(ps.Y) != fm.NS {
			ps.Y = make([]float64, fm.NS)
		}
		for n := 0; n < fm.NS; n++ {
			ps.Y[n] = prim[n] / ps.rho
		}
		if fm.Type == FIVE_EQN_ALLAIRE {
			ps.Z = prim[fm.VolumeFractionIndex() : fm.VolumeFractionIndex()+fm.NS]
		}
	}
	for d := 0; d < fm.Dim; d++ {
		u := prim[fm.MomentumIndex()+d]
		ke += u * u
	}
	ps.p = prim[fm.EnergyIndex()]
	props := fm.mixture(ps.Y, ps.Z)
	ps.c = eq.SoundSpeed(ps.rho, ps.p, props)
	ps.E = ps.rho*eq.InternalEnergy(ps.rho, ps.p, props) + 0.5*ps.rho*ke
}

// physicalFlux is F(Q) along d, Z rows carry u_d Z
func (fm *FlowModel) physicalFlux(flux, prim []float64, ps *pointState, d int) {
	var (
		iMom = fm.MomentumIndex()
		un   = prim[iMom+d]
	)
	for n := 0; n < fm.NS; n++ {
		flux[n] = prim[n] * un
	}
	for m := 0; m < fm.Dim; m++ {
		flux[iMom+m] = ps.rho * prim[iMom+m] * un
	}
	flux[iMom+d] += ps.p
	flux[fm.EnergyIndex()] = (ps.E + ps.p) * un
	if fm.HasVolumeFractions() {
		for n := 0; n < fm.NS; n++ {
			flux[fm.VolumeFractionIndex()+n] = prim[fm.VolumeFractionIndex()+n] * un
		}
	}
}

// hllSolver implements HLLC and HLL with Davis wave speed estimates
type hllSolver struct {
	fm       *FlowModel
	rt       RiemannSolverType
	psL, psR pointState
	fL, fR   []float64
	qL, qR   []float64
}

func newHLLSolver(fm *FlowModel, rt RiemannSolverType) *hllSolver {
	neq := fm.NumberOfEquations()
	return &hllSolver{
		fm: fm,
		rt: rt,
		fL: make([]float64, neq),
		fR: make([]float64, neq),
		qL: make([]float64, neq),
		qR: make([]float64, neq),
	}
}

func (hs *hllSolver) Type() RiemannSolverType { return hs.rt }

func (hs *hllSolver) ComputeConvectiveFlux(flux, primL, primR []float64, dir types.Direction) (uFace float64) {
	var (
		fm       = hs.fm
		d        = int(dir)
		iMom     = fm.MomentumIndex()
		iE       = fm.EnergyIndex()
		iZ       = fm.VolumeFractionIndex()
		psL, psR = &hs.psL, &hs.psR
	)
	fm.thermo(psL, primL)
	fm.thermo(psR, primR)
	var (
		uL, uR = primL[iMom+d], primR[iMom+d]
		sL     = math.Min(uL-psL.c, uR-psR.c)
		sR     = math.Max(uL+psL.c, uR+psR.c)
		sMinus = math.Min(0, sL)
		sPlus  = math.Max(0, sR)
	)
	fm.physicalFlux(hs.fL, primL, psL, d)
	fm.physicalFlux(hs.fR, primR, psR, d)

	if hs.rt == RIEMANN_HLL {
		qL, qR := hs.qL, hs.qR
		fm.primitiveToConservative(qL, primL, psL)
		fm.primitiveToConservative(qR, primR, psR)
		for n := range flux {
			flux[n] = (sPlus*hs.fL[n] - sMinus*hs.fR[n] + sPlus*sMinus*(qR[n]-qL[n])) /
				(sPlus - sMinus)
		}
		uFace = (sPlus*uL - sMinus*uR) / (sPlus - sMinus)
		return
	}

	var (
		sStar = (psR.p - psL.p + psL.rho*uL*(sL-uL) - psR.rho*uR*(sR-uR)) /
			(psL.rho*(sL-uL) - psR.rho*(sR-uR))
		prim, f = primL, hs.fL
		ps      = psL
		s, sW   = sL, sMinus
		un      = uL
	)
	if sStar <= 0 {
		prim, f, ps, s, sW, un = primR, hs.fR, psR, sR, sPlus, uR
	}
	chi := (s - un) / (s - sStar)
	uFace = un + sW*(chi-1.)
	// Q*_K - Q_K, scaled by the wave speed that reaches the interface
	for n := 0; n < fm.NS; n++ {
		flux[n] = f[n] + sW*(prim[n]*chi-prim[n])
	}
	for m := 0; m < fm.Dim; m++ {
		var (
			um    = prim[iMom+m]
			qStar = ps.rho * chi * um
		)
		if m == d {
			qStar = ps.rho * chi * sStar
		}
		flux[iMom+m] = f[iMom+m] + sW*(qStar-ps.rho*um)
	}
	eStar := chi * (ps.E + (sStar-un)*(ps.rho*sStar+ps.p/(s-un)))
	flux[iE] = f[iE] + sW*(eStar-ps.E)
	if fm.HasVolumeFractions() {
		for n := 0; n < fm.NS; n++ {
			flux[iZ+n] = uFace * prim[iZ+n]
		}
	}
	return
}

// roeSolver is the Roe flux difference splitting for a single species with
// the Roe average sound speed of a stiffened gas, c^2 = (gamma-1)(h - |u|^2/2 - q)
type roeSolver struct {
	fm       *FlowModel
	psL, psR pointState
	fL, fR   []float64
	props    []float64
}

func newRoeSolver(fm *FlowModel) *roeSolver {
	neq := fm.NumberOfEquations()
	rs := &roeSolver{
		fm:    fm,
		fL:    make([]float64, neq),
		fR:    make([]float64, neq),
		props: make([]float64, fm.mixing.NumberOfSpeciesMolecularProperties()),
	}
	fm.mixing.SpeciesMolecularProperties(rs.props, 0)
	return rs
}

func (rs *roeSolver) Type() RiemannSolverType { return RIEMANN_ROE }

func (rs *roeSolver) ComputeConvectiveFlux(flux, primL, primR []float64, dir types.Direction) (uFace float64) {
	var (
		fm         = rs.fm
		d          = int(dir)
		iMom       = fm.MomentumIndex()
		iE         = fm.EnergyIndex()
		psL, psR   = &rs.psL, &rs.psR
		Gamma      = rs.props[0]
		GM1        = Gamma - 1
		q          float64
		vt         [3]float64
		dW3        [3]float64
		ke         float64
		rhoL, rhoR float64
		pL, pR     float64
	)
	if fm.mixing.EquationOfStateType() == eos.STIFFENED_GAS {
		q = rs.props[2] // energy reference of the stiffened gas
	}
	fm.thermo(psL, primL)
	fm.thermo(psR, primR)
	fm.physicalFlux(rs.fL, primL, psL, d)
	fm.physicalFlux(rs.fR, primR, psR, d)
	rhoL, rhoR = psL.rho, psR.rho
	pL, pR = psL.p, psR.p
	// Enthalpy
	hL, hR := (psL.E+pL)/rhoL, (psR.E+pR)/rhoR

	// Compute Roe average variables
	rhoLs, rhoRs := math.Sqrt(rhoL), math.Sqrt(rhoR)
	rhoLsRs := rhoLs + rhoRs

	rho := rhoLs * rhoRs
	uL, uR := primL[iMom+d], primR[iMom+d]
	u := (rhoLs*uL + rhoRs*uR) / rhoLsRs
	ke = u * u
	for m := 0; m < fm.Dim; m++ {
		if m == d {
			continue
		}
		vt[m] = (rhoLs*primL[iMom+m] + rhoRs*primR[iMom+m]) / rhoLsRs
		ke += vt[m] * vt[m]
	}
	h := (rhoLs*hL + rhoRs*hR) / rhoLsRs
	c2 := GM1 * (h - 0.5*ke - q)
	c := math.Sqrt(c2)

	// Riemann fluxes
	dW1 := -0.5*(rho*(uR-uL))/c + 0.5*(pR-pL)/c2
	dW2 := (rhoR - rhoL) - (pR-pL)/c2
	dW4 := 0.5*(rho*(uR-uL))/c + 0.5*(pR-pL)/c2
	dW1 = math.Abs(u-c) * dW1
	dW2 = math.Abs(u) * dW2
	dW4 = math.Abs(u+c) * dW4
	for m := 0; m < fm.Dim; m++ {
		if m != d {
			dW3[m] = math.Abs(u) * rho * (primR[iMom+m] - primL[iMom+m])
		}
	}

	// Form Roe Fluxes
	for n := range flux {
		flux[n] = 0.5 * (rs.fL[n] + rs.fR[n]) // Ave of normal component of flux
	}
	flux[0] -= 0.5 * (dW1 + dW2 + dW4)
	flux[iMom+d] -= 0.5 * (dW1*(u-c) + dW2*u + dW4*(u+c))
	eDiss := dW1*(h-u*c) + dW2*(0.5*ke+q) + dW4*(h+u*c)
	for m := 0; m < fm.Dim; m++ {
		if m == d {
			continue
		}
		flux[iMom+m] -= 0.5 * ((dW1+dW2+dW4)*vt[m] + dW3[m])
		eDiss += dW3[m] * vt[m]
	}
	flux[iE] -= 0.5 * eDiss
	uFace = u
	return
}
