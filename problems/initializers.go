// Package problems sets up the initial conservative state of the model
// problems driven from the command line.
package problems

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/types"
)

var (
	ErrUnknownProblem = errors.New("unknown initial condition")
	ErrProblemSetup   = errors.New("invalid problem setup")
)

type ProblemType uint8

const (
	UNIFORM ProblemType = iota
	SHOCK_BUBBLE
	SOD_SHOCK_TUBE
)

var (
	ProblemNames = map[string]ProblemType{
		"uniform":                  UNIFORM,
		"freestream":               UNIFORM,
		"shockbubble":              SHOCK_BUBBLE,
		"shock_bubble":             SHOCK_BUBBLE,
		"shock_bubble_interaction": SHOCK_BUBBLE,
		"sod":                      SOD_SHOCK_TUBE,
		"sodshocktube":             SOD_SHOCK_TUBE,
		"sod_shock_tube":           SOD_SHOCK_TUBE,
	}
	ProblemPrintNames = []string{"Uniform", "ShockBubble", "SodShockTube"}
)

func (pt ProblemType) String() string { return ProblemPrintNames[pt] }

func NewProblemType(label string) (pt ProblemType, err error) {
	var ok bool
	if pt, ok = ProblemNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: %q, expected one of %v", ErrUnknownProblem, label, ProblemPrintNames)
	}
	return
}

// Initializer gives the primitive state of a problem at a point, in the
// primitive layout of the flow model it was built for
type Initializer interface {
	Type() ProblemType
	Primitive(prim []float64, x [3]float64)
}

func NewInitializer(ip *InputParameters.InputParametersFlow, fm *flowmodel.FlowModel) (ic Initializer, err error) {
	var (
		pt ProblemType
	)
	if pt, err = NewProblemType(ip.Domain.InitType); err != nil {
		return
	}
	switch pt {
	case UNIFORM:
		ic, err = NewUniform(fm, ip.Domain.State)
	case SHOCK_BUBBLE:
		if len(ip.Domain.XLo) < fm.Dim || len(ip.Domain.XHi) < fm.Dim {
			return nil, fmt.Errorf("%w: Domain.XLo and Domain.XHi need %d entries", ErrProblemSetup, fm.Dim)
		}
		ic, err = NewShockBubble(fm, ip.Domain.XLo, ip.Domain.XHi)
	case SOD_SHOCK_TUBE:
		if len(ip.Domain.XLo) < 1 || len(ip.Domain.XHi) < 1 {
			return nil, fmt.Errorf("%w: Domain.XLo and Domain.XHi are missing", ErrProblemSetup)
		}
		ic, err = NewSodShockTube(fm, 0.5*(ip.Domain.XLo[0]+ip.Domain.XHi[0]))
	}
	return
}

// Uniform is the same state everywhere
type Uniform struct {
	State []float64
}

// NewUniform reads the state with the same keys as a Dirichlet boundary:
// density or partial_densities, velocity, pressure and volume_fractions
func NewUniform(fm *flowmodel.FlowModel, state map[string][]float64) (u *Uniform, err error) {
	var (
		entry = make(map[string]interface{}, len(state))
	)
	for k, v := range state {
		entry[k] = v
		if k == "pressure" && len(v) == 1 {
			entry[k] = v[0]
		}
	}
	u = &Uniform{}
	if u.State, err = fm.ReadBoundaryState("Domain.State", types.BC_Dirichlet, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProblemSetup, err)
	}
	return
}

func (u *Uniform) Type() ProblemType { return UNIFORM }

func (u *Uniform) Primitive(prim []float64, x [3]float64) { copy(prim, u.State) }

// GasState is a single fluid primitive state
type GasState struct {
	Density  float64
	Velocity float64 // along x
	Pressure float64
}

// ShockBubble is a planar shock in air moving in -x toward a helium bubble.
// Species 0 is air, species 1 the bubble gas.
type ShockBubble struct {
	fm        *flowmodel.FlowModel
	ShockX    float64
	Center    [3]float64
	Radius    float64
	PreShock  GasState
	PostShock GasState
	Bubble    GasState
}

// NewShockBubble places the bubble in the middle of the cross section at 40%
// of the length, with a radius of a quarter of the height, and the shock 5%
// of the length downstream of it
func NewShockBubble(fm *flowmodel.FlowModel, xlo, xhi []float64) (sb *ShockBubble, err error) {
	if fm.Dim < 2 || fm.NS != 2 || fm.Type == flowmodel.SINGLE_SPECIES {
		return nil, fmt.Errorf("%w: shock bubble needs a two species model in 2 or 3 dimensions, have %s/%dD/%d species",
			ErrProblemSetup, fm.Type, fm.Dim, fm.NS)
	}
	var (
		lx = xhi[0] - xlo[0]
		ly = xhi[1] - xlo[1]
	)
	if lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("%w: empty domain %v to %v", ErrProblemSetup, xlo, xhi)
	}
	sb = &ShockBubble{
		fm:        fm,
		Radius:    0.25 * ly,
		PreShock:  GasState{Density: 1., Pressure: 1.},
		PostShock: GasState{Density: 1.3764, Velocity: -0.394, Pressure: 1.5698},
		Bubble:    GasState{Density: 0.1819, Pressure: 1.},
	}
	for d := 0; d < fm.Dim; d++ {
		sb.Center[d] = 0.5 * (xlo[d] + xhi[d])
	}
	sb.Center[0] = xlo[0] + 0.4*lx
	sb.ShockX = sb.Center[0] + sb.Radius + 0.05*lx
	return
}

func (sb *ShockBubble) Type() ProblemType { return SHOCK_BUBBLE }

func (sb *ShockBubble) inBubble(x [3]float64) bool {
	var r2 float64
	for d := 0; d < sb.fm.Dim; d++ {
		r2 += (x[d] - sb.Center[d]) * (x[d] - sb.Center[d])
	}
	return r2 < sb.Radius*sb.Radius
}

func (sb *ShockBubble) Primitive(prim []float64, x [3]float64) {
	var (
		fm   = sb.fm
		gs   = sb.PreShock
		iMom = fm.MomentumIndex()
		he   float64
	)
	switch {
	case x[0] > sb.ShockX:
		gs = sb.PostShock
	case sb.inBubble(x):
		gs, he = sb.Bubble, 1.
	}
	for n := range prim {
		prim[n] = 0
	}
	prim[0] = gs.Density * (1. - he)
	prim[1] = gs.Density * he
	prim[iMom] = gs.Velocity
	prim[fm.EnergyIndex()] = gs.Pressure
	if fm.HasVolumeFractions() {
		prim[fm.VolumeFractionIndex()] = 1. - he
		prim[fm.VolumeFractionIndex()+1] = he
	}
}
