package flowmodel

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cast"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/restart"
	"github.com/notargets/amrflow/types"
)

// NewFlowModelFromInput builds a flow model with all helpers set up from the
// input file. Each worker owns one, the mixing rules are shared.
func NewFlowModelFromInput(ip *InputParameters.InputParametersFlow, mixing eos.MixingRules) (fm *FlowModel, err error) {
	if fm, err = NewFlowModel(ip.FlowModel, ip.Dimension, ip.NumberOfSpecies, mixing); err != nil {
		return
	}
	if err = fm.SetupRiemannSolver(ip.ConvectiveFluxReconstructor.RiemannSolver); err != nil {
		return nil, err
	}
	fm.SetupBasicUtilities()
	if len(ip.DiffusiveFluxReconstructor.Type) != 0 {
		err = fm.SetupDiffusiveFluxUtilities(ip.DiffusiveFluxReconstructor.Viscosity,
			ip.DiffusiveFluxReconstructor.Prandtl)
		if err != nil {
			return nil, err
		}
	}
	if err = fm.SetupSourceUtilities(ip.Gravity.Enabled, ip.Gravity.Vector); err != nil {
		return nil, err
	}
	fm.SetupStatisticsUtilities()
	return
}

func (fm *FlowModel) PrintClassData(w io.Writer) {
	fmt.Fprintf(w, "FlowModel\n")
	fmt.Fprintf(w, "[%s]\t= Flow Model\n", fm.Type)
	fmt.Fprintf(w, "[%d]\t\t\t= Dimension\n", fm.Dim)
	fmt.Fprintf(w, "[%d]\t\t\t= Number of Species\n", fm.NS)
	fmt.Fprintf(w, "%v\t= Conservative Variables\n", fm.ConservativeVariableNames())
	if fm.riemann != nil {
		fmt.Fprintf(w, "[%s]\t\t\t= Riemann Solver\n", fm.riemann.Type())
	}
	if fm.source != nil && fm.source.enabled {
		fmt.Fprintf(w, "%v\t= Gravity\n", fm.source.Gravity())
	}
	fm.mixing.PrintClassData(w)
}

func (fm *FlowModel) PutToRestart(db *restart.Database) {
	db.PutString("flow_model", fm.Type.String())
	db.PutInteger("dimension", fm.Dim)
	db.PutInteger("number_of_species", fm.NS)
	if fm.source != nil {
		fm.source.PutToRestart(db.PutDatabase("SourceUtilities"))
	}
}

// CheckRestart verifies the discriminants of a restart record and restores
// the gravity settings
func (fm *FlowModel) CheckRestart(db *restart.Database) (err error) {
	var (
		label   string
		dim, ns int
		child   *restart.Database
	)
	if label, err = db.GetString("flow_model"); err != nil {
		return
	}
	if dim, err = db.GetInteger("dimension"); err != nil {
		return
	}
	if ns, err = db.GetInteger("number_of_species"); err != nil {
		return
	}
	if label != fm.Type.String() || dim != fm.Dim || ns != fm.NS {
		return fmt.Errorf("%w: restart has %s in %d dimensions with %d species, configured %s/%d/%d",
			ErrRestartMismatch, label, dim, ns, fm.Type, fm.Dim, fm.NS)
	}
	if fm.source != nil && db.KeyExists("SourceUtilities") {
		if child, err = db.GetDatabase("SourceUtilities"); err != nil {
			return
		}
		err = fm.source.GetFromRestart(child)
	}
	return
}

func readVector(location string, entry map[string]interface{}, key string, n int) (v []float64, err error) {
	raw, ok := entry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s is missing %q", ErrBoundaryState, location, key)
	}
	if v, err = restart.ToFloat64Slice(raw); err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrBoundaryState, location, key, err)
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: %s %q has %d entries, expected %d", ErrBoundaryState,
			location, key, len(v), n)
	}
	return
}

// ReadBoundaryState parses the primitive state of a Dirichlet boundary, or
// its normal gradient for a Neumann boundary, from one boundary entry
func (fm *FlowModel) ReadBoundaryState(location string, kind types.BCFLAG,
	entry map[string]interface{}) (state []float64, err error) {
	var (
		v       []float64
		p       float64
		massKey = "partial_densities"
	)
	if fm.Type == SINGLE_SPECIES {
		massKey = "density"
	}
	state = make([]float64, fm.NumberOfEquations())
	if v, err = readVector(location, entry, massKey, fm.NS); err != nil {
		return nil, err
	}
	copy(state, v)
	if v, err = readVector(location, entry, "velocity", fm.Dim); err != nil {
		return nil, err
	}
	copy(state[fm.MomentumIndex():], v)
	raw, ok := entry["pressure"]
	if !ok {
		return nil, fmt.Errorf("%w: %s is missing %q", ErrBoundaryState, location, "pressure")
	}
	if p, err = cast.ToFloat64E(raw); err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrBoundaryState, location, "pressure", err)
	}
	state[fm.EnergyIndex()] = p
	if fm.HasVolumeFractions() {
		if v, err = readVector(location, entry, "volume_fractions", fm.NS); err != nil {
			return nil, err
		}
		copy(state[fm.VolumeFractionIndex():], v)
	}
	if kind.Base() != types.BC_Dirichlet {
		return
	}
	if err = fm.checkBoundaryState(location, state); err != nil {
		return nil, err
	}
	return
}

func (fm *FlowModel) checkBoundaryState(location string, state []float64) error {
	var (
		rho, zSum float64
		Y, Z      []float64
	)
	for n := 0; n < fm.NS; n++ {
		if state[n] < 0 {
			return fmt.Errorf("%w: %s has negative partial density %g", ErrBoundaryState,
				location, state[n])
		}
		rho += state[n]
	}
	if rho <= 0 {
		return fmt.Errorf("%w: %s has density %g", ErrBoundaryState, location, rho)
	}
	if fm.NS > 1 {
		Y = make([]float64, fm.NS)
		for n := range Y {
			Y[n] = state[n] / rho
		}
	}
	if fm.HasVolumeFractions() && fm.NS > 1 {
		Z = state[fm.VolumeFractionIndex() : fm.VolumeFractionIndex()+fm.NS]
		for _, z := range Z {
			zSum += z
		}
		if math.Abs(zSum-1) > 1.e-10 {
			return fmt.Errorf("%w: %s volume fractions sum to %g", ErrBoundaryState, location, zSum)
		}
	}
	if p := state[fm.EnergyIndex()]; p+fm.mixing.EquationOfState().PressureShift(fm.mixture(Y, Z)) <= 0 {
		return fmt.Errorf("%w: %s has pressure %g", ErrBoundaryState, location, p)
	}
	return nil
}
