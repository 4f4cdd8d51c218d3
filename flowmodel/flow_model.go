// Package flowmodel is the per patch hub of the flow kernel. A FlowModel
// knows the conserved state layout of one flow model, keeps a cache of derived
// cell data computed from it, and hands out the Riemann solver and utility
// helpers that the flux reconstructors and source terms use.
package flowmodel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/patch"
)

var (
	ErrPatchNotRegistered       = errors.New("no patch registered with flow model")
	ErrPatchAlreadyRegistered   = errors.New("patch already registered with flow model")
	ErrSubdomainOutsideGhostBox = errors.New("subdomain box is not inside the ghost box")
	ErrInsufficientGhostWidth   = errors.New("requested ghost width exceeds available ghost cells")
	ErrNonPhysicalState         = errors.New("non physical state")
	ErrDerivedNotComputed       = errors.New("derived cell data not computed")
	ErrUnknownFlowModel         = errors.New("unknown flow model")
	ErrUnknownDerivedVariable   = errors.New("unknown derived variable")
	ErrUnsupportedModel         = errors.New("flow model configuration not supported")
	ErrRestartMismatch          = errors.New("restart record does not match configuration")
	ErrBoundaryState            = errors.New("invalid boundary state")
)

type FlowModelType uint8

const (
	SINGLE_SPECIES FlowModelType = iota
	FOUR_EQN_CONSERVATIVE
	FIVE_EQN_ALLAIRE
)

var (
	FlowModelNames = map[string]FlowModelType{
		"single_species":        SINGLE_SPECIES,
		"four_eqn_conservative": FOUR_EQN_CONSERVATIVE,
		"five_eqn_allaire":      FIVE_EQN_ALLAIRE,
	}
	FlowModelPrintNames = []string{"SINGLE_SPECIES", "FOUR_EQN_CONSERVATIVE", "FIVE_EQN_ALLAIRE"}
)

func (ft FlowModelType) String() string { return FlowModelPrintNames[ft] }

func NewFlowModelType(label string) (ft FlowModelType, err error) {
	var ok bool
	if ft, ok = FlowModelNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: %q, expected one of %v", ErrUnknownFlowModel, label, FlowModelPrintNames)
	}
	return
}

// DerivedVariable enumerates the cached quantities computed from the
// conserved state. The order is a valid computation order.
type DerivedVariable uint8

const (
	DENSITY DerivedVariable = iota
	MASS_FRACTIONS
	VELOCITY
	INTERNAL_ENERGY
	PRESSURE
	SOUND_SPEED
	TEMPERATURE
	MAX_WAVE_SPEED_X
	MAX_WAVE_SPEED_Y
	MAX_WAVE_SPEED_Z
	numDerivedVariables
)

var (
	DerivedVariableNames = map[string]DerivedVariable{
		"density":          DENSITY,
		"mass_fractions":   MASS_FRACTIONS,
		"velocity":         VELOCITY,
		"internal_energy":  INTERNAL_ENERGY,
		"pressure":         PRESSURE,
		"sound_speed":      SOUND_SPEED,
		"temperature":      TEMPERATURE,
		"max_wave_speed_x": MAX_WAVE_SPEED_X,
		"max_wave_speed_y": MAX_WAVE_SPEED_Y,
		"max_wave_speed_z": MAX_WAVE_SPEED_Z,
	}
	DerivedVariablePrintNames = []string{"DENSITY", "MASS_FRACTIONS", "VELOCITY",
		"INTERNAL_ENERGY", "PRESSURE", "SOUND_SPEED", "TEMPERATURE",
		"MAX_WAVE_SPEED_X", "MAX_WAVE_SPEED_Y", "MAX_WAVE_SPEED_Z"}
)

func (dv DerivedVariable) String() string { return DerivedVariablePrintNames[dv] }

func NewDerivedVariable(label string) (dv DerivedVariable, err error) {
	var ok bool
	if dv, ok = DerivedVariableNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownDerivedVariable, label)
	}
	return
}

// MaxWaveSpeed returns the wave speed variable for direction d
func MaxWaveSpeed(d int) DerivedVariable { return MAX_WAVE_SPEED_X + DerivedVariable(d) }

type RegistrationState uint8

const (
	UNREGISTERED RegistrationState = iota
	REGISTERED
	ALLOCATED
	COMPUTED
)

func (rs RegistrationState) String() string {
	return [...]string{"UNREGISTERED", "REGISTERED", "ALLOCATED", "COMPUTED"}[rs]
}

type derivedEntry struct {
	ghost    patch.IntVector
	data     *patch.CellData
	computed bool
}

type FlowModel struct {
	Type   FlowModelType
	Dim    int
	NS     int
	mixing eos.MixingRules

	state        RegistrationState
	patch        *patch.Patch
	context      patch.DataContext
	conservative []*patch.CellData
	ghost        patch.IntVector // ghost width of the conserved data
	subdomain    patch.Box
	derived      map[DerivedVariable]*derivedEntry
	props        []float64 // mixture properties of the last point evaluated
	derivations  int

	riemann   RiemannSolver
	basic     *BasicUtilities
	diffusive *DiffusiveFluxUtilities
	source    *SourceUtilities
	stats     *StatisticsUtilities
}

func NewFlowModel(label string, dim, ns int, mixing eos.MixingRules) (fm *FlowModel, err error) {
	var (
		ft      FlowModelType
		closure = mixing.MixingClosureModel()
	)
	if ft, err = NewFlowModelType(label); err != nil {
		return
	}
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("%w: dimension %d", ErrUnsupportedModel, dim)
		return
	}
	if ns != mixing.NumberOfSpecies() {
		err = fmt.Errorf("%w: %d species configured, mixing rules have %d",
			ErrUnsupportedModel, ns, mixing.NumberOfSpecies())
		return
	}
	switch ft {
	case SINGLE_SPECIES:
		if ns != 1 {
			err = fmt.Errorf("%w: %s with %d species", ErrUnsupportedModel, ft, ns)
		}
	case FOUR_EQN_CONSERVATIVE:
		if ns > 1 && closure != eos.ISOTHERMAL {
			err = fmt.Errorf("%w: %s requires the %s closure, got %s", ErrUnsupportedModel,
				ft, eos.ISOTHERMAL, closure)
		}
	case FIVE_EQN_ALLAIRE:
		if ns > 1 && closure != eos.ISOBARIC {
			err = fmt.Errorf("%w: %s requires the %s closure, got %s", ErrUnsupportedModel,
				ft, eos.ISOBARIC, closure)
		}
	}
	if err != nil {
		return
	}
	fm = &FlowModel{
		Type:    ft,
		Dim:     dim,
		NS:      ns,
		mixing:  mixing,
		derived: make(map[DerivedVariable]*derivedEntry),
		props:   make([]float64, mixing.EquationOfState().NumberOfThermodynamicProperties()),
	}
	return
}

func (fm *FlowModel) MixingRules() eos.MixingRules { return fm.mixing }

// mixture evaluates the mixture property vector at Y, Z into the model's
// buffer, valid until the next call
func (fm *FlowModel) mixture(Y, Z []float64) []float64 {
	fm.mixing.MixtureThermodynamicProperties(fm.props, Y, Z)
	return fm.props
}

func (fm *FlowModel) State() RegistrationState { return fm.state }

// ConservativeVariableNames returns the patch data names of the conserved
// state, in equation order
func (fm *FlowModel) ConservativeVariableNames() (names []string) {
	switch fm.Type {
	case SINGLE_SPECIES:
		names = []string{"density", "momentum", "total_energy"}
	case FOUR_EQN_CONSERVATIVE:
		names = []string{"partial_densities", "momentum", "total_energy"}
	case FIVE_EQN_ALLAIRE:
		names = []string{"partial_densities", "momentum", "total_energy", "volume_fractions"}
	}
	return
}

func (fm *FlowModel) ConservativeVariableDepths() (depths []int) {
	depths = []int{fm.NS, fm.Dim, 1}
	if fm.Type == FIVE_EQN_ALLAIRE {
		depths = append(depths, fm.NS)
	}
	return
}

func (fm *FlowModel) NumberOfEquations() (neq int) {
	for _, d := range fm.ConservativeVariableDepths() {
		neq += d
	}
	return
}

// Equation indices shared by the conservative and primitive layouts
// [rhoY_1..rhoY_ns | u_1..u_dim | p or E | Z_1..Z_ns]
func (fm *FlowModel) MomentumIndex() int { return fm.NS }

func (fm *FlowModel) EnergyIndex() int { return fm.NS + fm.Dim }

func (fm *FlowModel) VolumeFractionIndex() int { return fm.NS + fm.Dim + 1 }

func (fm *FlowModel) HasVolumeFractions() bool { return fm.Type == FIVE_EQN_ALLAIRE }

func (fm *FlowModel) RegisterPatch(p *patch.Patch, ctx patch.DataContext) (err error) {
	var (
		names  = fm.ConservativeVariableNames()
		depths = fm.ConservativeVariableDepths()
		cons   = make([]*patch.CellData, len(names))
	)
	if fm.state != UNREGISTERED {
		return fmt.Errorf("%w: patch %d", ErrPatchAlreadyRegistered, fm.patch.Number)
	}
	if p.Dim() != fm.Dim {
		return fmt.Errorf("%w: patch dimension %d, flow model dimension %d",
			ErrUnsupportedModel, p.Dim(), fm.Dim)
	}
	for n, name := range names {
		if cons[n], err = p.CellData(name, ctx); err != nil {
			return
		}
		if cons[n].Depth != depths[n] {
			return fmt.Errorf("%w: %q has depth %d, expected %d", patch.ErrMissingPatchData,
				name, cons[n].Depth, depths[n])
		}
		if cons[n].Ghost != cons[0].Ghost {
			return fmt.Errorf("%w: %q has ghost width %v, %q has %v", patch.ErrMissingPatchData,
				name, cons[n].Ghost, names[0], cons[0].Ghost)
		}
	}
	fm.derived = make(map[DerivedVariable]*derivedEntry)
	fm.patch = p
	fm.context = ctx
	fm.conservative = cons
	fm.ghost = cons[0].Ghost
	fm.subdomain = cons[0].GhostBox()
	fm.state = REGISTERED
	return
}

// UnregisterPatch drops the patch and all cached cell data
func (fm *FlowModel) UnregisterPatch() {
	fm.patch = nil
	fm.conservative = nil
	fm.derived = make(map[DerivedVariable]*derivedEntry)
	fm.state = UNREGISTERED
}

func (fm *FlowModel) checkRegistered() error {
	if fm.state == UNREGISTERED {
		return ErrPatchNotRegistered
	}
	return nil
}

func (fm *FlowModel) Patch() (p *patch.Patch, err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	p = fm.patch
	return
}

func (fm *FlowModel) DataContext() patch.DataContext { return fm.context }

// NumberOfGhostCells is the ghost width of the registered conserved data
func (fm *FlowModel) NumberOfGhostCells() (ghost patch.IntVector, err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	ghost = fm.ghost
	return
}

func (fm *FlowModel) SubdomainBox() (box patch.Box, err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	box = fm.subdomain
	return
}

// SetSubdomainBox restricts derived computations to box. Cached values are
// recomputed on the next ComputeDerivedCellData.
func (fm *FlowModel) SetSubdomainBox(box patch.Box) (err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	if !fm.conservative[0].GhostBox().Contains(box) {
		return fmt.Errorf("%w: %s not in %s", ErrSubdomainOutsideGhostBox,
			box, fm.conservative[0].GhostBox())
	}
	fm.subdomain = box
	for _, e := range fm.derived {
		e.computed = false
	}
	if fm.state == COMPUTED {
		fm.state = ALLOCATED
	}
	return
}

// dependencies lists what must be computed before dv
func (fm *FlowModel) dependencies(dv DerivedVariable) (deps []DerivedVariable) {
	switch dv {
	case MASS_FRACTIONS, VELOCITY:
		deps = []DerivedVariable{DENSITY}
	case INTERNAL_ENERGY:
		deps = []DerivedVariable{DENSITY, VELOCITY}
	case PRESSURE:
		deps = []DerivedVariable{DENSITY, INTERNAL_ENERGY}
	case SOUND_SPEED, TEMPERATURE:
		deps = []DerivedVariable{DENSITY, PRESSURE}
	case MAX_WAVE_SPEED_X, MAX_WAVE_SPEED_Y, MAX_WAVE_SPEED_Z:
		deps = []DerivedVariable{VELOCITY, SOUND_SPEED}
	}
	if fm.NS > 1 && (dv == PRESSURE || dv == SOUND_SPEED || dv == TEMPERATURE) {
		deps = append(deps, MASS_FRACTIONS)
	}
	return
}

func (fm *FlowModel) derivedDepth(dv DerivedVariable) int {
	switch dv {
	case MASS_FRACTIONS:
		return fm.NS
	case VELOCITY:
		return fm.Dim
	}
	return 1
}

// RegisterDerivedVariables requests vars, and everything they depend on,
// with at least ghost cells of ghost width
func (fm *FlowModel) RegisterDerivedVariables(vars []DerivedVariable, ghost patch.IntVector) (err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	if !fm.ghost.GreaterOrEqual(ghost, fm.Dim) {
		return fmt.Errorf("%w: requested %v, conserved data has %v", ErrInsufficientGhostWidth,
			ghost, fm.ghost)
	}
	for _, dv := range vars {
		if dv >= numDerivedVariables || (dv >= MAX_WAVE_SPEED_X && int(dv-MAX_WAVE_SPEED_X) >= fm.Dim) {
			return fmt.Errorf("%w: %d in %d dimensions", ErrUnknownDerivedVariable, dv, fm.Dim)
		}
		fm.register(dv, ghost)
	}
	return
}

func (fm *FlowModel) register(dv DerivedVariable, ghost patch.IntVector) {
	var (
		e, ok = fm.derived[dv]
	)
	if !ok {
		e = &derivedEntry{}
		fm.derived[dv] = e
	}
	if g := e.ghost.Max(ghost); !ok || g != e.ghost {
		e.ghost = g
		e.data = nil
		e.computed = false
		fm.state = REGISTERED
	}
	for _, dep := range fm.dependencies(dv) {
		fm.register(dep, ghost)
	}
}

func (fm *FlowModel) IsRegistered(dv DerivedVariable) (ok bool) {
	_, ok = fm.derived[dv]
	return
}

func (fm *FlowModel) AllocateMemoryForDerivedCellData() (err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	for dv, e := range fm.derived {
		if e.data == nil {
			e.data = patch.NewCellData(fm.patch.Box, fm.derivedDepth(dv), e.ghost)
			e.computed = false
		}
	}
	if fm.state == REGISTERED {
		fm.state = ALLOCATED
	}
	return
}

// ComputeDerivedCellData fills every registered variable over its ghost box
// intersected with the subdomain. Values already computed are kept.
func (fm *FlowModel) ComputeDerivedCellData() (err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	if fm.state == COMPUTED {
		return
	}
	if err = fm.AllocateMemoryForDerivedCellData(); err != nil {
		return
	}
	for dv := DENSITY; dv < numDerivedVariables; dv++ {
		e, ok := fm.derived[dv]
		if !ok || e.computed {
			continue
		}
		region := e.data.GhostBox().Intersect(fm.subdomain)
		if err = fm.computeDerived(dv, e.data, region); err != nil {
			return
		}
		e.computed = true
		fm.derivations++
	}
	fm.state = COMPUTED
	return
}

// NumberOfDerivations counts the derived fields computed since construction
func (fm *FlowModel) NumberOfDerivations() int { return fm.derivations }

// ClearCellData drops cached values and registrations, the patch stays registered
func (fm *FlowModel) ClearCellData() {
	if fm.state == UNREGISTERED {
		return
	}
	fm.derived = make(map[DerivedVariable]*derivedEntry)
	fm.subdomain = fm.conservative[0].GhostBox()
	fm.state = REGISTERED
}

// CellData returns conservative data by patch name or derived data by
// derived variable name
func (fm *FlowModel) CellData(name string) (cd *patch.CellData, err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	if dv, derr := NewDerivedVariable(name); derr == nil {
		if _, ok := fm.derived[dv]; ok {
			return fm.DerivedCellData(dv)
		}
	}
	for n, cname := range fm.ConservativeVariableNames() {
		if cname == name {
			cd = fm.conservative[n]
			return
		}
	}
	err = fmt.Errorf("%w: %q is neither conservative nor registered derived data",
		patch.ErrMissingPatchData, name)
	return
}

func (fm *FlowModel) DerivedCellData(dv DerivedVariable) (cd *patch.CellData, err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	e, ok := fm.derived[dv]
	if !ok {
		err = fmt.Errorf("%w: %s is not registered", patch.ErrMissingPatchData, dv)
		return
	}
	if !e.computed {
		err = fmt.Errorf("%w: %s", ErrDerivedNotComputed, dv)
		return
	}
	cd = e.data
	return
}

func (fm *FlowModel) ConservativeCellData() (cons []*patch.CellData, err error) {
	if err = fm.checkRegistered(); err != nil {
		return
	}
	cons = fm.conservative
	return
}

// GatherConservative copies the conserved vector of cell (i,j,k)
func (fm *FlowModel) GatherConservative(cons []float64, i, j, k int) {
	var n int
	for _, cd := range fm.conservative {
		ind := cd.Index(i, j, k)
		for c := 0; c < cd.Depth; c++ {
			cons[n] = cd.Data[c][ind]
			n++
		}
	}
}

// massAndVolumeFractions returns the cell data passed to the mixing rules
func (fm *FlowModel) massAndVolumeFractions() (Y, Z *patch.CellData) {
	if fm.NS > 1 {
		Y = fm.derived[MASS_FRACTIONS].data
		if fm.Type == FIVE_EQN_ALLAIRE {
			Z = fm.conservative[3]
		}
	}
	return
}

func (fm *FlowModel) computeDerived(dv DerivedVariable, out *patch.CellData, region patch.Box) (err error) {
	var (
		cons = fm.conservative
		mom  = cons[1]
		ener = cons[2]
		get  = func(v DerivedVariable) *patch.CellData { return fm.derived[v].data }
	)
	switch dv {
	case DENSITY:
		rhoY := cons[0]
		patch.ForEachCell(region, func(i, j, k int) {
			var (
				ind = rhoY.Index(i, j, k)
				rho float64
			)
			for n := 0; n < fm.NS; n++ {
				rho += rhoY.Data[n][ind]
			}
			out.Data[0][out.Index(i, j, k)] = rho
		})
		return fm.checkPositive(out, region, "density", nil)
	case MASS_FRACTIONS:
		var (
			rhoY = cons[0]
			rho  = get(DENSITY)
		)
		patch.ForEachCell(region, func(i, j, k int) {
			var (
				ind  = out.Index(i, j, k)
				indC = rhoY.Index(i, j, k)
				r    = rho.Data[0][rho.Index(i, j, k)]
			)
			for n := 0; n < fm.NS; n++ {
				out.Data[n][ind] = rhoY.Data[n][indC] / r
			}
		})
	case VELOCITY:
		rho := get(DENSITY)
		patch.ForEachCell(region, func(i, j, k int) {
			var (
				ind  = out.Index(i, j, k)
				indC = mom.Index(i, j, k)
				r    = rho.Data[0][rho.Index(i, j, k)]
			)
			for d := 0; d < fm.Dim; d++ {
				out.Data[d][ind] = mom.Data[d][indC] / r
			}
		})
	case INTERNAL_ENERGY:
		var (
			rho = get(DENSITY)
			vel = get(VELOCITY)
		)
		patch.ForEachCell(region, func(i, j, k int) {
			var (
				indV = vel.Index(i, j, k)
				ke   float64
			)
			for d := 0; d < fm.Dim; d++ {
				ke += vel.Data[d][indV] * vel.Data[d][indV]
			}
			out.Data[0][out.Index(i, j, k)] = ener.Data[0][ener.Index(i, j, k)]/
				rho.Data[0][rho.Index(i, j, k)] - 0.5*ke
		})
	case PRESSURE:
		Y, Z := fm.massAndVolumeFractions()
		if err = fm.mixing.ComputePressure(out, get(DENSITY), get(INTERNAL_ENERGY), Y, Z, region); err != nil {
			return
		}
		return fm.checkPositive(out, region, "pressure", fm.pressureShift(Y, Z))
	case SOUND_SPEED:
		Y, Z := fm.massAndVolumeFractions()
		return fm.mixing.ComputeSoundSpeed(out, get(DENSITY), get(PRESSURE), Y, Z, region)
	case TEMPERATURE:
		Y, Z := fm.massAndVolumeFractions()
		return fm.mixing.ComputeTemperature(out, get(DENSITY), get(PRESSURE), Y, Z, region)
	case MAX_WAVE_SPEED_X, MAX_WAVE_SPEED_Y, MAX_WAVE_SPEED_Z:
		var (
			d   = int(dv - MAX_WAVE_SPEED_X)
			vel = get(VELOCITY)
			c   = get(SOUND_SPEED)
		)
		patch.ForEachCell(region, func(i, j, k int) {
			out.Data[0][out.Index(i, j, k)] = math.Abs(vel.Data[d][vel.Index(i, j, k)]) +
				c.Data[0][c.Index(i, j, k)]
		})
	}
	return
}

// pressureShift returns the per cell amount that keeps p + shift positive
func (fm *FlowModel) pressureShift(Y, Z *patch.CellData) func(i, j, k int) float64 {
	if fm.mixing.EquationOfStateType() == eos.IDEAL_GAS {
		return nil
	}
	var (
		yBuf, zBuf []float64
	)
	if Y != nil {
		yBuf = make([]float64, Y.Depth)
	}
	if Z != nil {
		zBuf = make([]float64, Z.Depth)
	}
	return func(i, j, k int) float64 {
		if Y != nil {
			ind := Y.Index(i, j, k)
			for n := range yBuf {
				yBuf[n] = Y.Data[n][ind]
			}
		}
		if Z != nil {
			ind := Z.Index(i, j, k)
			for n := range zBuf {
				zBuf[n] = Z.Data[n][ind]
			}
		}
		return fm.mixing.EquationOfState().PressureShift(fm.mixture(yBuf, zBuf))
	}
}

func (fm *FlowModel) checkPositive(cd *patch.CellData, region patch.Box, name string,
	shift func(i, j, k int) float64) (err error) {
	patch.ForEachCell(region, func(i, j, k int) {
		if err != nil {
			return
		}
		v := cd.Data[0][cd.Index(i, j, k)]
		if shift != nil {
			v += shift(i, j, k)
		}
		if math.IsNaN(v) || v <= 0 {
			err = fmt.Errorf("%w: %s = %g at cell (%d,%d,%d) of patch %d", ErrNonPhysicalState,
				name, cd.Data[0][cd.Index(i, j, k)], i, j, k, fm.patch.Number)
		}
	})
	return
}
