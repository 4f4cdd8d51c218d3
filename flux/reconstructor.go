// Package flux reconstructs the numerical fluxes at the cell faces of a patch.
// Fluxes are stored multiplied by dt so that the update of a cell is
// Q -= sum_d (F(i+1/2) - F(i-1/2))/dx_d, followed by adding the sources.
package flux

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/restart"
)

var ErrUnknownScheme = errors.New("unknown flux reconstruction scheme")

type ConvectiveFluxType uint8

const (
	FIRST_ORDER ConvectiveFluxType = iota
	WENO5_JS
)

var (
	ConvectiveFluxNames = map[string]ConvectiveFluxType{
		"first_order": FIRST_ORDER,
		"weno5_js":    WENO5_JS,
		"weno5-js":    WENO5_JS,
		"weno_js":     WENO5_JS,
	}
	ConvectiveFluxPrintNames = []string{"FIRST_ORDER", "WENO5_JS"}
)

func (ct ConvectiveFluxType) String() string { return ConvectiveFluxPrintNames[ct] }

func NewConvectiveFluxType(label string) (ct ConvectiveFluxType, err error) {
	var ok bool
	if ct, ok = ConvectiveFluxNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: convective %q, expected one of %v", ErrUnknownScheme,
			label, ConvectiveFluxPrintNames)
	}
	return
}

type DiffusiveFluxType uint8

const (
	SECOND_ORDER DiffusiveFluxType = iota
)

var (
	DiffusiveFluxNames = map[string]DiffusiveFluxType{
		"second_order": SECOND_ORDER,
	}
	DiffusiveFluxPrintNames = []string{"SECOND_ORDER"}
)

func (dt DiffusiveFluxType) String() string { return DiffusiveFluxPrintNames[dt] }

func NewDiffusiveFluxType(label string) (dt DiffusiveFluxType, err error) {
	var ok bool
	if dt, ok = DiffusiveFluxNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: diffusive %q, expected one of %v", ErrUnknownScheme,
			label, DiffusiveFluxPrintNames)
	}
	return
}

// ConvectiveFluxReconstructor overwrites flux with dt times the convective
// flux and adds the split source of non conservative equations to source
type ConvectiveFluxReconstructor interface {
	Type() ConvectiveFluxType
	NumberOfGhostCells() int
	ComputeFluxAndSourceOnPatch(p *patch.Patch, flux *patch.SideData, source *patch.CellData,
		ctx patch.DataContext, t, dt float64, stage int) error
	PrintClassData(w io.Writer)
	PutToRestart(db *restart.Database)
}

// DiffusiveFluxReconstructor adds dt times the diffusive flux to flux
type DiffusiveFluxReconstructor interface {
	Type() DiffusiveFluxType
	NumberOfGhostCells() int
	ComputeFluxOnPatch(p *patch.Patch, flux *patch.SideData, ctx patch.DataContext,
		t, dt float64, stage int) error
	PrintClassData(w io.Writer)
	PutToRestart(db *restart.Database)
}

func NewConvectiveFluxReconstructor(params InputParameters.ConvectiveFluxParameters,
	fm *flowmodel.FlowModel) (cr ConvectiveFluxReconstructor, err error) {
	var (
		ct ConvectiveFluxType
	)
	if ct, err = NewConvectiveFluxType(params.Type); err != nil {
		return
	}
	if fm.RiemannSolver() == nil || fm.BasicUtilities() == nil {
		err = fmt.Errorf("%w: flow model has no Riemann solver or basic utilities",
			flowmodel.ErrUnsupportedModel)
		return
	}
	switch ct {
	case FIRST_ORDER:
		cr = NewFirstOrderReconstructor(fm)
	case WENO5_JS:
		cr = NewWENO5JSReconstructor(fm, params.Characteristic, params.Epsilon, params.Exponent)
	}
	return
}

// NewDiffusiveFluxReconstructor returns nil without error when no diffusive
// scheme is configured
func NewDiffusiveFluxReconstructor(params InputParameters.DiffusiveFluxParameters,
	fm *flowmodel.FlowModel) (dr DiffusiveFluxReconstructor, err error) {
	var (
		dt DiffusiveFluxType
	)
	if len(params.Type) == 0 {
		return
	}
	if dt, err = NewDiffusiveFluxType(params.Type); err != nil {
		return
	}
	if fm.DiffusiveFluxUtilities() == nil {
		err = fmt.Errorf("%w: %s needs diffusive flux utilities", flowmodel.ErrUnsupportedModel, dt)
		return
	}
	dr = NewSecondOrderDiffusiveReconstructor(fm)
	return
}

// Manager owns the reconstructors of one flow model
type Manager struct {
	Convective ConvectiveFluxReconstructor
	Diffusive  DiffusiveFluxReconstructor
}

func NewManager(ip *InputParameters.InputParametersFlow, fm *flowmodel.FlowModel) (m *Manager, err error) {
	m = &Manager{}
	if m.Convective, err = NewConvectiveFluxReconstructor(ip.ConvectiveFluxReconstructor, fm); err != nil {
		return nil, err
	}
	if m.Diffusive, err = NewDiffusiveFluxReconstructor(ip.DiffusiveFluxReconstructor, fm); err != nil {
		return nil, err
	}
	return
}

func (m *Manager) ConvectiveFluxNumberOfGhostCells() int { return m.Convective.NumberOfGhostCells() }

func (m *Manager) DiffusiveFluxNumberOfGhostCells() int {
	if m.Diffusive == nil {
		return 0
	}
	return m.Diffusive.NumberOfGhostCells()
}

// NumberOfGhostCells is the halo width a patch must carry for both reconstructors
func (m *Manager) NumberOfGhostCells() int {
	return max(m.ConvectiveFluxNumberOfGhostCells(), m.DiffusiveFluxNumberOfGhostCells())
}

func (m *Manager) PrintClassData(w io.Writer) {
	m.Convective.PrintClassData(w)
	if m.Diffusive != nil {
		m.Diffusive.PrintClassData(w)
	}
}

func (m *Manager) PutToRestart(db *restart.Database) {
	m.Convective.PutToRestart(db.PutDatabase("ConvectiveFluxReconstructor"))
	if m.Diffusive != nil {
		m.Diffusive.PutToRestart(db.PutDatabase("DiffusiveFluxReconstructor"))
	}
}

// CheckRestart compares the scheme names stored in a restart record with
// the configured reconstructors
func (m *Manager) CheckRestart(db *restart.Database) (err error) {
	var (
		child *restart.Database
		label string
	)
	if child, err = db.GetDatabase("ConvectiveFluxReconstructor"); err != nil {
		return
	}
	if label, err = child.GetString("convective_flux_reconstructor"); err != nil {
		return
	}
	if label != m.Convective.Type().String() {
		return fmt.Errorf("%w: convective_flux_reconstructor is %s, configured %s",
			flowmodel.ErrRestartMismatch, label, m.Convective.Type())
	}
	hasDiffusive := db.KeyExists("DiffusiveFluxReconstructor")
	if hasDiffusive != (m.Diffusive != nil) {
		return fmt.Errorf("%w: diffusive flux reconstructor present in restart = %v, configured = %v",
			flowmodel.ErrRestartMismatch, hasDiffusive, m.Diffusive != nil)
	}
	if !hasDiffusive {
		return
	}
	if child, err = db.GetDatabase("DiffusiveFluxReconstructor"); err != nil {
		return
	}
	if label, err = child.GetString("diffusive_flux_reconstructor"); err != nil {
		return
	}
	if label != m.Diffusive.Type().String() {
		return fmt.Errorf("%w: diffusive_flux_reconstructor is %s, configured %s",
			flowmodel.ErrRestartMismatch, label, m.Diffusive.Type())
	}
	return
}

// checkGhostWidth verifies the registered conserved data carry at least
// ghost cells in every direction
func checkGhostWidth(fm *flowmodel.FlowModel, ghost int) (err error) {
	var (
		have patch.IntVector
	)
	if have, err = fm.NumberOfGhostCells(); err != nil {
		return
	}
	if need := patch.NewIntVector(fm.Dim, ghost); !have.GreaterOrEqual(need, fm.Dim) {
		err = fmt.Errorf("%w: scheme needs %v ghost cells, patch data has %v",
			flowmodel.ErrInsufficientGhostWidth, need, have)
	}
	return
}

func checkOutputs(fm *flowmodel.FlowModel, p *patch.Patch, flux *patch.SideData,
	source *patch.CellData) error {
	neq := fm.NumberOfEquations()
	if !flux.Box.Equal(p.Box) || flux.Depth != neq {
		return fmt.Errorf("%w: flux %s depth %d, expected %s depth %d", patch.ErrMissingPatchData,
			flux.Box, flux.Depth, p.Box, neq)
	}
	if source != nil && (!source.GhostBox().Contains(p.Box) || source.Depth != neq) {
		return fmt.Errorf("%w: source %s depth %d, expected %s depth %d", patch.ErrMissingPatchData,
			source.GhostBox(), source.Depth, p.Box, neq)
	}
	return nil
}
