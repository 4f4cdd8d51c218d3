// Package integrator drives one Runge-Kutta stage on a set of patches: it
// computes the fluxes and sources of each patch, and the quantities the
// outer time loop and the refinement tagging need.
package integrator

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/flux"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/restart"
	"github.com/notargets/amrflow/sensor"
	"github.com/notargets/amrflow/utils"
)

// PatchIntegrator owns one flow model, so it works on one patch at a time.
// Concurrent sweeps use one PatchIntegrator per worker.
type PatchIntegrator struct {
	Mixing    *eos.MixingRulesManager
	FlowModel *flowmodel.FlowModel
	Fluxes    *flux.Manager
	Sensors   []SensorField
	Log       logrus.FieldLogger
}

// SensorField applies a gradient sensor to a derived or conservative variable
type SensorField struct {
	Sensor   sensor.GradientSensor
	Variable string
}

func (sf SensorField) Name() string { return sf.Sensor.Name() + "_" + sf.Variable }

func NewPatchIntegrator(ip *InputParameters.InputParametersFlow, mixing *eos.MixingRulesManager,
	log logrus.FieldLogger) (pi *PatchIntegrator, err error) {
	pi = &PatchIntegrator{Mixing: mixing, Log: log}
	if pi.Log == nil {
		pi.Log = logrus.StandardLogger()
	}
	if pi.FlowModel, err = flowmodel.NewFlowModelFromInput(ip, mixing.MixingRules()); err != nil {
		return nil, err
	}
	if pi.Fluxes, err = flux.NewManager(ip, pi.FlowModel); err != nil {
		return nil, err
	}
	for _, sp := range ip.GradientSensors {
		var gs sensor.GradientSensor
		if gs, err = sensor.NewGradientSensor(sp.Type, ip.Dimension); err != nil {
			return nil, err
		}
		pi.Sensors = append(pi.Sensors, SensorField{Sensor: gs, Variable: sp.Variable})
	}
	return
}

func (pi *PatchIntegrator) PrintClassData(w io.Writer) {
	pi.FlowModel.PrintClassData(w)
	pi.Fluxes.PrintClassData(w)
	for _, sf := range pi.Sensors {
		fmt.Fprintf(w, "[%s]\t\t= Gradient Sensor on %s\n", sf.Sensor.Name(), sf.Variable)
	}
}

func (pi *PatchIntegrator) PutToRestart(db *restart.Database) {
	pi.FlowModel.PutToRestart(db.PutDatabase("FlowModel"))
	pi.Mixing.PutToRestart(db)
	pi.Fluxes.PutToRestart(db.PutDatabase("FluxReconstructorManager"))
}

// CheckRestart compares every discriminant of a restart record with the
// configured components
func (pi *PatchIntegrator) CheckRestart(db *restart.Database) (err error) {
	var (
		child *restart.Database
	)
	if child, err = db.GetDatabase("FlowModel"); err != nil {
		return
	}
	if err = pi.FlowModel.CheckRestart(child); err != nil {
		return
	}
	if err = pi.Mixing.CheckRestart(db); err != nil {
		return
	}
	if child, err = db.GetDatabase("FluxReconstructorManager"); err != nil {
		return
	}
	return pi.Fluxes.CheckRestart(child)
}

// ComputeFluxesAndSources returns dt times the face fluxes and the cell
// sources of p for one stage. The convective reconstructor writes the flux
// and the split source, the diffusive flux and gravity are added to them.
func (pi *PatchIntegrator) ComputeFluxesAndSources(p *patch.Patch, ctx patch.DataContext,
	t, dt float64, stage int) (fx *patch.SideData, source *patch.CellData, err error) {
	var (
		su = pi.FlowModel.SourceUtilities()
	)
	if fx, source, err = pi.computeFluxes(p, ctx, t, dt, stage); err != nil {
		return
	}
	if su != nil && su.HasGravity() {
		if err = pi.withPatch(p, ctx, func() error {
			if err := su.RegisterDerivedVariablesForSourceTerms(); err != nil {
				return err
			}
			if err := pi.FlowModel.ComputeDerivedCellData(); err != nil {
				return err
			}
			return su.ComputeSourceOnPatch(source, t, dt, stage)
		}); err != nil {
			return nil, nil, err
		}
	}
	pi.logStage(p, t, stage)
	return
}

// ComputeStage is ComputeFluxesAndSources plus the stable time step and the
// statistics of p. The variables of the time step, the statistics and the
// gravity source are derived together in one registration of the patch.
func (pi *PatchIntegrator) ComputeStage(p *patch.Patch, ctx patch.DataContext,
	t, dt, cfl float64, stage int) (r StageResult, err error) {
	var (
		fm = pi.FlowModel
		su = fm.SourceUtilities()
	)
	r.Patch = p
	if r.Flux, r.Source, err = pi.computeFluxes(p, ctx, t, dt, stage); err != nil {
		return
	}
	err = pi.withPatch(p, ctx, func() (err error) {
		if err = fm.BasicUtilities().RegisterDerivedVariablesForStableDt(); err != nil {
			return
		}
		if err = fm.StatisticsUtilities().RegisterDerivedVariablesForStatistics(); err != nil {
			return
		}
		if su != nil {
			if err = su.RegisterDerivedVariablesForSourceTerms(); err != nil {
				return
			}
		}
		if err = fm.ComputeDerivedCellData(); err != nil {
			return
		}
		if r.Dt, err = fm.BasicUtilities().ComputeStableDt(cfl); err != nil {
			return
		}
		if r.Stats, err = fm.StatisticsUtilities().ComputeStatistics(); err != nil {
			return
		}
		if su != nil {
			err = su.ComputeSourceOnPatch(r.Source, t, dt, stage)
		}
		return
	})
	if err != nil {
		return StageResult{}, err
	}
	pi.logStage(p, t, stage)
	return
}

// computeFluxes runs the convective then the diffusive reconstruction, the
// source holds the split source of the convective scheme
func (pi *PatchIntegrator) computeFluxes(p *patch.Patch, ctx patch.DataContext,
	t, dt float64, stage int) (fx *patch.SideData, source *patch.CellData, err error) {
	var (
		neq = pi.FlowModel.NumberOfEquations()
	)
	if err = pi.checkGhostWidth(p, ctx); err != nil {
		return
	}
	fx = patch.NewSideData(p.Box, neq)
	source = patch.NewCellData(p.Box, neq, patch.IntVector{})
	if err = pi.Fluxes.Convective.ComputeFluxAndSourceOnPatch(p, fx, source, ctx, t, dt, stage); err != nil {
		return nil, nil, err
	}
	if pi.Fluxes.Diffusive != nil {
		if err = pi.Fluxes.Diffusive.ComputeFluxOnPatch(p, fx, ctx, t, dt, stage); err != nil {
			return nil, nil, err
		}
	}
	return
}

func (pi *PatchIntegrator) logStage(p *patch.Patch, t float64, stage int) {
	pi.Log.WithFields(logrus.Fields{
		"patch":   p.Number,
		"stage":   stage,
		"time":    t,
		"derived": pi.FlowModel.NumberOfDerivations(),
	}).Debug("computed fluxes and sources")
}

// UpdateConservative applies Q += source - div(flux) over the interior of p
func (pi *PatchIntegrator) UpdateConservative(p *patch.Patch, ctx patch.DataContext,
	fx *patch.SideData, source *patch.CellData) (err error) {
	var (
		fm  = pi.FlowModel
		div = patch.NewCellData(p.Box, fm.NumberOfEquations(), patch.IntVector{})
	)
	fx.Divergence(p.Geometry, div, p.Box)
	return pi.withPatch(p, ctx, func() error {
		cons, err := fm.ConservativeCellData()
		if err != nil {
			return err
		}
		patch.ForEachCell(p.Box, func(i, j, k int) {
			var (
				n0   int
				indD = div.Index(i, j, k)
				indS = source.Index(i, j, k)
			)
			for _, cd := range cons {
				ind := cd.Index(i, j, k)
				for c := 0; c < cd.Depth; c++ {
					cd.Data[c][ind] += source.Data[n0+c][indS] - div.Data[n0+c][indD]
				}
				n0 += cd.Depth
			}
		})
		return nil
	})
}

// ComputeSensorFields evaluates every configured sensor over the interior of p
func (pi *PatchIntegrator) ComputeSensorFields(p *patch.Patch, ctx patch.DataContext) (fields map[string]*patch.CellData,
	err error) {
	var (
		fm    = pi.FlowModel
		ghost = patch.NewIntVector(p.Dim(), 1)
	)
	fields = make(map[string]*patch.CellData, len(pi.Sensors))
	err = pi.withPatch(p, ctx, func() (err error) {
		for _, sf := range pi.Sensors {
			var (
				in  *patch.CellData
				dv  flowmodel.DerivedVariable
				out = patch.NewCellData(p.Box, 1, patch.IntVector{})
			)
			if dv, err = flowmodel.NewDerivedVariable(sf.Variable); err == nil {
				if err = fm.RegisterDerivedVariables([]flowmodel.DerivedVariable{dv}, ghost); err != nil {
					return
				}
				if err = fm.ComputeDerivedCellData(); err != nil {
					return
				}
			}
			if in, err = fm.CellData(sf.Variable); err != nil {
				return
			}
			if err = sf.Sensor.ComputeGradient(p, in, out, 0); err != nil {
				return
			}
			fields[sf.Name()] = out
		}
		return
	})
	return
}

func (pi *PatchIntegrator) withPatch(p *patch.Patch, ctx patch.DataContext, f func() error) (err error) {
	if err = pi.FlowModel.RegisterPatch(p, ctx); err != nil {
		return
	}
	defer pi.FlowModel.UnregisterPatch()
	return f()
}

func (pi *PatchIntegrator) checkGhostWidth(p *patch.Patch, ctx patch.DataContext) (err error) {
	var (
		names = pi.FlowModel.ConservativeVariableNames()
		need  = patch.NewIntVector(p.Dim(), pi.Fluxes.NumberOfGhostCells())
		cd    *patch.CellData
	)
	if cd, err = p.CellData(names[0], ctx); err != nil {
		return
	}
	if !cd.Ghost.GreaterOrEqual(need, p.Dim()) {
		err = fmt.Errorf("%w: patch %d carries %v ghost cells, flux reconstruction needs %v",
			flowmodel.ErrInsufficientGhostWidth, p.Number, cd.Ghost, need)
	}
	return
}

type StageResult struct {
	Patch  *patch.Patch
	Flux   *patch.SideData
	Source *patch.CellData
	Dt     float64
	Stats  flowmodel.Statistics
}

// SweepPatches computes one stage on all patches, splitting them over one
// goroutine per integrator. Results are in patch order, errors of all
// workers are combined.
func SweepPatches(workers []*PatchIntegrator, patches []*patch.Patch, ctx patch.DataContext,
	t, dt, cfl float64, stage int) (results []StageResult, err error) {
	var (
		np   = min(len(workers), len(patches))
		wg   = sync.WaitGroup{}
		errs = make([]error, np)
	)
	if np == 0 {
		return
	}
	results = make([]StageResult, len(patches))
	pm := utils.NewPartitionMap(np, len(patches))
	for n := 0; n < np; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var (
				pi         = workers[n]
				kMin, kMax = pm.GetBucketRange(n)
			)
			for k := kMin; k < kMax; k++ {
				r, err := pi.ComputeStage(patches[k], ctx, t, dt, cfl, stage)
				if err != nil {
					errs[n] = multierr.Append(errs[n], err)
					continue
				}
				results[k] = r
			}
		}(n)
	}
	wg.Wait()
	if err = multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return
}

// MergeStatistics sums the integrals and keeps the extremes of the patch statistics
func MergeStatistics(results []StageResult) (s flowmodel.Statistics) {
	s.MinPressure = math.Inf(1)
	for _, r := range results {
		s.Mass += r.Stats.Mass
		for d := range s.Momentum {
			s.Momentum[d] += r.Stats.Momentum[d]
		}
		s.TotalEnergy += r.Stats.TotalEnergy
		s.KineticEnergy += r.Stats.KineticEnergy
		s.MaxMachNumber = math.Max(s.MaxMachNumber, r.Stats.MaxMachNumber)
		s.MinPressure = math.Min(s.MinPressure, r.Stats.MinPressure)
	}
	return
}

// StableDt is the smallest time step over the results
func StableDt(results []StageResult) (dt float64) {
	dt = math.Inf(1)
	for _, r := range results {
		dt = math.Min(dt, r.Dt)
	}
	return
}
