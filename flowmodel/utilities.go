package flowmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/restart"
)

// DiffusiveFluxUtilities provides the mixture transport properties. Each
// species has a constant dynamic viscosity and Prandtl number, the mixture
// values are mass fraction weighted and k = mu Cp / Pr.
type DiffusiveFluxUtilities struct {
	fm        *FlowModel
	viscosity []float64
	prandtl   []float64
}

func (fm *FlowModel) SetupDiffusiveFluxUtilities(viscosity, prandtl []float64) (err error) {
	if len(viscosity) != fm.NS || len(prandtl) != fm.NS {
		return fmt.Errorf("%w: %d viscosities and %d Prandtl numbers for %d species",
			ErrUnsupportedModel, len(viscosity), len(prandtl), fm.NS)
	}
	for n := 0; n < fm.NS; n++ {
		if viscosity[n] < 0 || prandtl[n] <= 0 {
			return fmt.Errorf("%w: species %d has viscosity %g, Prandtl number %g",
				ErrUnsupportedModel, n, viscosity[n], prandtl[n])
		}
	}
	fm.diffusive = &DiffusiveFluxUtilities{
		fm:        fm,
		viscosity: append([]float64{}, viscosity...),
		prandtl:   append([]float64{}, prandtl...),
	}
	return
}

func (fm *FlowModel) DiffusiveFluxUtilities() *DiffusiveFluxUtilities { return fm.diffusive }

func (du *DiffusiveFluxUtilities) RegisterDerivedVariablesForDiffusiveFluxes(ghost patch.IntVector) error {
	vars := []DerivedVariable{VELOCITY, TEMPERATURE}
	if du.fm.NS > 1 {
		vars = append(vars, MASS_FRACTIONS)
	}
	return du.fm.RegisterDerivedVariables(vars, ghost)
}

func (du *DiffusiveFluxUtilities) weighted(vals, Y []float64) float64 {
	if du.fm.NS == 1 {
		return vals[0]
	}
	return floats.Dot(vals, Y)
}

// ShearViscosity is the mixture dynamic viscosity, Y may be nil for one species
func (du *DiffusiveFluxUtilities) ShearViscosity(Y []float64) float64 {
	return du.weighted(du.viscosity, Y)
}

func (du *DiffusiveFluxUtilities) ThermalConductivity(Y, Z []float64) float64 {
	var (
		mu = du.ShearViscosity(Y)
		pr = du.weighted(du.prandtl, Y)
	)
	if du.fm.NS == 1 {
		Y, Z = nil, nil
	}
	return mu * du.fm.mixing.EquationOfState().IsobaricSpecificHeat(du.fm.mixture(Y, Z)) / pr
}

// SourceUtilities evaluates the gravity source
//
//	S(rho u_d) = rho g_d,  S(E) = rho u.g
type SourceUtilities struct {
	fm      *FlowModel
	gravity [3]float64
	enabled bool
}

func (fm *FlowModel) SetupSourceUtilities(enabled bool, vector []float64) (err error) {
	su := &SourceUtilities{
		fm:      fm,
		enabled: enabled,
	}
	if enabled {
		if len(vector) != fm.Dim {
			return fmt.Errorf("%w: gravity vector has %d entries, dimension is %d",
				ErrUnsupportedModel, len(vector), fm.Dim)
		}
		copy(su.gravity[:], vector)
	}
	fm.source = su
	return
}

func (fm *FlowModel) SourceUtilities() *SourceUtilities { return fm.source }

func (su *SourceUtilities) HasGravity() bool { return su.enabled }

func (su *SourceUtilities) Gravity() []float64 { return su.gravity[:su.fm.Dim] }

func (su *SourceUtilities) RegisterDerivedVariablesForSourceTerms() error {
	if !su.enabled {
		return nil
	}
	return su.fm.RegisterDerivedVariables([]DerivedVariable{DENSITY, VELOCITY}, patch.IntVector{})
}

// ComputeSourceOnPatch adds dt times the source to source over the interior
// cells of the subdomain. The derived cell data must be computed.
func (su *SourceUtilities) ComputeSourceOnPatch(source *patch.CellData, t, dt float64, stage int) (err error) {
	var (
		fm       = su.fm
		rho, vel *patch.CellData
	)
	if err = fm.checkRegistered(); err != nil {
		return
	}
	if !su.enabled {
		return
	}
	if source.Depth != fm.NumberOfEquations() {
		return fmt.Errorf("%w: source depth %d, expected %d", patch.ErrMissingPatchData,
			source.Depth, fm.NumberOfEquations())
	}
	if rho, err = fm.DerivedCellData(DENSITY); err != nil {
		return
	}
	if vel, err = fm.DerivedCellData(VELOCITY); err != nil {
		return
	}
	var (
		iMom = fm.MomentumIndex()
		iE   = fm.EnergyIndex()
	)
	patch.ForEachCell(fm.patch.Box.Intersect(fm.subdomain), func(i, j, k int) {
		var (
			ind  = source.Index(i, j, k)
			r    = rho.Data[0][rho.Index(i, j, k)]
			indV = vel.Index(i, j, k)
			work float64
		)
		for d := 0; d < fm.Dim; d++ {
			source.Data[iMom+d][ind] += dt * r * su.gravity[d]
			work += vel.Data[d][indV] * su.gravity[d]
		}
		source.Data[iE][ind] += dt * r * work
	})
	return
}

func (su *SourceUtilities) PutToRestart(db *restart.Database) {
	db.PutBool("has_gravity", su.enabled)
	if su.enabled {
		db.PutDoubleArray("gravity", su.Gravity())
	}
}

func (su *SourceUtilities) GetFromRestart(db *restart.Database) (err error) {
	var (
		g []float64
	)
	if su.enabled, err = db.GetBool("has_gravity"); err != nil || !su.enabled {
		return
	}
	if g, err = db.GetDoubleArray("gravity"); err != nil {
		return
	}
	if len(g) != su.fm.Dim {
		return fmt.Errorf("%w: gravity has %d entries, dimension is %d", ErrRestartMismatch,
			len(g), su.fm.Dim)
	}
	su.gravity = [3]float64{}
	copy(su.gravity[:], g)
	return
}

type Statistics struct {
	Mass          float64
	Momentum      [3]float64
	TotalEnergy   float64
	KineticEnergy float64
	MaxMachNumber float64
	MinPressure   float64
}

func (s Statistics) String() string {
	return fmt.Sprintf("mass = %g, momentum = %v, total energy = %g, kinetic energy = %g, "+
		"max Mach = %g, min pressure = %g", s.Mass, s.Momentum, s.TotalEnergy,
		s.KineticEnergy, s.MaxMachNumber, s.MinPressure)
}

// StatisticsUtilities reduces the interior state of a patch to volume
// integrals and extrema
type StatisticsUtilities struct {
	fm *FlowModel
}

func (fm *FlowModel) SetupStatisticsUtilities() {
	fm.stats = &StatisticsUtilities{fm: fm}
}

func (fm *FlowModel) StatisticsUtilities() *StatisticsUtilities { return fm.stats }

func (st *StatisticsUtilities) RegisterDerivedVariablesForStatistics() error {
	return st.fm.RegisterDerivedVariables(
		[]DerivedVariable{DENSITY, VELOCITY, PRESSURE, SOUND_SPEED}, patch.IntVector{})
}

func (st *StatisticsUtilities) ComputeStatistics() (s Statistics, err error) {
	var (
		fm            = st.fm
		rho, vel, p   *patch.CellData
		c             *patch.CellData
		mass, energy  []float64
		kinetic, mach []float64
		pressure      []float64
		mom           [3][]float64
	)
	if err = fm.checkRegistered(); err != nil {
		return
	}
	for _, f := range []struct {
		dv  DerivedVariable
		out **patch.CellData
	}{{DENSITY, &rho}, {VELOCITY, &vel}, {PRESSURE, &p}, {SOUND_SPEED, &c}} {
		if *f.out, err = fm.DerivedCellData(f.dv); err != nil {
			return
		}
	}
	var (
		ener = fm.conservative[2]
		vol  = fm.patch.Geometry.CellVolume(fm.Dim)
	)
	patch.ForEachCell(fm.patch.Box, func(i, j, k int) {
		var (
			r    = rho.Data[0][rho.Index(i, j, k)]
			indV = vel.Index(i, j, k)
			u2   float64
		)
		for d := 0; d < fm.Dim; d++ {
			u := vel.Data[d][indV]
			mom[d] = append(mom[d], r*u*vol)
			u2 += u * u
		}
		mass = append(mass, r*vol)
		energy = append(energy, ener.Data[0][ener.Index(i, j, k)]*vol)
		kinetic = append(kinetic, 0.5*r*u2*vol)
		mach = append(mach, math.Sqrt(u2)/c.Data[0][c.Index(i, j, k)])
		pressure = append(pressure, p.Data[0][p.Index(i, j, k)])
	})
	if len(mass) == 0 {
		return
	}
	s.Mass = floats.Sum(mass)
	for d := 0; d < fm.Dim; d++ {
		s.Momentum[d] = floats.Sum(mom[d])
	}
	s.TotalEnergy = floats.Sum(energy)
	s.KineticEnergy = floats.Sum(kinetic)
	s.MaxMachNumber = floats.Max(mach)
	s.MinPressure = floats.Min(pressure)
	return
}
