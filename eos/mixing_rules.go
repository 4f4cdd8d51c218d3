package eos

import (
	"errors"
	"fmt"
	"io"

	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/restart"
)

var ErrBoxNotCovered = errors.New("field does not cover the computation box")

// MixingRules composites per species properties into mixture properties
// under the closure assumption. Implementations are read-only after
// construction and safe to share between concurrent patch computations.
//
// Y holds mass fractions and Z volume fractions, either may be nil when the
// closure does not use it.
type MixingRules interface {
	EquationOfStateType() EquationOfStateType
	MixingClosureModel() MixingClosureModel
	EquationOfState() EquationOfState
	NumberOfSpecies() int
	NumberOfSpeciesMolecularProperties() int
	SpeciesMolecularProperties(out []float64, species int)
	MixtureThermodynamicProperties(out, Y, Z []float64)

	Pressure(rho, epsilon float64, Y, Z []float64) float64
	InternalEnergy(rho, p float64, Y, Z []float64) float64
	SoundSpeed(rho, p float64, Y, Z []float64) float64
	Temperature(rho, p float64, Y, Z []float64) float64
	InternalEnergyFromTemperature(rho, T float64, Y, Z []float64) float64
	IsobaricSpecificHeat(Y, Z []float64) float64
	PressureShift(Y, Z []float64) float64

	ComputePressure(out, rho, epsilon, Y, Z *patch.CellData, box patch.Box) error
	ComputeSoundSpeed(out, rho, p, Y, Z *patch.CellData, box patch.Box) error
	ComputeTemperature(out, rho, p, Y, Z *patch.CellData, box patch.Box) error

	PrintClassData(w io.Writer)
	PutToRestart(db *restart.Database)
}

type mixingRules struct {
	eosType       EquationOfStateType
	closure       MixingClosureModel
	ns            int
	eos           EquationOfState
	species       [][]float64 // [species][property]
	propertyNames []string    // configuration names written to restart
	inputs        map[string][]float64
	mixture       func(out, Y, Z []float64)
}

func (mr *mixingRules) EquationOfStateType() EquationOfStateType { return mr.eosType }

func (mr *mixingRules) MixingClosureModel() MixingClosureModel { return mr.closure }

func (mr *mixingRules) EquationOfState() EquationOfState { return mr.eos }

func (mr *mixingRules) NumberOfSpecies() int { return mr.ns }

func (mr *mixingRules) NumberOfSpeciesMolecularProperties() int {
	return mr.eos.NumberOfThermodynamicProperties()
}

func (mr *mixingRules) SpeciesMolecularProperties(out []float64, species int) {
	if species < 0 || species >= mr.ns {
		panic(fmt.Errorf("species index %d out of range [0,%d)", species, mr.ns))
	}
	copy(out, mr.species[species])
}

func (mr *mixingRules) MixtureThermodynamicProperties(out, Y, Z []float64) {
	mr.mixture(out, Y, Z)
}

func (mr *mixingRules) props(Y, Z []float64) (props []float64) {
	props = make([]float64, mr.eos.NumberOfThermodynamicProperties())
	mr.mixture(props, Y, Z)
	return
}

func (mr *mixingRules) Pressure(rho, epsilon float64, Y, Z []float64) float64 {
	return mr.eos.Pressure(rho, epsilon, mr.props(Y, Z))
}

func (mr *mixingRules) InternalEnergy(rho, p float64, Y, Z []float64) float64 {
	return mr.eos.InternalEnergy(rho, p, mr.props(Y, Z))
}

func (mr *mixingRules) SoundSpeed(rho, p float64, Y, Z []float64) float64 {
	return mr.eos.SoundSpeed(rho, p, mr.props(Y, Z))
}

func (mr *mixingRules) Temperature(rho, p float64, Y, Z []float64) float64 {
	return mr.eos.Temperature(rho, p, mr.props(Y, Z))
}

func (mr *mixingRules) InternalEnergyFromTemperature(rho, T float64, Y, Z []float64) float64 {
	return mr.eos.InternalEnergyFromTemperature(rho, T, mr.props(Y, Z))
}

func (mr *mixingRules) IsobaricSpecificHeat(Y, Z []float64) float64 {
	return mr.eos.IsobaricSpecificHeat(mr.props(Y, Z))
}

func (mr *mixingRules) PressureShift(Y, Z []float64) float64 {
	return mr.eos.PressureShift(mr.props(Y, Z))
}

func (mr *mixingRules) ComputePressure(out, rho, epsilon, Y, Z *patch.CellData, box patch.Box) error {
	return mr.computeOnBox(out, rho, epsilon, Y, Z, box, mr.eos.Pressure)
}

func (mr *mixingRules) ComputeSoundSpeed(out, rho, p, Y, Z *patch.CellData, box patch.Box) error {
	return mr.computeOnBox(out, rho, p, Y, Z, box, mr.eos.SoundSpeed)
}

func (mr *mixingRules) ComputeTemperature(out, rho, p, Y, Z *patch.CellData, box patch.Box) error {
	return mr.computeOnBox(out, rho, p, Y, Z, box, mr.eos.Temperature)
}

func covers(box patch.Box, fields ...*patch.CellData) error {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if !f.GhostBox().Contains(box) {
			return fmt.Errorf("%w: field %s, box %s", ErrBoxNotCovered, f.GhostBox(), box)
		}
	}
	return nil
}

func (mr *mixingRules) computeOnBox(out, a, b, Y, Z *patch.CellData, box patch.Box,
	f func(a, b float64, props []float64) float64) (err error) {
	var (
		props = make([]float64, mr.eos.NumberOfThermodynamicProperties())
		yBuf  []float64
		zBuf  []float64
	)
	if err = covers(box, out, a, b, Y, Z); err != nil {
		return
	}
	if Y != nil {
		yBuf = make([]float64, Y.Depth)
	}
	if Z != nil {
		zBuf = make([]float64, Z.Depth)
	}
	if Y == nil && Z == nil {
		mr.mixture(props, nil, nil)
	}
	patch.ForEachCell(box, func(i, j, k int) {
		if Y != nil || Z != nil {
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
			mr.mixture(props, yBuf, zBuf)
		}
		out.Data[0][out.Index(i, j, k)] = f(a.Data[0][a.Index(i, j, k)], b.Data[0][b.Index(i, j, k)], props)
	})
	return
}

func (mr *mixingRules) PrintClassData(w io.Writer) {
	fmt.Fprintf(w, "EquationOfStateMixingRules\n")
	fmt.Fprintf(w, "[%s]\t\t= Equation of State\n", mr.eosType)
	fmt.Fprintf(w, "[%s]\t\t= Mixing Closure Model\n", mr.closure)
	fmt.Fprintf(w, "[%d]\t\t\t= Number of Species\n", mr.ns)
	for _, name := range mr.propertyNames {
		fmt.Fprintf(w, "species_%s = %v\n", name, mr.inputs[name])
	}
}

func (mr *mixingRules) PutToRestart(db *restart.Database) {
	db.PutString("equation_of_state", mr.eosType.String())
	db.PutString("mixing_closure_model", mr.closure.String())
	db.PutInteger("number_of_species", mr.ns)
	for _, name := range mr.propertyNames {
		db.PutDoubleArray("species_"+name, mr.inputs[name])
	}
}

// speciesInput fetches one property array, optional ones default to zero
func speciesInput(species map[string][]float64, name string, ns int, required bool) (vals []float64, err error) {
	var ok bool
	if vals, ok = species[name]; !ok {
		if required {
			err = fmt.Errorf("%w: %q is missing", ErrSpeciesProperties, name)
			return
		}
		vals = make([]float64, ns)
		return
	}
	if len(vals) != ns {
		err = fmt.Errorf("%w: %q has %d entries, expected %d", ErrSpeciesProperties,
			name, len(vals), ns)
	}
	return
}

func checkClosure(closure MixingClosureModel, ns int) error {
	if ns < 1 {
		return fmt.Errorf("%w: number of species = %d", ErrSpeciesProperties, ns)
	}
	if ns > 1 && closure == NO_ASSUMPTION {
		return fmt.Errorf("%w: %s requires a single species, got %d", ErrUnsupportedClosure,
			closure, ns)
	}
	return nil
}

func weights(Y, Z []float64) []float64 {
	if Y != nil {
		return Y
	}
	return Z
}
