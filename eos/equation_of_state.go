// Package eos implements the single species closures and the mixing rules
// that composite them into mixture thermodynamics.
package eos

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownEquationOfState = errors.New("unknown equation of state")
	ErrUnknownClosureModel    = errors.New("unknown mixing closure model")
	ErrUnsupportedClosure     = errors.New("mixing closure not supported by equation of state")
	ErrSpeciesProperties      = errors.New("invalid species molecular properties")
	ErrRestartMismatch        = errors.New("restart record does not match configuration")
)

type EquationOfStateType uint8

const (
	IDEAL_GAS EquationOfStateType = iota
	STIFFENED_GAS
)

var (
	EquationOfStateNames = map[string]EquationOfStateType{
		"ideal_gas":     IDEAL_GAS,
		"stiffened_gas": STIFFENED_GAS,
	}
	EquationOfStatePrintNames = []string{"IDEAL_GAS", "STIFFENED_GAS"}
)

func (et EquationOfStateType) String() string { return EquationOfStatePrintNames[et] }

func NewEquationOfStateType(label string) (et EquationOfStateType, err error) {
	var ok bool
	if et, ok = EquationOfStateNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: %q, expected one of %v", ErrUnknownEquationOfState,
			label, EquationOfStatePrintNames)
	}
	return
}

type MixingClosureModel uint8

const (
	NO_ASSUMPTION MixingClosureModel = iota // single species
	ISOTHERMAL
	ISOBARIC
)

var (
	MixingClosureNames = map[string]MixingClosureModel{
		"no_assumption": NO_ASSUMPTION,
		"isothermal":    ISOTHERMAL,
		"isobaric":      ISOBARIC,
	}
	MixingClosurePrintNames = []string{"NO_ASSUMPTION", "ISOTHERMAL", "ISOBARIC"}
)

func (mc MixingClosureModel) String() string { return MixingClosurePrintNames[mc] }

func NewMixingClosureModel(label string) (mc MixingClosureModel, err error) {
	var ok bool
	if mc, ok = MixingClosureNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: %q, expected one of %v", ErrUnknownClosureModel,
			label, MixingClosurePrintNames)
	}
	return
}

// EquationOfState relates pressure, density and specific internal energy for
// one material described by its thermodynamic property vector
type EquationOfState interface {
	NumberOfThermodynamicProperties() int
	Pressure(rho, epsilon float64, props []float64) float64
	InternalEnergy(rho, p float64, props []float64) float64
	SoundSpeed(rho, p float64, props []float64) float64
	Temperature(rho, p float64, props []float64) float64
	InternalEnergyFromTemperature(rho, T float64, props []float64) float64
	IsochoricSpecificHeat(props []float64) float64
	IsobaricSpecificHeat(props []float64) float64
	// PressureShift is the amount added to p that must stay positive
	PressureShift(props []float64) float64
}

// IdealGas properties are [gamma, R, Cp, Cv]
type IdealGas struct{}

const (
	igGamma = iota
	igR
	igCp
	igCv
	igNumProperties
)

func (IdealGas) NumberOfThermodynamicProperties() int { return igNumProperties }

func (IdealGas) Pressure(rho, epsilon float64, props []float64) float64 {
	return (props[igGamma] - 1.) * rho * epsilon
}

func (IdealGas) InternalEnergy(rho, p float64, props []float64) float64 {
	return p / ((props[igGamma] - 1.) * rho)
}

func (IdealGas) SoundSpeed(rho, p float64, props []float64) float64 {
	return math.Sqrt(props[igGamma] * p / rho)
}

func (IdealGas) Temperature(rho, p float64, props []float64) float64 {
	return p / (rho * props[igR])
}

func (IdealGas) InternalEnergyFromTemperature(rho, T float64, props []float64) float64 {
	return props[igCv] * T
}

func (IdealGas) IsochoricSpecificHeat(props []float64) float64 { return props[igCv] }

func (IdealGas) IsobaricSpecificHeat(props []float64) float64 { return props[igCp] }

func (IdealGas) PressureShift(props []float64) float64 { return 0 }

// StiffenedGas properties are [gamma, p_inf, q, q', Cv]
//
//	p = (gamma-1) rho (e - q) - gamma p_inf
type StiffenedGas struct{}

const (
	sgGamma = iota
	sgPInf
	sgQ
	sgQPrime
	sgCv
	sgNumProperties
)

func (StiffenedGas) NumberOfThermodynamicProperties() int { return sgNumProperties }

func (StiffenedGas) Pressure(rho, epsilon float64, props []float64) float64 {
	var (
		gamma = props[sgGamma]
	)
	return (gamma-1.)*rho*(epsilon-props[sgQ]) - gamma*props[sgPInf]
}

func (StiffenedGas) InternalEnergy(rho, p float64, props []float64) float64 {
	var (
		gamma = props[sgGamma]
	)
	return (p+gamma*props[sgPInf])/((gamma-1.)*rho) + props[sgQ]
}

func (StiffenedGas) SoundSpeed(rho, p float64, props []float64) float64 {
	return math.Sqrt(props[sgGamma] * (p + props[sgPInf]) / rho)
}

func (StiffenedGas) Temperature(rho, p float64, props []float64) float64 {
	return (p + props[sgPInf]) / ((props[sgGamma] - 1.) * rho * props[sgCv])
}

func (StiffenedGas) InternalEnergyFromTemperature(rho, T float64, props []float64) float64 {
	return props[sgCv]*T + props[sgPInf]/rho + props[sgQ]
}

func (StiffenedGas) IsochoricSpecificHeat(props []float64) float64 { return props[sgCv] }

func (StiffenedGas) IsobaricSpecificHeat(props []float64) float64 {
	return props[sgGamma] * props[sgCv]
}

func (StiffenedGas) PressureShift(props []float64) float64 { return props[sgPInf] }
