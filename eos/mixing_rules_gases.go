package eos

import (
	"fmt"
)

type IdealGasMixingRules struct {
	mixingRules
}

func NewIdealGasMixingRules(ns int, closure MixingClosureModel,
	species map[string][]float64) (mr *IdealGasMixingRules, err error) {
	var (
		gamma, R []float64
	)
	if err = checkClosure(closure, ns); err != nil {
		return
	}
	if gamma, err = speciesInput(species, "gamma", ns, true); err != nil {
		return
	}
	if R, err = speciesInput(species, "R", ns, true); err != nil {
		return
	}
	mr = &IdealGasMixingRules{
		mixingRules: mixingRules{
			eosType:       IDEAL_GAS,
			closure:       closure,
			ns:            ns,
			eos:           IdealGas{},
			species:       make([][]float64, ns),
			propertyNames: []string{"gamma", "R"},
			inputs:        map[string][]float64{"gamma": gamma, "R": R},
		},
	}
	for i := 0; i < ns; i++ {
		if gamma[i] <= 1. || R[i] <= 0. {
			err = fmt.Errorf("%w: species %d has gamma = %g, R = %g", ErrSpeciesProperties,
				i, gamma[i], R[i])
			return nil, err
		}
		cv := R[i] / (gamma[i] - 1.)
		mr.species[i] = []float64{gamma[i], R[i], gamma[i] * cv, cv}
	}
	mr.mixture = mr.mixtureProperties
	return
}

func (mr *IdealGasMixingRules) mixtureProperties(out, Y, Z []float64) {
	var (
		gamma, cp, cv float64
	)
	switch mr.closure {
	case NO_ASSUMPTION:
		copy(out, mr.species[0])
		return
	case ISOTHERMAL:
		for i, y := range Y {
			cp += y * mr.species[i][igCp]
			cv += y * mr.species[i][igCv]
		}
		gamma = cp / cv
	case ISOBARIC:
		var s float64
		for i, z := range Z {
			s += z / (mr.species[i][igGamma] - 1.)
		}
		gamma = 1. + 1./s
		for i, w := range weights(Y, Z) {
			cv += w * mr.species[i][igCv]
		}
		cp = gamma * cv
	}
	out[igGamma], out[igR], out[igCp], out[igCv] = gamma, cp-cv, cp, cv
}

type StiffenedGasMixingRules struct {
	mixingRules
}

func NewStiffenedGasMixingRules(ns int, closure MixingClosureModel,
	species map[string][]float64) (mr *StiffenedGasMixingRules, err error) {
	var (
		gamma, pInf, q, qPrime, cv []float64
	)
	if err = checkClosure(closure, ns); err != nil {
		return
	}
	if closure == ISOTHERMAL {
		err = fmt.Errorf("%w: %s with %s", ErrUnsupportedClosure, closure, STIFFENED_GAS)
		return
	}
	if gamma, err = speciesInput(species, "gamma", ns, true); err != nil {
		return
	}
	if pInf, err = speciesInput(species, "p_inf", ns, true); err != nil {
		return
	}
	if cv, err = speciesInput(species, "Cv", ns, true); err != nil {
		return
	}
	if q, err = speciesInput(species, "q", ns, false); err != nil {
		return
	}
	if qPrime, err = speciesInput(species, "q_prime", ns, false); err != nil {
		return
	}
	mr = &StiffenedGasMixingRules{
		mixingRules: mixingRules{
			eosType:       STIFFENED_GAS,
			closure:       closure,
			ns:            ns,
			eos:           StiffenedGas{},
			species:       make([][]float64, ns),
			propertyNames: []string{"gamma", "p_inf", "q", "q_prime", "Cv"},
			inputs: map[string][]float64{
				"gamma": gamma, "p_inf": pInf, "q": q, "q_prime": qPrime, "Cv": cv},
		},
	}
	for i := 0; i < ns; i++ {
		if gamma[i] <= 1. || pInf[i] < 0. || cv[i] <= 0. {
			err = fmt.Errorf("%w: species %d has gamma = %g, p_inf = %g, Cv = %g",
				ErrSpeciesProperties, i, gamma[i], pInf[i], cv[i])
			return nil, err
		}
		mr.species[i] = []float64{gamma[i], pInf[i], q[i], qPrime[i], cv[i]}
	}
	mr.mixture = mr.mixtureProperties
	return
}

func (mr *StiffenedGasMixingRules) mixtureProperties(out, Y, Z []float64) {
	if mr.closure == NO_ASSUMPTION {
		copy(out, mr.species[0])
		return
	}
	// Isobaric: 1/(gamma-1) and gamma*p_inf/(gamma-1) mix by volume fraction,
	// energy references and Cv by mass fraction
	var (
		s, t, q, qPrime, cv float64
	)
	for i, z := range Z {
		gm1 := mr.species[i][sgGamma] - 1.
		s += z / gm1
		t += z * mr.species[i][sgGamma] * mr.species[i][sgPInf] / gm1
	}
	for i, w := range weights(Y, Z) {
		q += w * mr.species[i][sgQ]
		qPrime += w * mr.species[i][sgQPrime]
		cv += w * mr.species[i][sgCv]
	}
	gamma := 1. + 1./s
	out[sgGamma] = gamma
	out[sgPInf] = t * (gamma - 1.) / gamma
	out[sgQ], out[sgQPrime], out[sgCv] = q, qPrime, cv
}
