package eos

import (
	"fmt"
	"strings"

	"github.com/notargets/amrflow/restart"
)

const restartDatabaseName = "EquationOfStateMixingRules"

type MixingRulesManager struct {
	label EquationOfStateType
	rules MixingRules
}

func NewMixingRulesManager(eosLabel, closureLabel string, ns int,
	species map[string][]float64) (m *MixingRulesManager, err error) {
	var (
		et      EquationOfStateType
		closure MixingClosureModel
		rules   MixingRules
	)
	if et, err = NewEquationOfStateType(eosLabel); err != nil {
		return
	}
	if len(closureLabel) == 0 && ns == 1 {
		closureLabel = NO_ASSUMPTION.String()
	}
	if closure, err = NewMixingClosureModel(closureLabel); err != nil {
		return
	}
	switch et {
	case IDEAL_GAS:
		rules, err = NewIdealGasMixingRules(ns, closure, species)
	case STIFFENED_GAS:
		rules, err = NewStiffenedGasMixingRules(ns, closure, species)
	}
	if err != nil {
		return
	}
	m = &MixingRulesManager{
		label: et,
		rules: rules,
	}
	return
}

// NewMixingRulesManagerFromRestart rebuilds the manager from a database
// written by PutToRestart
func NewMixingRulesManagerFromRestart(db *restart.Database) (m *MixingRulesManager, err error) {
	var (
		child          *restart.Database
		eosLabel, cLbl string
		ns             int
		species        = make(map[string][]float64)
	)
	if child, err = db.GetDatabase(restartDatabaseName); err != nil {
		return
	}
	if eosLabel, err = child.GetString("equation_of_state"); err != nil {
		return
	}
	if cLbl, err = child.GetString("mixing_closure_model"); err != nil {
		return
	}
	if ns, err = child.GetInteger("number_of_species"); err != nil {
		return
	}
	for _, key := range child.Keys() {
		if !strings.HasPrefix(key, "species_") {
			continue
		}
		if species[strings.TrimPrefix(key, "species_")], err = child.GetDoubleArray(key); err != nil {
			return
		}
	}
	return NewMixingRulesManager(eosLabel, cLbl, ns, species)
}

func (m *MixingRulesManager) MixingRules() MixingRules { return m.rules }

func (m *MixingRulesManager) Label() EquationOfStateType { return m.label }

func (m *MixingRulesManager) PutToRestart(db *restart.Database) {
	m.rules.PutToRestart(db.PutDatabase(restartDatabaseName))
}

// CheckRestart verifies that a restart record was written by a manager with
// the same equation of state, closure and species count
func (m *MixingRulesManager) CheckRestart(db *restart.Database) (err error) {
	var (
		child     *restart.Database
		eosLabel  string
		closure   string
		ns        int
		mismatchf = func(what, got, want interface{}) error {
			return fmt.Errorf("%w: %s is %v, configured %v", ErrRestartMismatch, what, got, want)
		}
	)
	if child, err = db.GetDatabase(restartDatabaseName); err != nil {
		return
	}
	if eosLabel, err = child.GetString("equation_of_state"); err != nil {
		return
	}
	if eosLabel != m.label.String() {
		return mismatchf("equation_of_state", eosLabel, m.label)
	}
	if closure, err = child.GetString("mixing_closure_model"); err != nil {
		return
	}
	if closure != m.rules.MixingClosureModel().String() {
		return mismatchf("mixing_closure_model", closure, m.rules.MixingClosureModel())
	}
	if ns, err = child.GetInteger("number_of_species"); err != nil {
		return
	}
	if ns != m.rules.NumberOfSpecies() {
		return mismatchf("number_of_species", ns, m.rules.NumberOfSpecies())
	}
	return
}
