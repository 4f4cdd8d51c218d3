package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParse(t *testing.T) {
	fileInput := []byte(`
Title: Shock Bubble
Dimension: 2
FlowModel: FIVE_EQN_ALLAIRE
NumberOfSpecies: 2
CFL: 0.5
EquationOfState:
  Type: IDEAL_GAS
  MixingClosureModel: ISOBARIC
  Species:
    gamma: [1.4, 1.249]
    R: [1.0, 0.25]
ConvectiveFluxReconstructor:
  Type: WENO5_JS
  RiemannSolver: HLLC
  Characteristic: true
Gravity:
  Enabled: true
  Vector: [0, -9.8]
Periodic: [0, 1]
BoundaryConditions:
  boundary_edge_xlo:
    boundary_condition: DIRICHLET
    partial_densities: [1.3764, 0]
    velocity: [0.394, 0]
    pressure: 1.5698
  boundary_edge_xhi:
    boundary_condition: FLOW
GradientSensors:
  - Type: JAMESON
    Variable: PRESSURE
`)
	var input InputParametersFlow
	require.NoError(t, input.Parse(fileInput))
	require.NoError(t, input.Validate())
	assert.Equal(t, 2, input.Dimension)
	assert.Equal(t, "FIVE_EQN_ALLAIRE", input.FlowModel)
	assert.Equal(t, []float64{1.4, 1.249}, input.EquationOfState.Species["gamma"])
	assert.True(t, input.ConvectiveFluxReconstructor.Characteristic)
	assert.Equal(t, []float64{0, -9.8}, input.Gravity.Vector)
	assert.Equal(t, []int{0, 1}, input.Periodic)
	assert.Equal(t, "DIRICHLET", input.BCs["boundary_edge_xlo"]["boundary_condition"])
	assert.Equal(t, 1.5698, input.BCs["boundary_edge_xlo"]["pressure"])
	require.Len(t, input.GradientSensors, 1)
	assert.Equal(t, "PRESSURE", input.GradientSensors[0].Variable)
	input.Print()
}

func TestValidate(t *testing.T) {
	input := InputParametersFlow{
		Dimension:       4,
		FlowModel:       "SINGLE_SPECIES",
		NumberOfSpecies: 2,
		Gravity:         GravityParameters{Enabled: true, Vector: []float64{0}},
	}
	err := input.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputParameters))
	// Dimension, species count, eos type, flux type, gravity
	assert.Len(t, multierr.Errors(err), 5)
}
