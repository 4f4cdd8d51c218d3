package bc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/types"
)

var _ StateReader = (*flowmodel.FlowModel)(nil)

type constantReader struct {
	calls []string
}

func (cr *constantReader) ReadBoundaryState(location string, kind types.BCFLAG,
	entry map[string]interface{}) ([]float64, error) {
	cr.calls = append(cr.calls, location)
	return []float64{1, 0, 0, 1}, nil
}

type entries map[string]map[string]interface{}

func kind(k string) map[string]interface{} {
	return map[string]interface{}{"boundary_condition": k}
}

func TestLocations(t *testing.T) {
	var names []string
	for _, loc := range Locations(2, 2) {
		names = append(names, loc.Name)
	}
	assert.Equal(t, []string{"boundary_node_xlo_ylo", "boundary_node_xhi_ylo",
		"boundary_node_xlo_yhi", "boundary_node_xhi_yhi"}, names)
	assert.Len(t, Locations(3, 1), 6)
	assert.Len(t, Locations(3, 2), 12)
	assert.Len(t, Locations(3, 3), 8)
	assert.Len(t, Locations(1, 1), 2)
	assert.Equal(t, "boundary_face_zhi", Locations(3, 1)[5].Name)
	assert.Equal(t, "boundary_edge_ylo", Locations(2, 1)[2].Name)
	edge := Locations(3, 2)[4]
	assert.Equal(t, "boundary_edge_xlo_zlo", edge.Name)
	assert.Equal(t, []int{0, 2}, edge.Touches(3))
}

func twoDimensionalEntries() entries {
	return entries{
		"boundary_edge_xlo":     {"boundary_condition": "DIRICHLET", "density": 1.},
		"boundary_edge_xhi":     kind("FLOW"),
		"boundary_edge_ylo":     kind("REFLECT"),
		"boundary_edge_yhi":     kind("REFLECT"),
		"boundary_node_xlo_ylo": kind("XDIRICHLET"),
		"boundary_node_xhi_ylo": kind("YREFLECT"),
		"boundary_node_xlo_yhi": kind("YREFLECT"),
		"boundary_node_xhi_yhi": kind("XFLOW"),
	}
}

func TestReadBoundaryConditions2D(t *testing.T) {
	reader := &constantReader{}
	tb, err := ReadBoundaryConditions(2, patch.IntVector{}, twoDimensionalEntries(), reader)
	require.NoError(t, err)
	assert.Equal(t, []string{"boundary_edge_xlo"}, reader.calls)
	assert.Equal(t, types.BC_Dirichlet, tb.FaceCondition(0, Lo).Kind)
	assert.Equal(t, types.BC_Reflect, tb.FaceCondition(1, Hi).Kind)
	node, ok := tb.Condition("boundary_node_xlo_ylo")
	require.True(t, ok)
	assert.Equal(t, types.BC_XDirichlet, node.Kind)
	assert.Equal(t, []float64{1, 0, 0, 1}, node.State)
	var buf bytes.Buffer
	tb.Print(&buf)
	assert.Contains(t, buf.String(), "[XFLOW]\t= boundary_node_xhi_yhi")
}

func TestInconsistentEdgeAndNode(t *testing.T) {
	in := twoDimensionalEntries()
	in["boundary_node_xhi_ylo"] = kind("XREFLECT") // the xhi face is FLOW
	in["boundary_node_xlo_yhi"] = kind("YFLOW")    // the yhi face is REFLECT
	in["boundary_node_xhi_yhi"] = kind("FLOW")     // not axis qualified
	_, err := ReadBoundaryConditions(2, patch.IntVector{}, in, &constantReader{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBoundaryCondition))
	assert.Len(t, multierr.Errors(err), 3)
	assert.Contains(t, err.Error(), "boundary_node_xhi_ylo is XREFLECT but the xhi face is FLOW")

	// three dimensions, an edge against its faces
	in3 := entries{}
	for _, loc := range Locations(3, 1) {
		in3[loc.Name] = kind("REFLECT")
	}
	in3["boundary_face_zlo"] = kind("SYMMETRY")
	for _, loc := range Locations(3, 2) {
		in3[loc.Name] = kind("XREFLECT")
		if loc.Sides[0] == Free {
			in3[loc.Name] = kind("YREFLECT")
		}
	}
	for _, loc := range Locations(3, 3) {
		in3[loc.Name] = kind("ZREFLECT")
	}
	_, err = ReadBoundaryConditions(3, patch.IntVector{}, in3, nil)
	require.Error(t, err)
	// the four zlo nodes disagree with the zlo face
	assert.Len(t, multierr.Errors(err), 4)

	in3["boundary_face_zlo"] = kind("REFLECT")
	_, err = ReadBoundaryConditions(3, patch.IntVector{}, in3, nil)
	require.NoError(t, err)
	in3["boundary_edge_ylo_zhi"] = kind("XREFLECT")
	_, err = ReadBoundaryConditions(3, patch.IntVector{}, in3, nil)
	assert.True(t, errors.Is(err, ErrBoundaryCondition))
}

func TestPeriodicSuppression(t *testing.T) {
	in := entries{
		"boundary_edge_ylo": kind("REFLECT"),
		"boundary_edge_yhi": kind("SYMMETRY"),
		// never read in a periodic direction
		"boundary_edge_xlo":     kind("NOT_A_CONDITION"),
		"boundary_node_xlo_ylo": kind("ZFLOW"),
	}
	tb, err := ReadBoundaryConditions(2, patch.IntVector{1, 0}, in, nil)
	require.NoError(t, err)
	assert.Equal(t, types.BC_None, tb.FaceCondition(0, Lo).Kind)
	assert.Equal(t, types.BC_None, tb.FaceCondition(0, Hi).Kind)
	assert.Equal(t, types.BC_Symmetry, tb.FaceCondition(1, Hi).Kind)
	for _, cond := range tb.Conditions[1] {
		assert.Equal(t, types.BC_None, cond.Kind)
	}
}

func TestMissingData(t *testing.T) {
	in := entries{
		"boundary_node_xlo": {"boundary_condition": "DIRICHLET"},
		"boundary_node_xup": kind("FLOW"),
	}
	_, err := ReadBoundaryConditions(1, patch.IntVector{}, in, nil)
	require.Error(t, err)
	// no reader for the Dirichlet data, unknown location, missing xhi entry
	assert.Len(t, multierr.Errors(err), 3)

	mgr, err := eos.NewMixingRulesManager("IDEAL_GAS", "", 1,
		map[string][]float64{"gamma": {1.4}, "R": {1.}})
	require.NoError(t, err)
	fm, err := flowmodel.NewFlowModel("SINGLE_SPECIES", 1, 1, mgr.MixingRules())
	require.NoError(t, err)
	in = entries{
		"boundary_node_xlo": {"boundary_condition": "DIRICHLET", "density": 1.},
		"boundary_node_xhi": {"boundary_condition": "neumann", "density": 0,
			"velocity": []interface{}{0}, "pressure": 0},
	}
	_, err = ReadBoundaryConditions(1, patch.IntVector{}, in, fm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, flowmodel.ErrBoundaryState))
	assert.Len(t, multierr.Errors(err), 1)

	in["boundary_node_xlo"]["velocity"] = []float64{0.5}
	in["boundary_node_xlo"]["pressure"] = "1.0"
	tb, err := ReadBoundaryConditions(1, patch.IntVector{}, in, fm)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5, 1}, tb.FaceCondition(0, Lo).State)
	assert.Equal(t, types.BC_Neuman, tb.FaceCondition(0, Hi).Kind)
}
