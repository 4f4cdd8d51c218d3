package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/amrflow/bc"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/restart"
)

var fileInput = []byte(`
Title: Gas at rest
Dimension: 2
FlowModel: SINGLE_SPECIES
NumberOfSpecies: 1
CFL: 0.5
EquationOfState:
  Type: IDEAL_GAS
  Species:
    gamma: [1.4]
    R: [1.]
ConvectiveFluxReconstructor:
  Type: FIRST_ORDER
  RiemannSolver: HLLC
GradientSensors:
  - Type: JAMESON
    Variable: PRESSURE
Periodic: [1, 0]
BoundaryConditions:
  boundary_edge_ylo:
    boundary_condition: REFLECT
  boundary_edge_yhi:
    boundary_condition: DIRICHLET
    density: [1.]
    velocity: [0., 0.]
    pressure: 0.7142857142857143
Domain:
  InitType: Uniform
  Lo: [0, 0]
  Hi: [15, 7]
  XLo: [0., 0.]
  XHi: [1.6, 0.8]
  NumberOfPatches: 4
  State:
    density: [1.]
    velocity: [0., 0.]
    pressure: [0.7142857142857143]
`)

func writeInput(t *testing.T, data []byte) string {
	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunPatches(t *testing.T) {
	var (
		dir = t.TempDir()
		pr  = &PatchRun{
			InputFile:  writeInput(t, fileInput),
			RestartOut: filepath.Join(dir, "restart.toml"),
			Workers:    3,
			Steps:      2,
		}
		log, hook = test.NewNullLogger()
	)
	ip, err := processInput(pr)
	require.NoError(t, err)
	assert.Equal(t, "Gas at rest", ip.Title)
	assert.Equal(t, []int{1, 0}, ip.Periodic)
	assert.Equal(t, "DIRICHLET", ip.BCs["boundary_edge_yhi"]["boundary_condition"])

	rs, err := RunPatches(pr, ip, log)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Steps)
	// c = 1, dx = 0.1
	assert.InDelta(t, 0.5*0.1/2., rs.Dt, 1.e-12)
	assert.InDelta(t, 2*rs.Dt, rs.Time, 1.e-12)
	assert.InDelta(t, 1.6*0.8, rs.Stats.Mass, 1.e-12)
	assert.InDelta(t, 1./1.4, rs.Stats.MinPressure, 1.e-12)
	assert.Equal(t, 0., rs.SensorMax["JAMESON_PRESSURE"])
	assert.NotEmpty(t, hook.AllEntries())
	var warned []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e)
		}
	}
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0].Data["boundaries"], "boundary_edge_ylo=REFLECT")
	assert.Contains(t, warned[0].Data["boundaries"], "boundary_edge_yhi=DIRICHLET")
	assert.NotContains(t, warned[0].Data["boundaries"], "boundary_edge_xlo")
	_, err = os.Stat(pr.RestartOut)
	require.NoError(t, err)

	// a second run checks its configuration against the record
	pr.RestartIn, pr.RestartOut, pr.Steps = pr.RestartOut, "", 1
	_, err = RunPatches(pr, ip, log)
	require.NoError(t, err)
	ip.ConvectiveFluxReconstructor.Type = "WENO5_JS"
	_, err = RunPatches(pr, ip, log)
	assert.ErrorIs(t, err, flowmodel.ErrRestartMismatch)
}

func TestProcessInput(t *testing.T) {
	_, err := processInput(&PatchRun{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InitType: ShockBubble")
	_, err = processInput(&PatchRun{InputFile: writeInput(t, []byte("Dimension: 4\n"))})
	assert.Error(t, err)

	ip, err := processInput(&PatchRun{InputFile: writeInput(t, fileInput)})
	require.NoError(t, err)
	ip.BCs["boundary_edge_ylo"]["boundary_condition"] = "XREFLECT"
	log, _ := test.NewNullLogger()
	_, err = RunPatches(&PatchRun{Workers: 1, Steps: 1}, ip, log)
	assert.ErrorIs(t, err, bc.ErrBoundaryCondition)
}

type closeRecorder struct {
	written  []byte
	closed   bool
	closeErr error
}

func (c *closeRecorder) Write(b []byte) (int, error) {
	c.written = append(c.written, b...)
	return len(b), nil
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestSaveRestartReportsClose(t *testing.T) {
	db := restart.NewDatabase("amrflow")
	db.PutInteger("step", 3)

	ok := &closeRecorder{}
	require.NoError(t, saveRestart(ok, db))
	assert.True(t, ok.closed)
	assert.NotEmpty(t, ok.written)

	errFull := errors.New("disk full")
	full := &closeRecorder{closeErr: errFull}
	err := saveRestart(full, db)
	assert.True(t, full.closed)
	assert.ErrorIs(t, err, errFull)
}
