/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/bc"
	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/integrator"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/problems"
	"github.com/notargets/amrflow/restart"
	"github.com/notargets/amrflow/types"
	"github.com/notargets/amrflow/utils"
)

type PatchRun struct {
	InputFile  string
	RestartIn  string // restart record to check the configuration against
	RestartOut string
	Workers    int
	Steps      int
	Profile    bool
}

// RunSummary is what a run reports after its last step
type RunSummary struct {
	Time      float64
	Steps     int
	Dt        float64
	Stats     flowmodel.Statistics
	SensorMax map[string]float64
}

// PatchCmd represents the patch command
var PatchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Advance a decomposed box domain with forward Euler steps",
	Long: `
Reads a YAML input file, decomposes the domain into patches, and advances it
with forward Euler steps using the configured flux reconstructors, reporting
statistics, the stable time step and the refinement sensors.

amrflow patch -I input.yaml -n 10`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip *InputParameters.InputParametersFlow
			pr = &PatchRun{
				Workers: viper.GetInt("workers"),
			}
		)
		if pr.InputFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		pr.RestartIn, _ = cmd.Flags().GetString("checkRestart")
		pr.RestartOut, _ = cmd.Flags().GetString("restartFile")
		pr.Steps, _ = cmd.Flags().GetInt("steps")
		pr.Profile, _ = cmd.Flags().GetBool("profile")
		if pr.Profile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		if ip, err = processInput(pr); err != nil {
			return
		}
		ip.Print()
		_, err = RunPatches(pr, ip, logrus.StandardLogger())
		return
	},
}

func init() {
	rootCmd.AddCommand(PatchCmd)
	PatchCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
	PatchCmd.Flags().StringP("restartFile", "r", "amrflow_restart.toml", "restart record written after the last step")
	PatchCmd.Flags().String("checkRestart", "", "restart record the configuration must match")
	PatchCmd.Flags().IntP("steps", "n", 1, "number of forward Euler steps")
	PatchCmd.Flags().IntP("workers", "w", runtime.NumCPU(), "number of concurrent patch workers")
	PatchCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
	_ = viper.BindPFlag("workers", PatchCmd.Flags().Lookup("workers"))
}

func processInput(pr *PatchRun) (ip *InputParameters.InputParametersFlow, err error) {
	var (
		data []byte
	)
	if len(pr.InputFile) == 0 {
		exampleFile := `
########################################
Title: "Shock bubble"
Dimension: 2
FlowModel: FIVE_EQN_ALLAIRE
NumberOfSpecies: 2
CFL: 0.5
EquationOfState:
  Type: IDEAL_GAS
  MixingClosureModel: ISOBARIC
  Species:
    gamma: [1.4, 1.648]
    R: [1., 5.5]
ConvectiveFluxReconstructor:
  Type: WENO5_JS
  RiemannSolver: HLLC
  Characteristic: true
GradientSensors:
  - Type: JAMESON
    Variable: PRESSURE
Domain:
  InitType: ShockBubble
  Lo: [0, 0]
  Hi: [199, 79]
  XLo: [0., 0.]
  XHi: [2.5, 1.]
  NumberOfPatches: 8
########################################
`
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile), example:%s",
			exampleFile)
	}
	if data, err = os.ReadFile(pr.InputFile); err != nil {
		return
	}
	ip = &InputParameters.InputParametersFlow{}
	if err = ip.Parse(data); err != nil {
		return nil, err
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func RunPatches(pr *PatchRun, ip *InputParameters.InputParametersFlow, log logrus.FieldLogger) (rs RunSummary, err error) {
	var (
		mgr     *eos.MixingRulesManager
		workers = make([]*integrator.PatchIntegrator, max(pr.Workers, 1))
		patches []*patch.Patch
		ctx     = patch.CURRENT
	)
	if mgr, err = eos.NewMixingRulesManager(ip.EquationOfState.Type, ip.EquationOfState.MixingClosureModel,
		ip.NumberOfSpecies, ip.EquationOfState.Species); err != nil {
		return
	}
	for n := range workers {
		if workers[n], err = integrator.NewPatchIntegrator(ip, mgr, log); err != nil {
			return
		}
	}
	lead := workers[0]
	lead.PrintClassData(os.Stdout)
	if err = readBoundaryConditions(ip, lead.FlowModel, os.Stdout, log); err != nil {
		return
	}
	if len(pr.RestartIn) != 0 {
		if err = checkRestart(pr.RestartIn, lead); err != nil {
			return
		}
	}
	if _, patches, err = problems.BuildPatches(ip, lead.FlowModel, ctx, lead.Fluxes.NumberOfGhostCells()); err != nil {
		return
	}
	log.WithFields(logrus.Fields{
		"patches": len(patches),
		"workers": len(workers),
		"ghost":   lead.Fluxes.NumberOfGhostCells(),
	}).Info("domain initialized")

	var results []integrator.StageResult
	// the first time step comes from a sweep without flux scaling
	if results, err = integrator.SweepPatches(workers, patches, ctx, 0., 0., ip.CFL, 0); err != nil {
		return
	}
	rs.Dt = integrator.StableDt(results)
	for rs.Steps = 0; rs.Steps < pr.Steps; rs.Steps++ {
		if math.IsInf(rs.Dt, 1) || rs.Dt <= 0 {
			return rs, fmt.Errorf("no finite stable time step at step %d, dt = %g", rs.Steps, rs.Dt)
		}
		if results, err = integrator.SweepPatches(workers, patches, ctx, rs.Time, rs.Dt, ip.CFL, 0); err != nil {
			return
		}
		for _, r := range results {
			if err = lead.UpdateConservative(r.Patch, ctx, r.Flux, r.Source); err != nil {
				return
			}
		}
		if err = problems.ExchangeGhostCells(lead.FlowModel.ConservativeVariableNames(), patches, ctx); err != nil {
			return
		}
		rs.Time += rs.Dt
		rs.Stats = integrator.MergeStatistics(results)
		log.WithFields(logrus.Fields{
			"step": rs.Steps + 1,
			"time": rs.Time,
			"dt":   rs.Dt,
		}).Info(rs.Stats.String())
		rs.Dt = integrator.StableDt(results)
	}
	if rs.SensorMax, err = sensorMaxima(lead, patches, ctx); err != nil {
		return
	}
	names := make([]string, 0, len(rs.SensorMax))
	for name := range rs.SensorMax {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.WithField("sensor", name).Infof("max = %g", rs.SensorMax[name])
	}
	log.WithField("memory", utils.GetMemUsage()).Info("run complete")
	if len(pr.RestartOut) != 0 {
		err = writeRestart(pr.RestartOut, lead, rs)
	}
	return
}

func readBoundaryConditions(ip *InputParameters.InputParametersFlow, fm *flowmodel.FlowModel, w io.Writer,
	log logrus.FieldLogger) (err error) {
	var (
		tb       *bc.Table
		periodic patch.IntVector
		faces    []string
	)
	if len(ip.BCs) == 0 {
		return
	}
	copy(periodic[:], ip.Periodic)
	if tb, err = bc.ReadBoundaryConditions(ip.Dimension, periodic, ip.BCs, fm); err != nil {
		return
	}
	tb.Print(w)
	for n, loc := range tb.Locations[0] {
		if kind := tb.Conditions[0][n].Kind; kind != types.BC_None {
			faces = append(faces, loc.Name+"="+kind.String())
		}
	}
	if len(faces) != 0 {
		log.WithField("boundaries", strings.Join(faces, ",")).
			Warn("boundary conditions are checked but not applied, physical boundary ghost cells keep their initial values")
	}
	return
}

func sensorMaxima(pi *integrator.PatchIntegrator, patches []*patch.Patch,
	ctx patch.DataContext) (maxima map[string]float64, err error) {
	var (
		fields map[string]*patch.CellData
	)
	maxima = make(map[string]float64)
	for _, p := range patches {
		if fields, err = pi.ComputeSensorFields(p, ctx); err != nil {
			return
		}
		for name, cd := range fields {
			for _, v := range cd.Data[0] {
				maxima[name] = math.Max(maxima[name], v)
			}
		}
	}
	return
}

func checkRestart(path string, pi *integrator.PatchIntegrator) (err error) {
	var (
		f  *os.File
		db *restart.Database
	)
	if f, err = os.Open(path); err != nil {
		return
	}
	defer f.Close()
	if db, err = restart.Decode(f, "amrflow"); err != nil {
		return
	}
	return pi.CheckRestart(db)
}

func writeRestart(path string, pi *integrator.PatchIntegrator, rs RunSummary) (err error) {
	var (
		f  *os.File
		db = restart.NewDatabase("amrflow")
	)
	db.PutDouble("time", rs.Time)
	db.PutInteger("step", rs.Steps)
	pi.PutToRestart(db)
	if f, err = os.Create(path); err != nil {
		return
	}
	return saveRestart(f, db)
}

// saveRestart encodes db to wc and closes it, a failed close is reported
// when the encoding succeeded
func saveRestart(wc io.WriteCloser, db *restart.Database) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	return db.Encode(wc)
}
