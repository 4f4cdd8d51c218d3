package problems

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/amrflow/InputParameters"
	"github.com/notargets/amrflow/eos"
	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/flux"
	"github.com/notargets/amrflow/patch"
)

func newModel(t *testing.T, label string, dim, ns int) (fm *flowmodel.FlowModel) {
	var (
		mgr *eos.MixingRulesManager
		err error
	)
	if ns == 1 {
		mgr, err = eos.NewMixingRulesManager("IDEAL_GAS", "", 1,
			map[string][]float64{"gamma": {1.4}, "R": {1.}})
	} else {
		mgr, err = eos.NewMixingRulesManager("IDEAL_GAS", "ISOBARIC", 2,
			map[string][]float64{"gamma": {1.4, 1.648}, "R": {1., 5.5}})
	}
	require.NoError(t, err)
	fm, err = flowmodel.NewFlowModel(label, dim, ns, mgr.MixingRules())
	require.NoError(t, err)
	require.NoError(t, fm.SetupRiemannSolver("HLLC"))
	fm.SetupBasicUtilities()
	return
}

func TestNewProblemType(t *testing.T) {
	pt, err := NewProblemType("ShockBubble")
	require.NoError(t, err)
	assert.Equal(t, SHOCK_BUBBLE, pt)
	pt, err = NewProblemType("UNIFORM")
	require.NoError(t, err)
	assert.Equal(t, "Uniform", pt.String())
	_, err = NewProblemType("IVortex")
	assert.True(t, errors.Is(err, ErrUnknownProblem))
}

func TestDecompose(t *testing.T) {
	ip := &InputParameters.InputParametersFlow{
		Dimension: 2,
		Domain: InputParameters.DomainParameters{
			Lo: []int{0, 0}, Hi: []int{9, 3}, XLo: []float64{-1, 0}, XHi: []float64{1, 0.4},
			NumberOfPatches: 3,
		},
	}
	dm, err := NewDomain(ip)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, dm.Dx[0], 1.e-15)
	assert.InDelta(t, 0.1, dm.Dx[1], 1.e-15)
	patches := dm.Decompose()
	require.Len(t, patches, 3)
	var cells int
	for n, p := range patches {
		assert.Equal(t, n, p.Number)
		cells += p.Box.Size()
	}
	assert.Equal(t, dm.Box.Size(), cells)
	// 10 cells in x over 3 patches: 4, 3, 3
	assert.Equal(t, 4, patches[0].Box.NumberCells(0))
	assert.Equal(t, 4, patches[1].Box.Lo[0])
	// cell centers agree across the patch boundary
	x := patches[1].CellCenter(4, 0, 0)
	assert.InDelta(t, -1.+4.5*0.2, x[0], 1.e-14)
	x = patches[0].CellCenter(4, 0, 0)
	assert.InDelta(t, -1.+4.5*0.2, x[0], 1.e-14)

	ip.Domain.NumberOfPatches = 11
	_, err = NewDomain(ip)
	assert.True(t, errors.Is(err, ErrProblemSetup))
	ip.Domain.XHi = []float64{1}
	_, err = NewDomain(ip)
	assert.True(t, errors.Is(err, ErrProblemSetup))
}

// A gas at rest with rho = 1 and p = 1/1.4 has unit sound speed and no net
// flux through any cell
func TestUniformAtRest(t *testing.T) {
	var (
		fm = newModel(t, "SINGLE_SPECIES", 2, 1)
		ip = &InputParameters.InputParametersFlow{
			Dimension: 2,
			Domain: InputParameters.DomainParameters{
				InitType: "Uniform",
				Lo:       []int{0, 0}, Hi: []int{7, 7}, XLo: []float64{0, 0}, XHi: []float64{1, 1},
				NumberOfPatches: 2,
				State: map[string][]float64{
					"density":  {1.},
					"velocity": {0., 0.},
					"pressure": {1. / 1.4},
				},
			},
		}
		cr = flux.NewFirstOrderReconstructor(fm)
	)
	_, patches, err := BuildPatches(ip, fm, patch.CURRENT, cr.NumberOfGhostCells())
	require.NoError(t, err)
	for _, p := range patches {
		var (
			neq = fm.NumberOfEquations()
			fx  = patch.NewSideData(p.Box, neq)
			div = patch.NewCellData(p.Box, neq, patch.IntVector{})
		)
		require.NoError(t, cr.ComputeFluxAndSourceOnPatch(p, fx, nil, patch.CURRENT, 0, 0.1, 0))
		fx.Divergence(p.Geometry, div, p.Box)
		for n := 0; n < neq; n++ {
			for _, v := range div.Data[n] {
				assert.InDelta(t, 0., v, 1.e-14)
			}
		}
		require.NoError(t, fm.RegisterPatch(p, patch.CURRENT))
		require.NoError(t, fm.RegisterDerivedVariables([]flowmodel.DerivedVariable{flowmodel.SOUND_SPEED},
			patch.IntVector{}))
		require.NoError(t, fm.ComputeDerivedCellData())
		c, err := fm.DerivedCellData(flowmodel.SOUND_SPEED)
		require.NoError(t, err)
		patch.ForEachCell(p.Box, func(i, j, k int) {
			assert.InDelta(t, 1., c.At(0, i, j, k), 1.e-14)
		})
		fm.UnregisterPatch()
	}

	ip.Domain.State["pressure"] = []float64{-1.}
	_, _, err = BuildPatches(ip, fm, patch.CURRENT, 1)
	assert.True(t, errors.Is(err, ErrProblemSetup))
	assert.True(t, errors.Is(err, flowmodel.ErrBoundaryState))
}

func TestShockBubble(t *testing.T) {
	var (
		fm = newModel(t, "FIVE_EQN_ALLAIRE", 2, 2)
		ip = &InputParameters.InputParametersFlow{
			Dimension: 2,
			Domain: InputParameters.DomainParameters{
				InitType: "ShockBubble",
				Lo:       []int{0, 0}, Hi: []int{39, 15}, XLo: []float64{0, 0}, XHi: []float64{2.5, 1.},
				NumberOfPatches: 2,
			},
		}
		gamma = func(he float64) float64 {
			if he > 0 {
				return 1.648
			}
			return 1.4
		}
		regions = map[string]int{}
	)
	_, patches, err := BuildPatches(ip, fm, patch.CURRENT, 3)
	require.NoError(t, err)
	ic, err := NewInitializer(ip, fm)
	require.NoError(t, err)
	sb := ic.(*ShockBubble)
	assert.InDelta(t, 1.375, sb.ShockX, 1.e-14)
	prim := make([]float64, fm.NumberOfEquations())
	for _, p := range patches {
		require.NoError(t, fm.RegisterPatch(p, patch.CURRENT))
		require.NoError(t, fm.RegisterDerivedVariables([]flowmodel.DerivedVariable{flowmodel.PRESSURE,
			flowmodel.SOUND_SPEED, flowmodel.DENSITY}, patch.IntVector{}))
		require.NoError(t, fm.ComputeDerivedCellData())
		pr, err := fm.DerivedCellData(flowmodel.PRESSURE)
		require.NoError(t, err)
		c, err := fm.DerivedCellData(flowmodel.SOUND_SPEED)
		require.NoError(t, err)
		rho, err := fm.DerivedCellData(flowmodel.DENSITY)
		require.NoError(t, err)
		patch.ForEachCell(p.Box, func(i, j, k int) {
			x := p.CellCenter(i, j, k)
			sb.Primitive(prim, x)
			var (
				he  = prim[1]
				r   = prim[0] + prim[1]
				pe  = prim[fm.EnergyIndex()]
				tag = "pre"
			)
			switch {
			case x[0] > sb.ShockX:
				tag = "post"
				assert.InDelta(t, 1.3764, r, 1.e-14)
				assert.InDelta(t, 1.5698, pe, 1.e-14)
			case he > 0:
				tag = "bubble"
				assert.InDelta(t, 0.1819, r, 1.e-14)
			}
			regions[tag]++
			assert.InDelta(t, r, rho.At(0, i, j, k), 1.e-12)
			assert.InDelta(t, pe, pr.At(0, i, j, k), 1.e-12*pe)
			assert.InDelta(t, math.Sqrt(gamma(he)*pe/r), c.At(0, i, j, k), 1.e-12)
		})
		fm.UnregisterPatch()
	}
	assert.NotZero(t, regions["pre"])
	assert.NotZero(t, regions["post"])
	assert.NotZero(t, regions["bubble"])

	_, err = NewShockBubble(newModel(t, "SINGLE_SPECIES", 2, 1), []float64{0, 0}, []float64{1, 1})
	assert.True(t, errors.Is(err, ErrProblemSetup))
}

func TestExchangeGhostCells(t *testing.T) {
	var (
		fm = newModel(t, "SINGLE_SPECIES", 1, 1)
		ip = &InputParameters.InputParametersFlow{
			Dimension: 1,
			Domain: InputParameters.DomainParameters{
				InitType:        "Uniform",
				Lo:              []int{0},
				Hi:              []int{11},
				XLo:             []float64{0},
				XHi:             []float64{1.2},
				NumberOfPatches: 3,
				State: map[string][]float64{
					"density": {1.}, "velocity": {0.}, "pressure": {1.},
				},
			},
		}
	)
	_, patches, err := BuildPatches(ip, fm, patch.CURRENT, 2)
	require.NoError(t, err)
	rho, err := patches[1].CellData("density", patch.CURRENT)
	require.NoError(t, err)
	patch.ForEachCell(patches[1].Box, func(i, j, k int) {
		rho.Set(0, i, j, k, float64(i))
	})
	require.NoError(t, ExchangeGhostCells(fm.ConservativeVariableNames(), patches, patch.CURRENT))
	left, err := patches[0].CellData("density", patch.CURRENT)
	require.NoError(t, err)
	right, err := patches[2].CellData("density", patch.CURRENT)
	require.NoError(t, err)
	// patches hold cells [0,3], [4,7] and [8,11]
	assert.Equal(t, 4., left.At(0, 4, 0, 0))
	assert.Equal(t, 5., left.At(0, 5, 0, 0))
	assert.Equal(t, 7., right.At(0, 7, 0, 0))
	assert.Equal(t, 6., right.At(0, 6, 0, 0))
	// physical boundary ghosts are untouched
	assert.Equal(t, 1., left.At(0, -1, 0, 0))
	assert.Equal(t, 1., right.At(0, 13, 0, 0))
	assert.Equal(t, 1., rho.At(0, 3, 0, 0))
	assert.NoError(t, ExchangeGhostCells([]string{"density"}, patches[:1], patch.CURRENT))
	assert.Error(t, ExchangeGhostCells([]string{"vorticity"}, patches, patch.CURRENT))
}

func TestSodExactSolution(t *testing.T) {
	st, err := NewSodShockTube(newModel(t, "SINGLE_SPECIES", 1, 1), 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.30313, st.PStar, 1.e-5)
	assert.InDelta(t, 0.92745, st.UStar, 1.e-5)
	assert.InDelta(t, 0.42632, st.RhoStarL, 1.e-5)
	assert.InDelta(t, 0.26557, st.RhoStarR, 1.e-5)
	assert.InDelta(t, 0.5-math.Sqrt(1.4)*0.1, st.WavePositions(0.1)[0], 1.e-12)
	assert.InDelta(t, 0.6752, st.WavePositions(0.1)[3], 1.e-4)
	assert.InDelta(t, 0.8504, st.WavePositions(0.2)[3], 1.e-4)
	// mass and momentum jump conditions across the shock
	assert.InDelta(t, st.Right.Density*st.ShockSpeed, st.RhoStarR*(st.ShockSpeed-st.UStar), 1.e-9)
	assert.InDelta(t, st.Right.Pressure+st.Right.Density*st.ShockSpeed*st.ShockSpeed,
		st.PStar+st.RhoStarR*(st.ShockSpeed-st.UStar)*(st.ShockSpeed-st.UStar), 1.e-9)

	// the fan joins the constant states continuously
	w := st.WavePositions(0.1)
	rho, u, p := st.Exact(w[0]+1.e-12, 0.1)
	assert.InDelta(t, 1., rho, 1.e-9)
	assert.InDelta(t, 0., u, 1.e-9)
	assert.InDelta(t, 1., p, 1.e-9)
	rho, u, p = st.Exact(w[1]-1.e-12, 0.1)
	assert.InDelta(t, st.RhoStarL, rho, 1.e-9)
	assert.InDelta(t, st.UStar, u, 1.e-9)
	assert.InDelta(t, st.PStar, p, 1.e-9)
	rho, _, _ = st.Exact(0.9, 0.1)
	assert.Equal(t, 0.125, rho)

	prim := make([]float64, 3)
	st.Primitive(prim, [3]float64{0.2})
	assert.Equal(t, []float64{1., 0., 1.}, prim)
	st.Primitive(prim, [3]float64{0.7})
	assert.Equal(t, []float64{0.125, 0., 0.1}, prim)

	_, err = NewSodShockTube(newModel(t, "FIVE_EQN_ALLAIRE", 1, 2), 0.5)
	assert.True(t, errors.Is(err, ErrProblemSetup))
}
