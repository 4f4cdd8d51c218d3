package sensor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/amrflow/patch"
)

func newField(box patch.Box, ghost int, f func(i, j, k int) float64) (cd *patch.CellData) {
	cd = patch.NewCellData(box, 2, patch.NewIntVector(box.Dim, ghost))
	patch.ForEachCell(cd.GhostBox(), func(i, j, k int) {
		cd.Set(1, i, j, k, f(i, j, k))
	})
	return
}

func TestNewGradientSensor(t *testing.T) {
	gs, err := NewGradientSensor("Jameson", 2)
	require.NoError(t, err)
	assert.Equal(t, "JAMESON", gs.Name())
	assert.Equal(t, JAMESON, gs.Type())
	gs, err = NewGradientSensor("DIFFERENCE_FIRST_ORDER", 3)
	require.NoError(t, err)
	assert.Equal(t, DIFFERENCE_FIRST_ORDER, gs.Type())
	_, err = NewGradientSensor("DUCROS", 2)
	assert.True(t, errors.Is(err, ErrUnknownSensor))
	_, err = NewGradientSensor("JAMESON", 4)
	assert.True(t, errors.Is(err, ErrUnknownSensor))
}

func TestConstantFieldIsZero(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		var (
			box = patch.NewBox(dim, patch.IntVector{0, 0, 0}, patch.IntVector{4, 3, 2})
			p   = patch.NewPatch(0, box, patch.Geometry{Dx: [3]float64{0.1, 0.1, 0.1}})
		)
		for _, value := range []float64{0, 1.7, -3.e5} {
			in := newField(box, 1, func(i, j, k int) float64 { return value })
			for _, label := range GradientSensorPrintNames {
				gs, err := NewGradientSensor(label, dim)
				require.NoError(t, err)
				out := patch.NewCellData(box, 1, patch.IntVector{})
				mean := patch.NewCellData(box, 1, patch.IntVector{})
				out.Fill(1.)
				require.NoError(t, gs.ComputeGradient(p, in, out, 1))
				for _, v := range out.Data[0] {
					assert.Equal(t, 0., v, label)
				}
				out.Fill(1.)
				require.NoError(t, gs.ComputeGradientWithVariableLocalMean(p, in, out, mean, 1))
				for n, v := range out.Data[0] {
					assert.Equal(t, 0., v, label)
					assert.InDelta(t, math.Abs(value), mean.Data[0][n], 1.e-9)
				}
			}
		}
	}
}

func TestDifferenceFirstOrder(t *testing.T) {
	var (
		box = patch.NewBox(2, patch.IntVector{0, 0}, patch.IntVector{5, 5})
		p   = patch.NewPatch(0, box, patch.Geometry{Dx: [3]float64{0.1, 0.1}})
		in  = newField(box, 1, func(i, j, k int) float64 { return 3.*float64(i) + 4.*float64(j) })
		out = patch.NewCellData(box, 1, patch.IntVector{})
	)
	gs, err := NewGradientSensor("DIFFERENCE_FIRST_ORDER", 2)
	require.NoError(t, err)
	require.NoError(t, gs.ComputeGradient(p, in, out, 1))
	for _, v := range out.Data[0] {
		assert.InDelta(t, 5., v, 1.e-12)
	}
}

func TestJamesonDetectsJump(t *testing.T) {
	var (
		box = patch.NewBox(1, patch.IntVector{0}, patch.IntVector{9})
		p   = patch.NewPatch(0, box, patch.Geometry{Dx: [3]float64{0.1}})
		in  = newField(box, 1, func(i, j, k int) float64 {
			if i < 5 {
				return 1.
			}
			return 0.1
		})
		out = patch.NewCellData(box, 1, patch.NewIntVector(1, 1))
	)
	gs, err := NewGradientSensor("JAMESON", 1)
	require.NoError(t, err)
	require.NoError(t, gs.ComputeGradient(p, in, out, 1))
	// the ghost layer of out has no full stencil in in and stays untouched
	assert.Equal(t, 0., out.At(0, -1, 0, 0))
	assert.Equal(t, 0., out.At(0, 2, 0, 0))
	assert.InDelta(t, 0.9/3.1, out.At(0, 4, 0, 0), 1.e-12)
	assert.InDelta(t, 0.9/1.3, out.At(0, 5, 0, 0), 1.e-12)
	assert.Less(t, out.At(0, 4, 0, 0), 1.)
}

func TestSensorPreconditions(t *testing.T) {
	var (
		box = patch.NewBox(2, patch.IntVector{0, 0}, patch.IntVector{3, 3})
		p   = patch.NewPatch(0, box, patch.Geometry{})
		out = patch.NewCellData(box, 1, patch.IntVector{})
	)
	gs, err := NewGradientSensor("JAMESON", 2)
	require.NoError(t, err)
	noGhost := newField(box, 0, func(i, j, k int) float64 { return 1. })
	assert.True(t, errors.Is(gs.ComputeGradient(p, noGhost, out, 1), ErrInsufficientGhostWidth))
	in := newField(box, 1, func(i, j, k int) float64 { return 1. })
	for _, label := range GradientSensorPrintNames {
		gsd, err := NewGradientSensor(label, 2)
		require.NoError(t, err)
		for _, depth := range []int{-1, 2} {
			require.NotPanics(t, func() {
				err = gsd.ComputeGradient(p, in, out, depth)
			}, label)
			assert.True(t, errors.Is(err, ErrIncompatibleSensorField), label)
			require.NotPanics(t, func() {
				err = gsd.ComputeGradientWithVariableLocalMean(p, in, out,
					patch.NewCellData(box, 1, patch.IntVector{}), depth)
			}, label)
			assert.True(t, errors.Is(err, ErrIncompatibleSensorField), label)
		}
	}
	small := patch.NewCellData(box, 1, patch.IntVector{})
	wide := patch.NewCellData(box, 1, patch.NewIntVector(2, 1))
	assert.True(t, errors.Is(gs.ComputeGradientWithVariableLocalMean(p, in, wide, small, 1),
		ErrIncompatibleSensorField))
	other := patch.NewPatch(1, patch.NewBox(1, patch.IntVector{0}, patch.IntVector{3}), patch.Geometry{})
	assert.True(t, errors.Is(gs.ComputeGradient(other, in, out, 1), ErrIncompatibleSensorField))
}
