// Package sensor computes scalar feature fields from a cell centered input
// field, used to tag cells near shocks and interfaces for refinement.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/notargets/amrflow/patch"
)

var (
	ErrUnknownSensor           = errors.New("unknown gradient sensor")
	ErrInsufficientGhostWidth  = errors.New("input data has insufficient ghost width for the sensor stencil")
	ErrIncompatibleSensorField = errors.New("incompatible sensor field")
)

// Added to denominators that vanish on a zero field
const epsilon = 1.e-40

type GradientSensorType uint8

const (
	DIFFERENCE_FIRST_ORDER GradientSensorType = iota
	JAMESON
)

var (
	GradientSensorNames = map[string]GradientSensorType{
		"difference_first_order": DIFFERENCE_FIRST_ORDER,
		"first_order":            DIFFERENCE_FIRST_ORDER,
		"jameson":                JAMESON,
		"jameson_gradient":       JAMESON,
	}
	GradientSensorPrintNames = []string{"DIFFERENCE_FIRST_ORDER", "JAMESON"}
)

func (st GradientSensorType) String() string { return GradientSensorPrintNames[st] }

func NewGradientSensorType(label string) (st GradientSensorType, err error) {
	var ok bool
	if st, ok = GradientSensorNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("%w: %q, expected one of %v", ErrUnknownSensor, label, GradientSensorPrintNames)
	}
	return
}

// GradientSensor writes a nonnegative variation measure of component depth of
// in to component 0 of out. Both are computed over the cells of out whose
// three point stencil lies in the ghost box of in.
type GradientSensor interface {
	Name() string
	Type() GradientSensorType
	ComputeGradient(p *patch.Patch, in, out *patch.CellData, depth int) error
	// ComputeGradientWithVariableLocalMean also writes the local mean magnitude
	// of the input to mean and divides the measure by it
	ComputeGradientWithVariableLocalMean(p *patch.Patch, in, out, mean *patch.CellData, depth int) error
}

func NewGradientSensor(label string, dim int) (gs GradientSensor, err error) {
	var (
		st GradientSensorType
	)
	if st, err = NewGradientSensorType(label); err != nil {
		return
	}
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: dimension %d", ErrUnknownSensor, dim)
	}
	base := sensorBase{dim: dim, st: st}
	switch st {
	case DIFFERENCE_FIRST_ORDER:
		gs = &DifferenceFirstOrder{sensorBase: base}
	case JAMESON:
		gs = &Jameson{sensorBase: base}
	}
	return
}

type sensorBase struct {
	dim int
	st  GradientSensorType
}

func (sb *sensorBase) Name() string { return sb.st.String() }

func (sb *sensorBase) Type() GradientSensorType { return sb.st }

// region is the part of out's ghost box where in provides a full stencil
func (sb *sensorBase) region(p *patch.Patch, in, out *patch.CellData, depth int) (b patch.Box, err error) {
	if p.Dim() != sb.dim {
		return b, fmt.Errorf("%w: patch dimension %d, sensor dimension %d",
			ErrIncompatibleSensorField, p.Dim(), sb.dim)
	}
	if !in.Box.Equal(p.Box) || !out.Box.Equal(p.Box) {
		return b, fmt.Errorf("%w: fields %s and %s on patch %s", ErrIncompatibleSensorField,
			in.Box, out.Box, p.Box)
	}
	if depth < 0 || depth >= in.Depth {
		return b, fmt.Errorf("%w: depth %d of input with depth %d", ErrIncompatibleSensorField,
			depth, in.Depth)
	}
	if in.Ghost.Min(sb.dim) < 1 {
		return b, fmt.Errorf("%w: input ghost width %v", ErrInsufficientGhostWidth, in.Ghost)
	}
	b = in.GhostBox().Grow(patch.NewIntVector(sb.dim, -1)).Intersect(out.GhostBox())
	return
}

func checkMean(out, mean *patch.CellData) error {
	if !mean.Box.Equal(out.Box) || !mean.GhostBox().Contains(out.GhostBox()) {
		return fmt.Errorf("%w: mean %s does not cover output %s", ErrIncompatibleSensorField,
			mean.GhostBox(), out.GhostBox())
	}
	return nil
}

// DifferenceFirstOrder is the magnitude of the undivided central first
// difference, sqrt(sum_d ((u(i+1) - u(i-1))/2)^2)
type DifferenceFirstOrder struct {
	sensorBase
}

func (df *DifferenceFirstOrder) compute(p *patch.Patch, in, out, mean *patch.CellData, depth int) (err error) {
	var (
		b patch.Box
	)
	if b, err = df.region(p, in, out, depth); err != nil {
		return
	}
	u := in.Data[depth]
	patch.ForEachCell(b, func(i, j, k int) {
		var (
			ind      = in.Index(i, j, k)
			sum, avg float64
		)
		for d := 0; d < df.dim; d++ {
			s := in.Stride(d)
			diff := 0.5 * (u[ind+s] - u[ind-s])
			sum += diff * diff
			avg += 0.25 * (math.Abs(u[ind-s]) + 2.*math.Abs(u[ind]) + math.Abs(u[ind+s]))
		}
		grad := math.Sqrt(sum)
		if mean != nil {
			avg /= float64(df.dim)
			mean.Set(0, i, j, k, avg)
			grad /= avg + epsilon
		}
		out.Set(0, i, j, k, grad)
	})
	return
}

func (df *DifferenceFirstOrder) ComputeGradient(p *patch.Patch, in, out *patch.CellData, depth int) error {
	return df.compute(p, in, out, nil, depth)
}

func (df *DifferenceFirstOrder) ComputeGradientWithVariableLocalMean(p *patch.Patch,
	in, out, mean *patch.CellData, depth int) error {
	if err := checkMean(out, mean); err != nil {
		return err
	}
	return df.compute(p, in, out, mean, depth)
}

// Jameson is the pressure switch of the JST scheme, the largest over the
// directions of |u(i+1) - 2u(i) + u(i-1)| / (|u(i+1)| + 2|u(i)| + |u(i-1)|)
type Jameson struct {
	sensorBase
}

func (js *Jameson) compute(p *patch.Patch, in, out, mean *patch.CellData, depth int) (err error) {
	var (
		b patch.Box
	)
	if b, err = js.region(p, in, out, depth); err != nil {
		return
	}
	u := in.Data[depth]
	patch.ForEachCell(b, func(i, j, k int) {
		var (
			ind     = in.Index(i, j, k)
			psi     float64
			avg     float64
			second  [3]float64
			weights [3]float64
		)
		for d := 0; d < js.dim; d++ {
			s := in.Stride(d)
			second[d] = math.Abs(u[ind+s] - 2.*u[ind] + u[ind-s])
			weights[d] = math.Abs(u[ind+s]) + 2.*math.Abs(u[ind]) + math.Abs(u[ind-s])
			avg += 0.25 * weights[d]
		}
		avg /= float64(js.dim)
		for d := 0; d < js.dim; d++ {
			denom := weights[d]
			if mean != nil {
				denom = 4. * avg
			}
			psi = math.Max(psi, second[d]/(denom+epsilon))
		}
		if mean != nil {
			mean.Set(0, i, j, k, avg)
		}
		out.Set(0, i, j, k, psi)
	})
	return
}

func (js *Jameson) ComputeGradient(p *patch.Patch, in, out *patch.CellData, depth int) error {
	return js.compute(p, in, out, nil, depth)
}

func (js *Jameson) ComputeGradientWithVariableLocalMean(p *patch.Patch,
	in, out, mean *patch.CellData, depth int) error {
	if err := checkMean(out, mean); err != nil {
		return err
	}
	return js.compute(p, in, out, mean, depth)
}
