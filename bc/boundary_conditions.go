// Package bc builds the boundary condition table of a box shaped domain from
// the input file and checks that edge and node conditions agree with the
// faces they touch.
package bc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/types"
)

var ErrBoundaryCondition = errors.New("invalid boundary condition")

// StateReader parses the numeric state carried by a Dirichlet or Neumann entry
type StateReader interface {
	ReadBoundaryState(location string, kind types.BCFLAG, entry map[string]interface{}) ([]float64, error)
}

type Side int8

const (
	Free Side = 0
	Lo   Side = -1
	Hi   Side = 1
)

var sideNames = map[Side]string{Lo: "lo", Hi: "hi"}

// Location is one face, edge or node of the domain box. Sides holds the
// side touched in every direction, Free for directions the location spans.
type Location struct {
	Name  string
	Codim int
	Sides [3]Side
}

// Touches lists the directions in which the location lies on a domain side
func (l Location) Touches(dim int) (dirs []int) {
	for d := 0; d < dim; d++ {
		if l.Sides[d] != Free {
			dirs = append(dirs, d)
		}
	}
	return
}

func kindOfLocation(codim, dim int) string {
	switch {
	case codim == dim:
		return "node"
	case codim == 1 && dim == 3:
		return "face"
	}
	return "edge"
}

// Locations returns the boundary locations of a dim dimensional box with
// the given codimension, in the order used by the table: lo before hi,
// lower directions varying fastest
func Locations(dim, codim int) (locs []Location) {
	var (
		combos [][]int
	)
	// combinations of codim directions out of dim
	var choose func(start int, picked []int)
	choose = func(start int, picked []int) {
		if len(picked) == codim {
			combos = append(combos, append([]int{}, picked...))
			return
		}
		for d := start; d < dim; d++ {
			choose(d+1, append(picked, d))
		}
	}
	choose(0, nil)
	for _, dirs := range combos {
		for s := 0; s < 1<<codim; s++ {
			var (
				loc   = Location{Codim: codim}
				parts = make([]string, codim)
			)
			for n, d := range dirs {
				side := Lo
				if s&(1<<n) != 0 {
					side = Hi
				}
				loc.Sides[d] = side
				parts[n] = types.Direction(d).String() + sideNames[side]
			}
			loc.Name = "boundary_" + kindOfLocation(codim, dim) + "_" +
				strings.ToLower(strings.Join(parts, "_"))
			locs = append(locs, loc)
		}
	}
	return
}

type Condition struct {
	Kind  types.BCFLAG
	State []float64 // primitive state for Dirichlet, normal gradient for Neumann
}

// Table holds one condition per boundary location, Conditions[c-1] for
// codimension c. Locations in a periodic direction keep BC_None.
type Table struct {
	Dim        int
	Periodic   patch.IntVector
	Locations  [3][]Location
	Conditions [3][]Condition
}

func (tb *Table) find(name string) (codim, index int, ok bool) {
	for c := 0; c < tb.Dim; c++ {
		for n, loc := range tb.Locations[c] {
			if loc.Name == name {
				return c + 1, n, true
			}
		}
	}
	return
}

func (tb *Table) Condition(name string) (cond Condition, ok bool) {
	var codim, n int
	if codim, n, ok = tb.find(name); ok {
		cond = tb.Conditions[codim-1][n]
	}
	return
}

// FaceCondition returns the codimension one condition on side s of direction d
func (tb *Table) FaceCondition(d int, s Side) Condition {
	for n, loc := range tb.Locations[0] {
		if loc.Sides[d] == s {
			return tb.Conditions[0][n]
		}
	}
	panic(fmt.Errorf("no face on side %d of direction %d in %d dimensions", s, d, tb.Dim))
}

func (tb *Table) periodicLocation(loc Location) bool {
	for _, d := range loc.Touches(tb.Dim) {
		if tb.Periodic[d] != 0 {
			return true
		}
	}
	return false
}

func (tb *Table) Print(w io.Writer) {
	for c := 0; c < tb.Dim; c++ {
		for n, loc := range tb.Locations[c] {
			cond := tb.Conditions[c][n]
			if cond.State != nil {
				fmt.Fprintf(w, "[%s]\t= %s %v\n", cond.Kind, loc.Name, cond.State)
				continue
			}
			fmt.Fprintf(w, "[%s]\t= %s\n", cond.Kind, loc.Name)
		}
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBoundaryCondition, fmt.Sprintf(format, args...))
}

// ReadBoundaryConditions fills the table from entries keyed by location name,
// each with a "boundary_condition" string. Every problem found is reported
// in the returned error.
func ReadBoundaryConditions(dim int, periodic patch.IntVector, entries map[string]map[string]interface{},
	reader StateReader) (tb *Table, err error) {
	if dim < 1 || dim > 3 {
		return nil, invalid("dimension %d", dim)
	}
	tb = &Table{Dim: dim, Periodic: periodic}
	known := make(map[string]bool)
	for c := 1; c <= dim; c++ {
		tb.Locations[c-1] = Locations(dim, c)
		tb.Conditions[c-1] = make([]Condition, len(tb.Locations[c-1]))
		for _, loc := range tb.Locations[c-1] {
			known[loc.Name] = true
		}
	}
	for name := range entries {
		if !known[name] {
			err = multierr.Append(err, invalid("unknown location %q in %d dimensions", name, dim))
		}
	}
	// faces first, edges and nodes are checked against them
	for c := 1; c <= dim; c++ {
		for n, loc := range tb.Locations[c-1] {
			if tb.periodicLocation(loc) {
				continue
			}
			cond, cerr := tb.readCondition(loc, entries, reader)
			if cerr != nil {
				err = multierr.Append(err, cerr)
				continue
			}
			tb.Conditions[c-1][n] = cond
		}
	}
	if err != nil {
		return nil, err
	}
	return
}

func (tb *Table) readCondition(loc Location, entries map[string]map[string]interface{},
	reader StateReader) (cond Condition, err error) {
	var (
		entry, ok = entries[loc.Name]
		label     string
	)
	if !ok {
		return cond, invalid("missing entry for %s", loc.Name)
	}
	raw, ok := entry["boundary_condition"]
	if !ok {
		return cond, invalid("%s has no \"boundary_condition\"", loc.Name)
	}
	if label, err = cast.ToStringE(raw); err != nil {
		return cond, invalid("%s boundary_condition: %v", loc.Name, err)
	}
	if cond.Kind, err = types.NewBCFLAG(label); err != nil {
		return cond, invalid("%s: %v", loc.Name, err)
	}
	axis, qualified := cond.Kind.Axis()
	if loc.Codim == 1 {
		if qualified {
			return cond, invalid("%s is %s, faces take FLOW, REFLECT, SYMMETRY, DIRICHLET or NEUMANN",
				loc.Name, cond.Kind)
		}
		if cond.Kind.NeedsState() {
			if reader == nil {
				return cond, invalid("%s is %s but no state reader is available", loc.Name, cond.Kind)
			}
			if cond.State, err = reader.ReadBoundaryState(loc.Name, cond.Kind, entry); err != nil {
				return cond, fmt.Errorf("%w: %w", ErrBoundaryCondition, err)
			}
		}
		return
	}
	if !qualified {
		return cond, invalid("%s is %s, expected an axis qualified kind such as X%s",
			loc.Name, cond.Kind, cond.Kind)
	}
	d := int(axis)
	if d >= tb.Dim || loc.Sides[d] == Free {
		return cond, invalid("%s is %s but does not lie on a %s face", loc.Name, cond.Kind, axis)
	}
	face := tb.FaceCondition(d, loc.Sides[d])
	if face.Kind != cond.Kind.Base() {
		return cond, invalid("%s is %s but the %s%s face is %s", loc.Name, cond.Kind,
			strings.ToLower(axis.String()), sideNames[loc.Sides[d]], face.Kind)
	}
	cond.State = face.State
	return
}
