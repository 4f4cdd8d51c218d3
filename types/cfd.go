package types

import (
	"fmt"
	"strings"
)

type Direction uint8

const (
	XDIR Direction = iota
	YDIR
	ZDIR
)

func (d Direction) String() string {
	return [...]string{"X", "Y", "Z"}[d]
}

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Flow
	BC_Reflect
	BC_Symmetry
	BC_Dirichlet
	BC_Neuman
	// Axis qualified kinds for edges and nodes, they defer to the face on that axis
	BC_XFlow
	BC_YFlow
	BC_ZFlow
	BC_XReflect
	BC_YReflect
	BC_ZReflect
	BC_XSymmetry
	BC_YSymmetry
	BC_ZSymmetry
	BC_XDirichlet
	BC_YDirichlet
	BC_ZDirichlet
	BC_XNeuman
	BC_YNeuman
	BC_ZNeuman
)

var bcPrintNames = []string{
	"NONE", "FLOW", "REFLECT", "SYMMETRY", "DIRICHLET", "NEUMANN",
	"XFLOW", "YFLOW", "ZFLOW",
	"XREFLECT", "YREFLECT", "ZREFLECT",
	"XSYMMETRY", "YSYMMETRY", "ZSYMMETRY",
	"XDIRICHLET", "YDIRICHLET", "ZDIRICHLET",
	"XNEUMANN", "YNEUMANN", "ZNEUMANN",
}

func (bc BCFLAG) String() string {
	if int(bc) < len(bcPrintNames) {
		return bcPrintNames[bc]
	}
	return "UNKNOWN"
}

var BCNameMap = map[string]BCFLAG{
	"flow":       BC_Flow,
	"outflow":    BC_Flow,
	"reflect":    BC_Reflect,
	"wall":       BC_Reflect,
	"symmetry":   BC_Symmetry,
	"dirichlet":  BC_Dirichlet,
	"neumann":    BC_Neuman,
	"neuman":     BC_Neuman,
	"xflow":      BC_XFlow,
	"yflow":      BC_YFlow,
	"zflow":      BC_ZFlow,
	"xreflect":   BC_XReflect,
	"yreflect":   BC_YReflect,
	"zreflect":   BC_ZReflect,
	"xsymmetry":  BC_XSymmetry,
	"ysymmetry":  BC_YSymmetry,
	"zsymmetry":  BC_ZSymmetry,
	"xdirichlet": BC_XDirichlet,
	"ydirichlet": BC_YDirichlet,
	"zdirichlet": BC_ZDirichlet,
	"xneumann":   BC_XNeuman,
	"yneumann":   BC_YNeuman,
	"zneumann":   BC_ZNeuman,
}

// NewBCFLAG accepts "XREFLECT", "X-reflect", "x_reflect" and similar spellings
func NewBCFLAG(label string) (bc BCFLAG, err error) {
	var (
		ok  bool
		key = strings.ToLower(strings.TrimSpace(label))
	)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if bc, ok = BCNameMap[key]; !ok {
		err = fmt.Errorf("unknown boundary condition %q", label)
	}
	return
}

// Axis returns the direction of an axis qualified kind
func (bc BCFLAG) Axis() (d Direction, qualified bool) {
	if bc < BC_XFlow || bc > BC_ZNeuman {
		return
	}
	return Direction((bc - BC_XFlow) % 3), true
}

// Base strips the axis qualifier, BC_YReflect becomes BC_Reflect
func (bc BCFLAG) Base() BCFLAG {
	if _, qualified := bc.Axis(); !qualified {
		return bc
	}
	return BC_Flow + (bc-BC_XFlow)/3
}

func (bc BCFLAG) NeedsState() bool {
	base := bc.Base()
	return base == BC_Dirichlet || base == BC_Neuman
}
