package flux

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/restart"
	"github.com/notargets/amrflow/types"
)

// faceStates fills the primitive states left and right of face f along d.
// Face f lies between cells f - e_d and f.
type faceStates func(qL, qR []float64, prim *patch.CellData, d int, f [3]int, valid patch.Box)

type convectiveBase struct {
	fm     *flowmodel.FlowModel
	ghost  int
	neq    int
	qL, qR []float64
	fPt    []float64
}

func newConvectiveBase(fm *flowmodel.FlowModel, ghost int) convectiveBase {
	neq := fm.NumberOfEquations()
	return convectiveBase{
		fm:    fm,
		ghost: ghost,
		neq:   neq,
		qL:    make([]float64, neq),
		qR:    make([]float64, neq),
		fPt:   make([]float64, neq),
	}
}

func (cb *convectiveBase) NumberOfGhostCells() int { return cb.ghost }

func offsetCell(f [3]int, d, n int) (c [3]int) {
	c = f
	c[d] += n
	return
}

func gather(q []float64, cd *patch.CellData, c [3]int) {
	ind := cd.Index(c[0], c[1], c[2])
	for n := range q {
		q[n] = cd.Data[n][ind]
	}
}

func (cb *convectiveBase) compute(p *patch.Patch, flux *patch.SideData, source *patch.CellData,
	ctx patch.DataContext, dt float64, states faceStates, register func(ghost patch.IntVector) error) (err error) {
	var (
		fm    = cb.fm
		basic = fm.BasicUtilities()
		ghost = patch.NewIntVector(p.Dim(), cb.ghost)
		valid patch.Box
		uFace *patch.SideData
	)
	if err = fm.RegisterPatch(p, ctx); err != nil {
		return
	}
	defer fm.UnregisterPatch()
	if err = checkOutputs(fm, p, flux, source); err != nil {
		return
	}
	if err = checkGhostWidth(fm, cb.ghost); err != nil {
		return
	}
	valid = p.ValidDataBox(ghost)
	if !valid.Contains(p.Box.Grow(patch.NewIntVector(p.Dim(), 1))) {
		return fmt.Errorf("%w: valid data %s does not cover one ghost layer around %s",
			flowmodel.ErrInsufficientGhostWidth, valid, p.Box)
	}
	if err = fm.SetSubdomainBox(valid); err != nil {
		return
	}
	if err = fm.RegisterDerivedVariables([]flowmodel.DerivedVariable{flowmodel.PRESSURE}, ghost); err != nil {
		return
	}
	if register != nil {
		if err = register(ghost); err != nil {
			return
		}
	}
	if err = fm.ComputeDerivedCellData(); err != nil {
		return
	}
	prim := patch.NewCellData(p.Box, cb.neq, ghost)
	if err = basic.ComputePrimitiveCellData(prim, valid); err != nil {
		return
	}
	if fm.HasVolumeFractions() && source != nil {
		uFace = patch.NewSideData(p.Box, 1)
	}
	for d := 0; d < p.Dim(); d++ {
		patch.ForEachCell(flux.SideBox(d), func(i, j, k int) {
			var (
				f = [3]int{i, j, k}
			)
			states(cb.qL, cb.qR, prim, d, f, valid)
			if !basic.CheckPhysicalBounds(cb.qL) || !basic.CheckPhysicalBounds(cb.qR) {
				gather(cb.qL, prim, offsetCell(f, d, -1))
				gather(cb.qR, prim, f)
			}
			u := fm.RiemannSolver().ComputeConvectiveFlux(cb.fPt, cb.qL, cb.qR, types.Direction(d))
			ind := flux.Index(d, i, j, k)
			for n := 0; n < cb.neq; n++ {
				flux.Data[d][n][ind] = dt * cb.fPt[n]
			}
			if uFace != nil {
				uFace.Data[d][0][ind] = u
			}
		})
	}
	if uFace != nil {
		cb.addVolumeFractionSource(p, prim, uFace, source, dt)
	}
	return
}

// addVolumeFractionSource adds dt Z_i div(u) using the interface velocities
// of the Riemann solutions
func (cb *convectiveBase) addVolumeFractionSource(p *patch.Patch, prim *patch.CellData,
	uFace *patch.SideData, source *patch.CellData, dt float64) {
	var (
		fm = cb.fm
		iZ = fm.VolumeFractionIndex()
	)
	patch.ForEachCell(p.Box, func(i, j, k int) {
		var (
			c     = [3]int{i, j, k}
			divU  float64
			indP  = prim.Index(i, j, k)
			indS  = source.Index(i, j, k)
			upper [3]int
		)
		for d := 0; d < p.Dim(); d++ {
			upper = offsetCell(c, d, 1)
			divU += (uFace.Data[d][0][uFace.Index(d, upper[0], upper[1], upper[2])] -
				uFace.Data[d][0][uFace.Index(d, i, j, k)]) / p.Geometry.Dx[d]
		}
		for n := 0; n < fm.NS; n++ {
			source.Data[iZ+n][indS] += dt * prim.Data[iZ+n][indP] * divU
		}
	})
}

func (cb *convectiveBase) putToRestart(db *restart.Database, ct ConvectiveFluxType) {
	db.PutString("convective_flux_reconstructor", ct.String())
	db.PutInteger("number_of_ghost_cells", cb.ghost)
}

type FirstOrderReconstructor struct {
	convectiveBase
}

func NewFirstOrderReconstructor(fm *flowmodel.FlowModel) *FirstOrderReconstructor {
	return &FirstOrderReconstructor{convectiveBase: newConvectiveBase(fm, 1)}
}

func (fo *FirstOrderReconstructor) Type() ConvectiveFluxType { return FIRST_ORDER }

func (fo *FirstOrderReconstructor) ComputeFluxAndSourceOnPatch(p *patch.Patch, flux *patch.SideData,
	source *patch.CellData, ctx patch.DataContext, t, dt float64, stage int) error {
	return fo.compute(p, flux, source, ctx, dt,
		func(qL, qR []float64, prim *patch.CellData, d int, f [3]int, _ patch.Box) {
			gather(qL, prim, offsetCell(f, d, -1))
			gather(qR, prim, f)
		}, nil)
}

func (fo *FirstOrderReconstructor) PrintClassData(w io.Writer) {
	fmt.Fprintf(w, "ConvectiveFluxReconstructor\n")
	fmt.Fprintf(w, "[%s]\t\t= Scheme\n", FIRST_ORDER)
	fmt.Fprintf(w, "[%d]\t\t\t= Number of Ghost Cells\n", fo.ghost)
	fmt.Fprintf(w, "[%s]\t\t\t= Riemann Solver\n", fo.fm.RiemannSolver().Type())
}

func (fo *FirstOrderReconstructor) PutToRestart(db *restart.Database) {
	fo.putToRestart(db, FIRST_ORDER)
}

// WENO5JSReconstructor reconstructs the interface states with fifth order
// WENO-JS in primitive or characteristic variables
type WENO5JSReconstructor struct {
	convectiveBase
	Characteristic bool
	Epsilon        float64
	Exponent       int
	stencil        [6][]float64 // cells f-3 .. f+2 of the current face
	charStencil    [6][]float64
	valid          [6]bool
	L, R           *mat.Dense
	avg            []float64
	Y              []float64
}

func NewWENO5JSReconstructor(fm *flowmodel.FlowModel, characteristic bool,
	epsilon float64, exponent int) (wr *WENO5JSReconstructor) {
	if epsilon <= 0 {
		epsilon = DefaultWENOEpsilon
	}
	if exponent <= 0 {
		exponent = DefaultWENOExponent
	}
	wr = &WENO5JSReconstructor{
		convectiveBase: newConvectiveBase(fm, 3),
		Characteristic: characteristic,
		Epsilon:        epsilon,
		Exponent:       exponent,
	}
	for s := range wr.stencil {
		wr.stencil[s] = make([]float64, wr.neq)
		wr.charStencil[s] = make([]float64, wr.neq)
	}
	if characteristic {
		wr.L = mat.NewDense(wr.neq, wr.neq, nil)
		wr.R = mat.NewDense(wr.neq, wr.neq, nil)
		wr.avg = make([]float64, wr.neq)
		wr.Y = make([]float64, fm.NS)
	}
	return
}

func (wr *WENO5JSReconstructor) Type() ConvectiveFluxType { return WENO5_JS }

func (wr *WENO5JSReconstructor) ComputeFluxAndSourceOnPatch(p *patch.Patch, flux *patch.SideData,
	source *patch.CellData, ctx patch.DataContext, t, dt float64, stage int) error {
	var (
		register func(ghost patch.IntVector) error
	)
	if wr.Characteristic {
		register = wr.fm.BasicUtilities().RegisterDerivedVariablesForCharacteristicProjection
	}
	return wr.compute(p, flux, source, ctx, dt, wr.faceStates, register)
}

func (wr *WENO5JSReconstructor) faceStates(qL, qR []float64, prim *patch.CellData, d int,
	f [3]int, valid patch.Box) {
	var (
		stencil = wr.stencil
		v       [5]float64
		ok      [5]bool
	)
	for s := 0; s < 6; s++ {
		c := offsetCell(f, d, s-3)
		wr.valid[s] = valid.ContainsCell(c[0], c[1], c[2])
		if wr.valid[s] {
			gather(stencil[s], prim, c)
		}
	}
	if wr.Characteristic {
		wr.eigenvectors(prim, d, f)
		for s := 0; s < 6; s++ {
			if wr.valid[s] {
				flowmodel.ProjectToCharacteristic(wr.charStencil[s], stencil[s], wr.L)
			}
		}
		stencil = wr.charStencil
	}
	for n := 0; n < wr.neq; n++ {
		// left state is centered on cell f-1, slots 0..4
		for m := 0; m < 5; m++ {
			v[m], ok[m] = stencil[m][n], wr.valid[m]
		}
		qL[n] = ReconstructFace(&v, &ok, wr.Epsilon, wr.Exponent)
		// right state is the mirror image centered on cell f, slots 5..1
		for m := 0; m < 5; m++ {
			v[m], ok[m] = stencil[5-m][n], wr.valid[5-m]
		}
		qR[n] = ReconstructFace(&v, &ok, wr.Epsilon, wr.Exponent)
	}
	if wr.Characteristic {
		copy(wr.avg, qL)
		flowmodel.ProjectFromCharacteristic(qL, wr.avg, wr.R)
		copy(wr.avg, qR)
		flowmodel.ProjectFromCharacteristic(qR, wr.avg, wr.R)
	}
}

// eigenvectors builds L and R from the arithmetic average of the two cells
// adjacent to face f
func (wr *WENO5JSReconstructor) eigenvectors(prim *patch.CellData, d int, f [3]int) {
	var (
		fm       = wr.fm
		left     = wr.stencil[2]
		right    = wr.stencil[3]
		rho      float64
		rhoL     float64
		rhoR     float64
		c        float64
		sound, _ = fm.DerivedCellData(flowmodel.SOUND_SPEED)
		cl       = offsetCell(f, d, -1)
	)
	for n := 0; n < fm.NS; n++ {
		rhoL += left[n]
		rhoR += right[n]
	}
	rho = 0.5 * (rhoL + rhoR)
	for n := 0; n < fm.NS; n++ {
		wr.Y[n] = 0.5 * (left[n]/rhoL + right[n]/rhoR)
	}
	c = 0.5 * (sound.At(0, cl[0], cl[1], cl[2]) + sound.At(0, f[0], f[1], f[2]))
	fm.BasicUtilities().ComputeCharacteristicEigenvectors(wr.L, wr.R, rho, wr.Y, c, d)
}

func (wr *WENO5JSReconstructor) PrintClassData(w io.Writer) {
	fmt.Fprintf(w, "ConvectiveFluxReconstructor\n")
	fmt.Fprintf(w, "[%s]\t\t= Scheme\n", WENO5_JS)
	fmt.Fprintf(w, "[%d]\t\t\t= Number of Ghost Cells\n", wr.ghost)
	fmt.Fprintf(w, "[%s]\t\t\t= Riemann Solver\n", wr.fm.RiemannSolver().Type())
	fmt.Fprintf(w, "[%v]\t\t\t= Characteristic Projection\n", wr.Characteristic)
	fmt.Fprintf(w, "%8.2e\t\t= Epsilon\n", wr.Epsilon)
	fmt.Fprintf(w, "[%d]\t\t\t= Exponent\n", wr.Exponent)
}

func (wr *WENO5JSReconstructor) PutToRestart(db *restart.Database) {
	wr.putToRestart(db, WENO5_JS)
	db.PutBool("characteristic", wr.Characteristic)
	db.PutDouble("epsilon", wr.Epsilon)
	db.PutInteger("exponent", wr.Exponent)
}
