package flux

import (
	"fmt"
	"io"

	"github.com/notargets/amrflow/flowmodel"
	"github.com/notargets/amrflow/patch"
	"github.com/notargets/amrflow/restart"
)

// SecondOrderDiffusiveReconstructor evaluates the Navier-Stokes viscous and
// heat conduction fluxes with central differences. Normal derivatives use
// the two cells adjacent to a face, transverse derivatives the average of
// the central differences in those cells.
type SecondOrderDiffusiveReconstructor struct {
	fm    *flowmodel.FlowModel
	ghost int
	Y, Z  []float64
}

func NewSecondOrderDiffusiveReconstructor(fm *flowmodel.FlowModel) *SecondOrderDiffusiveReconstructor {
	return &SecondOrderDiffusiveReconstructor{
		fm:    fm,
		ghost: 1,
		Y:     make([]float64, fm.NS),
		Z:     make([]float64, fm.NS),
	}
}

func (sr *SecondOrderDiffusiveReconstructor) Type() DiffusiveFluxType { return SECOND_ORDER }

func (sr *SecondOrderDiffusiveReconstructor) NumberOfGhostCells() int { return sr.ghost }

// transport returns mu and k of cell c
func (sr *SecondOrderDiffusiveReconstructor) transport(massFractions, volumeFractions *patch.CellData,
	c [3]int) (mu, k float64) {
	var (
		du   = sr.fm.DiffusiveFluxUtilities()
		Y, Z []float64
	)
	if massFractions != nil {
		Y = sr.Y
		gather(Y, massFractions, c)
	}
	if volumeFractions != nil {
		Z = sr.Z
		gather(Z, volumeFractions, c)
	}
	return du.ShearViscosity(Y), du.ThermalConductivity(Y, Z)
}

func (sr *SecondOrderDiffusiveReconstructor) ComputeFluxOnPatch(p *patch.Patch, flux *patch.SideData,
	ctx patch.DataContext, t, dt float64, stage int) (err error) {
	var (
		fm                 = sr.fm
		dim                = p.Dim()
		ghost              = patch.NewIntVector(dim, sr.ghost)
		vel, temp, Y, Z    *patch.CellData
		iMom, iE           = fm.MomentumIndex(), fm.EnergyIndex()
		dx                 = p.Geometry.Dx
		cons               []*patch.CellData
		gradU              [3][3]float64 // gradU[m][n] = du_m/dx_n
		velFace            [3]float64
		muA, kA, muB, kB   float64
		mu, kappa, divU, T float64
	)
	if err = fm.RegisterPatch(p, ctx); err != nil {
		return
	}
	defer fm.UnregisterPatch()
	if err = checkOutputs(fm, p, flux, nil); err != nil {
		return
	}
	if err = checkGhostWidth(fm, sr.ghost); err != nil {
		return
	}
	if err = fm.DiffusiveFluxUtilities().RegisterDerivedVariablesForDiffusiveFluxes(ghost); err != nil {
		return
	}
	if err = fm.ComputeDerivedCellData(); err != nil {
		return
	}
	if vel, err = fm.DerivedCellData(flowmodel.VELOCITY); err != nil {
		return
	}
	if temp, err = fm.DerivedCellData(flowmodel.TEMPERATURE); err != nil {
		return
	}
	if fm.NS > 1 {
		if Y, err = fm.DerivedCellData(flowmodel.MASS_FRACTIONS); err != nil {
			return
		}
		if fm.HasVolumeFractions() {
			if cons, err = fm.ConservativeCellData(); err != nil {
				return
			}
			Z = cons[3]
		}
	}
	for d := 0; d < dim; d++ {
		patch.ForEachCell(flux.SideBox(d), func(i, j, k int) {
			var (
				b   = [3]int{i, j, k}
				a   = offsetCell(b, d, -1)
				ind = flux.Index(d, i, j, k)
			)
			divU = 0
			for m := 0; m < dim; m++ {
				velFace[m] = 0.5 * (vel.At(m, a[0], a[1], a[2]) + vel.At(m, b[0], b[1], b[2]))
				for n := 0; n < dim; n++ {
					if n == d {
						gradU[m][n] = (vel.At(m, b[0], b[1], b[2]) - vel.At(m, a[0], a[1], a[2])) / dx[d]
						continue
					}
					ap, am := offsetCell(a, n, 1), offsetCell(a, n, -1)
					bp, bm := offsetCell(b, n, 1), offsetCell(b, n, -1)
					gradU[m][n] = 0.25 * (vel.At(m, ap[0], ap[1], ap[2]) - vel.At(m, am[0], am[1], am[2]) +
						vel.At(m, bp[0], bp[1], bp[2]) - vel.At(m, bm[0], bm[1], bm[2])) / dx[n]
				}
				divU += gradU[m][m]
			}
			muA, kA = sr.transport(Y, Z, a)
			muB, kB = sr.transport(Y, Z, b)
			mu, kappa = 0.5*(muA+muB), 0.5*(kA+kB)
			T = (temp.At(0, b[0], b[1], b[2]) - temp.At(0, a[0], a[1], a[2])) / dx[d]

			var work float64
			for m := 0; m < dim; m++ {
				tau := mu * (gradU[d][m] + gradU[m][d])
				if m == d {
					tau -= 2. / 3. * mu * divU
				}
				flux.Data[d][iMom+m][ind] -= dt * tau
				work += tau * velFace[m]
			}
			flux.Data[d][iE][ind] -= dt * (work + kappa*T)
		})
	}
	return
}

func (sr *SecondOrderDiffusiveReconstructor) PrintClassData(w io.Writer) {
	fmt.Fprintf(w, "DiffusiveFluxReconstructor\n")
	fmt.Fprintf(w, "[%s]\t\t= Scheme\n", SECOND_ORDER)
	fmt.Fprintf(w, "[%d]\t\t\t= Number of Ghost Cells\n", sr.ghost)
}

func (sr *SecondOrderDiffusiveReconstructor) PutToRestart(db *restart.Database) {
	db.PutString("diffusive_flux_reconstructor", SECOND_ORDER.String())
	db.PutInteger("number_of_ghost_cells", sr.ghost)
}
