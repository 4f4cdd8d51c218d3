package flux

import (
	"github.com/notargets/amrflow/utils"
)

const (
	DefaultWENOEpsilon  = 1.e-6
	DefaultWENOExponent = 2
)

// Linear weights of the three WENO5 candidate stencils
var wenoLinearWeights = [3]float64{0.1, 0.6, 0.3}

// weno5Candidates returns the three third order values at i+1/2 from
// v = (v_{i-2}, .., v_{i+2}) with their smoothness indicators
func weno5Candidates(v *[5]float64) (q, beta [3]float64) {
	q[0] = (2.*v[0] - 7.*v[1] + 11.*v[2]) / 6.
	q[1] = (-v[1] + 5.*v[2] + 2.*v[3]) / 6.
	q[2] = (2.*v[2] + 5.*v[3] - v[4]) / 6.

	beta[0] = 13./12.*sq(v[0]-2.*v[1]+v[2]) + 0.25*sq(v[0]-4.*v[1]+3.*v[2])
	beta[1] = 13./12.*sq(v[1]-2.*v[2]+v[3]) + 0.25*sq(v[1]-v[3])
	beta[2] = 13./12.*sq(v[2]-2.*v[3]+v[4]) + 0.25*sq(3.*v[2]-4.*v[3]+v[4])
	return
}

func sq(x float64) float64 { return x * x }

// WENO5JSInterpolate is the Jiang-Shu reconstruction of the value at i+1/2
// from the cell averages v_{i-2} .. v_{i+2}
func WENO5JSInterpolate(v *[5]float64, epsilon float64, exponent int) float64 {
	var (
		q, beta = weno5Candidates(v)
		alpha   [3]float64
		sum     float64
	)
	for k := 0; k < 3; k++ {
		alpha[k] = wenoLinearWeights[k] / utils.POW(epsilon+beta[k], exponent)
		sum += alpha[k]
	}
	return (alpha[0]*q[0] + alpha[1]*q[1] + alpha[2]*q[2]) / sum
}

// WENO3Interpolate uses the two second order stencils around v[2]
func WENO3Interpolate(v *[5]float64, epsilon float64, exponent int) float64 {
	var (
		q0    = -0.5*v[1] + 1.5*v[2]
		q1    = 0.5*v[2] + 0.5*v[3]
		a0    = (1. / 3.) / utils.POW(epsilon+sq(v[2]-v[1]), exponent)
		a1    = (2. / 3.) / utils.POW(epsilon+sq(v[3]-v[2]), exponent)
		total = a0 + a1
	)
	return (a0*q0 + a1*q1) / total
}

// ReconstructFace interpolates the value at i+1/2 using only the stencil
// cells flagged valid. With all five valid it is WENO5-JS. With two of the
// three WENO5 candidates available their linear weights are renormalized.
// Otherwise it drops to WENO3 and finally to the cell value v[2].
func ReconstructFace(v *[5]float64, valid *[5]bool, epsilon float64, exponent int) float64 {
	var (
		avail = [3]bool{
			valid[0] && valid[1] && valid[2],
			valid[1] && valid[2] && valid[3],
			valid[2] && valid[3] && valid[4],
		}
		n int
	)
	for _, a := range avail {
		if a {
			n++
		}
	}
	switch {
	case n == 3:
		return WENO5JSInterpolate(v, epsilon, exponent)
	case n == 2:
		var (
			q, beta  = weno5Candidates(v)
			num, sum float64
		)
		for k := 0; k < 3; k++ {
			if !avail[k] {
				continue
			}
			alpha := wenoLinearWeights[k] / utils.POW(epsilon+beta[k], exponent)
			num += alpha * q[k]
			sum += alpha
		}
		return num / sum
	case valid[1] && valid[3]:
		return WENO3Interpolate(v, epsilon, exponent)
	}
	return v[2]
}
