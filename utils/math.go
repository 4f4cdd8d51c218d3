package utils

// POW is x to an integer power by repeated squaring, used for the WENO
// weights where the exponent is small and fixed
func POW(x float64, p int) (y float64) {
	var (
		n = p
	)
	if n < 0 {
		n = -n
	}
	y = 1.
	for base := x; n > 0; n >>= 1 {
		if n&1 == 1 {
			y *= base
		}
		base *= base
	}
	if p < 0 {
		y = 1. / y
	}
	return
}
