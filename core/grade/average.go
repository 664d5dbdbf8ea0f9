package grade

// WeightedAverage computes sum(score*coefficient) / sum(coefficient) over grades with a resolved Subject.
// It yields 0 for no grades or when the coefficients do not sum up to a positive weight.
func WeightedAverage(grades []Grade) float64 {
	var points, coefs float64
	for _, g := range grades {
		coef := float64(g.Subject.Coefficient)
		points += g.Score * coef
		coefs += coef
	}
	if coefs <= 0 {
		return 0
	}
	return points / coefs
}
