package trueskill

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quality returns the draw probability of a match in [0, 1], the usual
// TrueSkill measure of how even the teams are. weights may be nil.
func (t *TrueSkill) Quality(groups [][]Rating, weights [][]float64) (float64, error) {
	if err := t.validate(groups, nil, weights); err != nil {
		return 0, err
	}

	var flat []Rating
	var flatWeights []float64
	for g, group := range groups {
		for i, r := range group {
			flat = append(flat, r)
			w := 1.0
			if weights != nil {
				w = weights[g][i]
			}
			flatWeights = append(flatWeights, w)
		}
	}
	n := len(flat)
	rows := len(groups) - 1

	mean := mat.NewDense(n, 1, nil)
	variance := mat.NewDense(n, n, nil)
	for i, r := range flat {
		mean.Set(i, 0, r.Mu)
		variance.Set(i, i, r.Sigma*r.Sigma)
	}

	// Each row compares team r against team r+1.
	rotated := mat.NewDense(rows, n, nil)
	start := 0
	for r := 0; r < rows; r++ {
		cur, next := len(groups[r]), len(groups[r+1])
		for x := start; x < start+cur; x++ {
			rotated.Set(r, x, flatWeights[x])
		}
		for x := start + cur; x < start+cur+next; x++ {
			rotated.Set(r, x, -flatWeights[x])
		}
		start += cur
	}
	a := rotated.T()

	var ata mat.Dense
	ata.Mul(rotated, a)
	ata.Scale(t.beta*t.beta, &ata)

	var sa, atsa mat.Dense
	sa.Mul(variance, a)
	atsa.Mul(rotated, &sa)

	var middle mat.Dense
	middle.Add(&ata, &atsa)

	var inv mat.Dense
	if err := inv.Inverse(&middle); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return 0, fmt.Errorf("%w: quality matrix is singular", ErrNumerical)
		}
	}

	var startVec, end mat.Dense
	startVec.Mul(mean.T(), a)
	end.Mul(rotated, mean)

	var left, e mat.Dense
	left.Mul(&startVec, &inv)
	e.Mul(&left, &end)
	eArg := -0.5 * e.At(0, 0)

	sArg := mat.Det(&ata) / mat.Det(&middle)
	q := math.Exp(eArg) * math.Sqrt(sArg)
	if !finite(q) {
		return 0, fmt.Errorf("%w: quality is not finite", ErrNumerical)
	}
	return q, nil
}
