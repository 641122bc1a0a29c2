// Package trueskill implements the TrueSkill Bayesian rating engine:
// factor-graph message passing for multi-team rating updates and the
// matrix form of match quality.
package trueskill

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is a normal distribution in natural parameters.
// Pi is the precision (1/sigma²) and Tau the precision-adjusted mean (pi*mu).
type Gaussian struct {
	Pi  float64
	Tau float64
}

// NewGaussian builds a Gaussian from mean and standard deviation.
// sigma must be non-zero; callers validate before reaching here.
func NewGaussian(mu, sigma float64) Gaussian {
	pi := 1 / (sigma * sigma)
	return Gaussian{Pi: pi, Tau: pi * mu}
}

// Mu returns the mean, or 0 for the uninformative distribution.
func (g Gaussian) Mu() float64 {
	if g.Pi == 0 {
		return 0
	}
	return g.Tau / g.Pi
}

// Sigma returns the standard deviation, or +Inf for the uninformative distribution.
func (g Gaussian) Sigma() float64 {
	if g.Pi == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(1 / g.Pi)
}

// Mul multiplies two densities.
func (g Gaussian) Mul(o Gaussian) Gaussian {
	return Gaussian{Pi: g.Pi + o.Pi, Tau: g.Tau + o.Tau}
}

// Div divides two densities.
func (g Gaussian) Div(o Gaussian) Gaussian {
	return Gaussian{Pi: g.Pi - o.Pi, Tau: g.Tau - o.Tau}
}

// CDF is the standard normal cumulative distribution function.
func CDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// PDF is the standard normal probability density function.
func PDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// PPF is the standard normal quantile function (inverse CDF).
func PPF(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
