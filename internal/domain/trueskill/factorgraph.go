package trueskill

import "math"

// variable is a node holding the current marginal.
type variable struct {
	Gaussian
}

// set replaces the marginal and reports how far it moved.
func (v *variable) set(g Gaussian) float64 {
	d := v.delta(g)
	v.Gaussian = g
	return d
}

func (v *variable) delta(g Gaussian) float64 {
	piDelta := math.Abs(v.Pi - g.Pi)
	if math.IsInf(piDelta, 1) {
		return 0
	}
	return math.Max(math.Abs(v.Tau-g.Tau), math.Sqrt(piDelta))
}

// updateMessage replaces the factor's message and folds it into the marginal.
func (v *variable) updateMessage(msg *Gaussian, next Gaussian) float64 {
	old := *msg
	*msg = next
	return v.set(v.Div(old).Mul(next))
}

// updateValue sets the marginal directly and back-solves the factor's message.
func (v *variable) updateValue(msg *Gaussian, next Gaussian) float64 {
	old := *msg
	*msg = next.Mul(old).Div(v.Gaussian)
	return v.set(next)
}

// priorFactor injects a player's rating, widened by the dynamics factor tau.
type priorFactor struct {
	v       *variable
	msg     Gaussian
	rating  Rating
	dynamic float64
}

func (f *priorFactor) down() float64 {
	sigma := math.Sqrt(f.rating.Sigma*f.rating.Sigma + f.dynamic*f.dynamic)
	return f.v.updateValue(&f.msg, NewGaussian(f.rating.Mu, sigma))
}

// likelihoodFactor links skill to performance with fixed variance beta².
type likelihoodFactor struct {
	mean, value       *variable
	meanMsg, valueMsg Gaussian
	variance          float64
}

func (f *likelihoodFactor) down() float64 {
	msg := f.mean.Div(f.meanMsg)
	a := 1 / (1 + f.variance*msg.Pi)
	return f.value.updateMessage(&f.valueMsg, Gaussian{Pi: a * msg.Pi, Tau: a * msg.Tau})
}

func (f *likelihoodFactor) up() float64 {
	msg := f.value.Div(f.valueMsg)
	a := 1 / (1 + f.variance*msg.Pi)
	return f.mean.updateMessage(&f.meanMsg, Gaussian{Pi: a * msg.Pi, Tau: a * msg.Tau})
}

// sumFactor constrains vars[0] to be the weighted sum of vars[1:].
type sumFactor struct {
	vars   []*variable
	msgs   []Gaussian
	coeffs []float64
}

func newSumFactor(sum *variable, terms []*variable, coeffs []float64) *sumFactor {
	vars := make([]*variable, 0, len(terms)+1)
	vars = append(vars, sum)
	vars = append(vars, terms...)
	return &sumFactor{
		vars:   vars,
		msgs:   make([]Gaussian, len(vars)),
		coeffs: coeffs,
	}
}

func (f *sumFactor) down() float64 {
	idx := make([]int, len(f.vars)-1)
	for i := range idx {
		idx[i] = i + 1
	}
	return f.update(0, idx, f.coeffs)
}

// up solves for the term at index given the sum and the other terms.
func (f *sumFactor) up(index int) float64 {
	coeff := f.coeffs[index]
	coeffs := make([]float64, len(f.coeffs))
	for x, c := range f.coeffs {
		switch {
		case coeff == 0:
			coeffs[x] = 0
		case x == index:
			coeffs[x] = 1 / coeff
		default:
			coeffs[x] = -c / coeff
		}
	}
	idx := make([]int, len(f.vars)-1)
	for i := range idx {
		idx[i] = i + 1
	}
	idx[index] = 0
	return f.update(index+1, idx, coeffs)
}

func (f *sumFactor) update(target int, idx []int, coeffs []float64) float64 {
	var piInv, mu float64
	for k, i := range idx {
		div := f.vars[i].Div(f.msgs[i])
		mu += coeffs[k] * div.Mu()
		if math.IsInf(piInv, 1) {
			continue
		}
		if div.Pi == 0 {
			piInv = math.Inf(1)
			continue
		}
		piInv += coeffs[k] * coeffs[k] / div.Pi
	}
	pi := 1 / piInv
	return f.vars[target].updateMessage(&f.msgs[target], Gaussian{Pi: pi, Tau: pi * mu})
}

// truncateFactor applies the observed outcome (win or draw) to a team difference.
type truncateFactor struct {
	v      *variable
	msg    Gaussian
	vFunc  func(diff, margin float64) float64
	wFunc  func(diff, margin float64) (float64, error)
	margin float64
}

func (f *truncateFactor) up() (float64, error) {
	div := f.v.Div(f.msg)
	sqrtPi := math.Sqrt(div.Pi)
	diff, margin := div.Tau/sqrtPi, f.margin*sqrtPi
	v := f.vFunc(diff, margin)
	w, err := f.wFunc(diff, margin)
	if err != nil {
		return 0, err
	}
	denom := 1 - w
	next := Gaussian{Pi: div.Pi / denom, Tau: (div.Tau + sqrtPi*v) / denom}
	return f.v.updateValue(&f.msg, next), nil
}

// vWin is the additive mean correction for a decisive outcome.
func vWin(diff, margin float64) float64 {
	x := diff - margin
	denom := CDF(x)
	if denom == 0 {
		return -x
	}
	return PDF(x) / denom
}

// wWin is the multiplicative variance correction for a decisive outcome.
func wWin(diff, margin float64) (float64, error) {
	x := diff - margin
	v := vWin(diff, margin)
	w := v * (v + x)
	if w > 0 && w < 1 {
		return w, nil
	}
	return 0, ErrNumerical
}

// vDraw is the additive mean correction for a draw.
func vDraw(diff, margin float64) float64 {
	absDiff := math.Abs(diff)
	a, b := margin-absDiff, -margin-absDiff
	denom := CDF(a) - CDF(b)
	v := a
	if denom != 0 {
		v = (PDF(b) - PDF(a)) / denom
	}
	if diff < 0 {
		return -v
	}
	return v
}

// wDraw is the multiplicative variance correction for a draw.
func wDraw(diff, margin float64) (float64, error) {
	absDiff := math.Abs(diff)
	a, b := margin-absDiff, -margin-absDiff
	denom := CDF(a) - CDF(b)
	if denom == 0 {
		return 0, ErrNumerical
	}
	v := vDraw(absDiff, margin)
	return v*v + (a*PDF(a)-b*PDF(b))/denom, nil
}
