package trueskill

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-3

func newDefault(t *testing.T) *TrueSkill {
	t.Helper()
	ts, err := New()
	require.NoError(t, err)
	return ts
}

func TestGaussian(t *testing.T) {
	g := NewGaussian(10, 2)
	assert.InDelta(t, 0.25, g.Pi, 1e-12)
	assert.InDelta(t, 2.5, g.Tau, 1e-12)
	assert.InDelta(t, 10, g.Mu(), 1e-12)
	assert.InDelta(t, 2, g.Sigma(), 1e-12)

	var empty Gaussian
	assert.Equal(t, 0.0, empty.Mu())
	assert.True(t, math.IsInf(empty.Sigma(), 1))

	p := g.Mul(NewGaussian(0, 1)).Div(NewGaussian(0, 1))
	assert.InDelta(t, g.Pi, p.Pi, 1e-12)
	assert.InDelta(t, g.Tau, p.Tau, 1e-12)
}

func TestNormalFunctions(t *testing.T) {
	assert.InDelta(t, 0.5, CDF(0), 1e-12)
	assert.InDelta(t, 0.3989422804, PDF(0), 1e-9)
	assert.InDelta(t, 1.959963985, PPF(0.975), 1e-6)
	assert.InDelta(t, 0.0, PPF(0.5), 1e-12)
}

func TestRateMultiTeam(t *testing.T) {
	ts := newDefault(t)
	groups := [][]Rating{
		{{40, 4}, {45, 3}},
		{{20, 7}, {19, 6}, {30, 9}, {10, 4}},
		{{50, 5}, {30, 2}},
	}
	got, err := ts.Rate(groups, []int{0, 1, 1}, nil)
	require.NoError(t, err)

	want := [][]Rating{
		{{40.8768, 3.8395}, {45.4934, 2.9337}},
		{{19.6087, 6.3960}, {18.7125, 5.6246}, {29.3531, 7.6735}, {9.8722, 3.8914}},
		{{48.8298, 4.5900}, {29.8125, 1.9763}},
	}
	assertRatings(t, want, got)
}

func TestRateFreeForAll(t *testing.T) {
	ts := newDefault(t)
	groups := [][]Rating{{{41.023, 2.1333}}, {{21, 1.87}}, {{42, 1.223}}}
	got, err := ts.Rate(groups, []int{1, 3, 2}, nil)
	require.NoError(t, err)

	want := [][]Rating{{{41.7209, 2.0505}}, {{20.9973, 1.8705}}, {{41.7711, 1.2099}}}
	assertRatings(t, want, got)
}

func TestRateUnlikelyOutcome(t *testing.T) {
	ts := newDefault(t)
	groups := [][]Rating{{{0.4, 8.1333}}, {{-21, 1.87}}, {{122, 0.01}}, {{-1, -1.223}}}
	got, err := ts.Rate(groups, []int{1, 3, 2, 2}, nil)
	require.NoError(t, err)

	want := [][]Rating{{{46.8444, 4.4540}}, {{-21.0, 1.8719}}, {{121.9736, 0.0839}}, {{3.5778, 1.1979}}}
	assertRatings(t, want, got)
}

func TestRateHeadToHead(t *testing.T) {
	ts := newDefault(t)
	p := ts.NewRating()
	got, err := ts.Rate([][]Rating{{p}, {p}}, nil, nil)
	require.NoError(t, err)

	assert.Greater(t, got[0][0].Mu, p.Mu)
	assert.Less(t, got[1][0].Mu, p.Mu)
	assert.InDelta(t, got[0][0].Mu-p.Mu, p.Mu-got[1][0].Mu, 1e-9)
	assert.Less(t, got[0][0].Sigma, p.Sigma)
}

func TestRateDrawKeepsEqualPlayersEqual(t *testing.T) {
	ts := newDefault(t)
	p := ts.NewRating()
	got, err := ts.Rate([][]Rating{{p}, {p}}, []int{0, 0}, nil)
	require.NoError(t, err)

	assert.InDelta(t, p.Mu, got[0][0].Mu, 1e-9)
	assert.InDelta(t, p.Mu, got[1][0].Mu, 1e-9)
	assert.Less(t, got[0][0].Sigma, p.Sigma)
}

func TestRatePartialPlay(t *testing.T) {
	ts := newDefault(t)
	p := ts.NewRating()
	groups := [][]Rating{{p, p}, {p, p}}

	full, err := ts.Rate(groups, nil, nil)
	require.NoError(t, err)
	partial, err := ts.Rate(groups, nil, [][]float64{{1, 0.5}, {1, 1}})
	require.NoError(t, err)

	assert.Less(t, partial[0][1].Mu-p.Mu, full[0][1].Mu-p.Mu)

	zero, err := ts.Rate(groups, nil, [][]float64{{1, 0}, {1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, p.Mu, zero[0][1].Mu, 0.01)
}

func TestRateValidation(t *testing.T) {
	ts := newDefault(t)
	p := ts.NewRating()

	_, err := ts.Rate([][]Rating{{p}}, nil, nil)
	assert.ErrorIs(t, err, ErrTooFewGroups)

	_, err = ts.Rate([][]Rating{{p}, {}}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)

	_, err = ts.Rate([][]Rating{{p}, {p}}, []int{0}, nil)
	assert.ErrorIs(t, err, ErrRanksMismatch)

	_, err = ts.Rate([][]Rating{{p}, {p}}, nil, [][]float64{{1}, {1, 1}})
	assert.ErrorIs(t, err, ErrWeightsMismatch)

	_, err = ts.Rate([][]Rating{{p}, {{25, 0}}}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidRating)
	var re *RatingError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Group)
	assert.Equal(t, "sigma", re.Field)

	_, err = ts.Rate([][]Rating{{{math.NaN(), 1}}, {p}}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestNewValidation(t *testing.T) {
	_, err := New(WithDrawProbability(1))
	assert.ErrorIs(t, err, ErrInvalidDrawProbability)

	_, err = New(WithDrawProbability(-0.1))
	assert.ErrorIs(t, err, ErrInvalidDrawProbability)

	_, err = New(WithBeta(0))
	assert.Error(t, err)

	ts, err := New(WithMu(1500), WithSigma(350), WithBeta(200), WithTau(1), WithDrawProbability(0), WithMinDelta(0.001))
	require.NoError(t, err)
	assert.Equal(t, Rating{Mu: 1500, Sigma: 350}, ts.NewRating())
	assert.Equal(t, 0.0, ts.DrawMargin(2))
}

func TestQuality(t *testing.T) {
	ts := newDefault(t)
	p := ts.NewRating()

	q, err := ts.Quality([][]Rating{{p, p}, {p, p}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.4472135955, q, 1e-6)

	groups := [][]Rating{
		{{25, 25.0 / 3}, {25, 25.0 / 3}},
		{{30, 3}, {30, 3}},
		{{40, 2}, {40, 2}},
	}
	q, err = ts.Quality(groups, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.01753834922394127, q, 1e-6)

	_, err = ts.Quality([][]Rating{{p, p}, {}}, nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestQualityFavoursEvenMatches(t *testing.T) {
	ts := newDefault(t)
	even, err := ts.Quality([][]Rating{{{25, 3}}, {{25, 3}}}, nil)
	require.NoError(t, err)
	uneven, err := ts.Quality([][]Rating{{{35, 3}}, {{15, 3}}}, nil)
	require.NoError(t, err)
	assert.Greater(t, even, uneven)
}

func TestConservative(t *testing.T) {
	assert.InDelta(t, 0.0, Rating{Mu: 25, Sigma: 25.0 / 3}.Conservative(3), 1e-9)
}

func assertRatings(t *testing.T, want, got [][]Rating) {
	t.Helper()
	require.Len(t, got, len(want))
	for g := range want {
		require.Len(t, got[g], len(want[g]))
		for i := range want[g] {
			assert.InDeltaf(t, want[g][i].Mu, got[g][i].Mu, tolerance, "mu of group %d player %d", g, i)
			assert.InDeltaf(t, want[g][i].Sigma, got[g][i].Sigma, tolerance, "sigma of group %d player %d", g, i)
		}
	}
}
