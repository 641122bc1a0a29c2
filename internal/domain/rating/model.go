// Package rating orchestrates TrueSkill rating updates for multi-team matches.
// It prepares the per-team tensors for a rating engine, computes pairwise
// expected scores and reconciles degenerate rosters into a stable result shape.
package rating

// Default engine parameters.
const (
	DefaultBeta            = 25.0 / 6
	DefaultTau             = 25.0 / 300
	DefaultDrawProbability = 0.1
)

// Config holds the engine parameters passed through to every computation.
type Config struct {
	Beta            float64
	Tau             float64
	DrawProbability float64
}

// DefaultConfig returns the standard TrueSkill parameters.
func DefaultConfig() Config {
	return Config{
		Beta:            DefaultBeta,
		Tau:             DefaultTau,
		DrawProbability: DefaultDrawProbability,
	}
}

// Rating is a skill belief: mean and standard deviation.
type Rating struct {
	Mu    float64
	Sigma float64
}

// Player is a rated participant. Weight is the share of the match played, in [0,1].
type Player struct {
	Name   string
	Rating Rating
	Weight float64
}

// Team is one side of a match. Lower Rank is better; equal ranks are a draw.
type Team struct {
	Name    string
	Rank    int
	Players []Player
}

// RatingChange is the difference between the new and the old rating.
type RatingChange struct {
	Mu    float64
	Sigma float64
}

// ResultPlayer is a player carrying the engine's new rating and the change
// from the input rating. Old plus change may differ from Rating in the last bit.
type ResultPlayer struct {
	Name          string
	Rating        Rating
	Weight        float64
	RatingChanges RatingChange
}

// ResultTeam is a rated team with its expected score.
type ResultTeam struct {
	Name          string
	Rank          int
	Players       []ResultPlayer
	ExpectedScore float64
}

// hasEmptyTeam reports whether any team has no players.
func hasEmptyTeam(teams []Team) bool {
	for _, t := range teams {
		if len(t.Players) == 0 {
			return true
		}
	}
	return false
}

// tensors splits teams into the parallel structures the engine consumes.
func tensors(teams []Team) (ratings [][]Rating, ranks []int, weights [][]float64) {
	ratings = make([][]Rating, len(teams))
	ranks = make([]int, len(teams))
	weights = make([][]float64, len(teams))
	for i, t := range teams {
		ranks[i] = t.Rank
		ratings[i] = make([]Rating, len(t.Players))
		weights[i] = make([]float64, len(t.Players))
		for j, p := range t.Players {
			ratings[i][j] = p.Rating
			weights[i][j] = p.Weight
		}
	}
	return ratings, ranks, weights
}
