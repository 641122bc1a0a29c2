package loadtest

import (
	"fmt"
	"math"
)

// checkRating reports every way resp fails to answer req.
func checkRating(req RateRequest, resp RateResponse) []string {
	var problems []string
	if len(resp.Teams) != len(req.Teams) {
		return []string{fmt.Sprintf("got %d result teams for %d teams", len(resp.Teams), len(req.Teams))}
	}

	sum := 0.0
	for i, got := range resp.Teams {
		want := req.Teams[i]
		if got.Name != want.Name || got.Rank != want.Rank {
			problems = append(problems, fmt.Sprintf("team %d: got %q rank %d, want %q rank %d", i, got.Name, got.Rank, want.Name, want.Rank))
		}
		if len(got.Players) != len(want.Players) {
			problems = append(problems, fmt.Sprintf("team %d: got %d players, want %d", i, len(got.Players), len(want.Players)))
			continue
		}
		if got.ExpectedScore < 0 || got.ExpectedScore > 1 || math.IsNaN(got.ExpectedScore) {
			problems = append(problems, fmt.Sprintf("team %d: expected score %v outside [0, 1]", i, got.ExpectedScore))
		}
		sum += got.ExpectedScore

		for j, p := range got.Players {
			before := want.Players[j].Rating
			for k, field := range [2]string{"mu", "sigma"} {
				if d := p.Rating[k] - p.RatingChanges[k] - before[k]; math.Abs(d) > deltaTolerance*math.Max(1, math.Abs(before[k])) {
					problems = append(problems, fmt.Sprintf("team %d player %d: %s change is off by %v", i, j, field, d))
				}
			}
			if p.Rating[1] <= 0 {
				problems = append(problems, fmt.Sprintf("team %d player %d: sigma %v is not positive", i, j, p.Rating[1]))
			}
		}
	}

	if math.Abs(sum-1) > scoreSumTolerance {
		problems = append(problems, fmt.Sprintf("expected scores sum to %v", sum))
	}
	if resp.MatchQuality < 0 || resp.MatchQuality > PercentageMultiplier || math.IsNaN(resp.MatchQuality) {
		problems = append(problems, fmt.Sprintf("match quality %v outside [0, 100]", resp.MatchQuality))
	}
	return problems
}

// checkLeaderboard verifies ordering, competition ranks and conservative skill.
func checkLeaderboard(entries []Entry, limit int) []string {
	var problems []string
	if len(entries) > limit {
		problems = append(problems, fmt.Sprintf("got %d entries for limit %d", len(entries), limit))
	}
	for i, e := range entries {
		if d := e.Skill - (e.Mu - skillFactor*e.Sigma); math.Abs(d) > skillTolerance {
			problems = append(problems, fmt.Sprintf("entry %d (%s): skill %v is not mu - 3*sigma", i, e.PlayerID, e.Skill))
		}
		if e.Matches < 1 {
			problems = append(problems, fmt.Sprintf("entry %d (%s): no matches recorded", i, e.PlayerID))
		}
		if i == 0 {
			if e.Rank != 1 {
				problems = append(problems, fmt.Sprintf("top entry has rank %d", e.Rank))
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Skill > prev.Skill:
			problems = append(problems, fmt.Sprintf("entry %d outranks entry %d", i, i-1))
		case e.Skill == prev.Skill && e.PlayerID < prev.PlayerID:
			problems = append(problems, fmt.Sprintf("entries %d and %d tie but are not ordered by id", i-1, i))
		case e.Skill == prev.Skill && e.Rank != prev.Rank:
			problems = append(problems, fmt.Sprintf("entries %d and %d tie with ranks %d and %d", i-1, i, prev.Rank, e.Rank))
		case e.Skill < prev.Skill && e.Rank != i+1:
			problems = append(problems, fmt.Sprintf("entry %d has rank %d, want %d", i, e.Rank, i+1))
		}
	}
	return problems
}

// checkPlayer compares a player lookup with its leaderboard row.
func checkPlayer(board, lookup Entry) []string {
	if board != lookup {
		return []string{fmt.Sprintf("player %s: leaderboard %+v, lookup %+v", board.PlayerID, board, lookup)}
	}
	return nil
}
