package model_test

import (
	"testing"
	"time"

	model "github.com/okian/skillrate/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMatch(t *testing.T) {
	convey.Convey("Given a Match struct", t, func() {
		ts := time.Now()
		match := model.Match{
			MatchID: "match-1",
			Teams: []model.MatchTeam{
				{Rank: 1, Players: []model.MatchPlayer{{PlayerID: "alice", Weight: 1}, {PlayerID: "bob", Weight: 0.5}}},
				{Rank: 2, Players: []model.MatchPlayer{{PlayerID: "carol", Weight: 1}}},
			},
			SubmittedAt: ts,
		}

		convey.Convey("When reading its players", func() {
			convey.Convey("Then they come back in team order", func() {
				convey.So(match.PlayerIDs(), convey.ShouldResemble, []string{"alice", "bob", "carol"})
				convey.So(match.PlayerCount(), convey.ShouldEqual, 3)
				convey.So(match.HasDuplicatePlayers(), convey.ShouldBeFalse)
				convey.So(match.SubmittedAt, convey.ShouldEqual, ts)
			})
		})

		convey.Convey("When a player appears on both teams", func() {
			match.Teams[1].Players = append(match.Teams[1].Players, model.MatchPlayer{PlayerID: "alice", Weight: 1})

			convey.Convey("Then the duplicate is detected", func() {
				convey.So(match.HasDuplicatePlayers(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the match is empty", func() {
			empty := model.Match{}

			convey.Convey("Then it has no players", func() {
				convey.So(empty.PlayerIDs(), convey.ShouldBeEmpty)
				convey.So(empty.PlayerCount(), convey.ShouldEqual, 0)
				convey.So(empty.HasDuplicatePlayers(), convey.ShouldBeFalse)
			})
		})
	})
}
