package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/skillrate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 1, PlayerID: "alice", Mu: 30, Sigma: 2, Skill: 24, Matches: 3}

		Convey("When it is encoded", func() {
			data, err := json.Marshal(entry)

			Convey("Then it uses the API wire names", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"rank":1,"playerId":"alice","mu":30,"sigma":2,"skill":24,"matches":3}`)
			})
		})
	})
}
