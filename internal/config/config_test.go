package config_test

import (
	"errors"
	"math"
	"runtime"
	"testing"

	"github.com/okian/skillrate/internal/config"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/roster"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the derived domain settings match the package defaults", func() {
			convey.So(cfg.Rating(), convey.ShouldResemble, rating.DefaultConfig())
			convey.So(cfg.RosterSettings(), convey.ShouldResemble, roster.DefaultSettings())
			convey.So(cfg.RosterLimits(), convey.ShouldResemble, roster.DefaultLimits())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"zero beta", func(c *config.Config) { c.Beta = 0 }},
			{"nan beta", func(c *config.Config) { c.Beta = math.NaN() }},
			{"negative tau", func(c *config.Config) { c.Tau = -1 }},
			{"draw probability one", func(c *config.Config) { c.DrawProbability = 1 }},
			{"negative draw", func(c *config.Config) { c.DrawProbability = -0.1 }},
			{"infinite mu", func(c *config.Config) { c.DefaultMu = math.Inf(1) }},
			{"zero sigma", func(c *config.Config) { c.DefaultSigma = 0 }},
			{"inverted team bounds", func(c *config.Config) { c.MinTeams, c.MaxTeams = 5, 2 }},
			{"negative min players", func(c *config.Config) { c.MinPlayers = -1 }},
			{"team size over max", func(c *config.Config) { c.DefaultTeamSize = c.MaxPlayers + 1 }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
			{"negative dedupe", func(c *config.Config) { c.DedupeSize = -1 }},
			{"zero leaderboard limit", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }},
		}

		for _, c := range cases {
			cfg := config.New()
			c.mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+c.name+" is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a zero dedupe size and zero min players", t, func() {
		cfg := config.New()
		cfg.DedupeSize = 0
		cfg.MinPlayers = 0

		convey.Convey("Then both are accepted", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
