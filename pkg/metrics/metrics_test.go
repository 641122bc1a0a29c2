package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatherNames(g prometheus.Gatherer) map[string]bool {
	names := make(map[string]bool)
	families, err := g.Gather()
	So(err, ShouldBeNil)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("rating"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.computations.WithLabelValues(OpRate).Inc()
			m.matchesRated.Inc()

			Convey("Then metrics are registered under the configured names", func() {
				names := gatherNames(registry)
				So(names["test_rating_computations_total"], ShouldBeTrue)
				So(names["test_rating_matches_rated_total"], ShouldBeTrue)
				So(names["test_rating_queue_size"], ShouldBeTrue)
			})

			Convey("Then const labels are attached", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() != "test_rating_matches_rated_total" {
						continue
					}
					for _, lp := range mf.GetMetric()[0].GetLabel() {
						if lp.GetName() == "env" && lp.GetValue() == "test" {
							found = true
						}
					}
					So(mf.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When every recorder is called", func() {
			So(func() {
				RecordComputation(OpRate, 1.5)
				RecordComputation(OpQuality, 0.5)
				RecordComputation(OpExpected, 0.1)
				RecordComputationError(OpRate, "invalid_rating")
				RecordFallback("empty_team")
				RecordMatchQuality(0.447)
				RecordMatchShape(2, 4)
				RecordMatchAccepted()
				RecordMatchDuplicate()
				RecordMatchRejected()
				RecordMatchRated()
				UpdateLedgerPlayers(10)
				RecordLedgerUpdateLatency(0.2)
				RecordLedgerQueryLatency(0.1)
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueWait(2)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("/trueskill", "POST", "200")
				RecordHTTPRequestDuration("/trueskill", "POST", "200", 12)
				RecordErrorByEndpoint("/trueskill", "POST", "validation")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then they are exposed on the custom registry", func() {
				names := gatherNames(GetRegistry())
				So(names["skillrate_trueskill_computations_total"], ShouldBeTrue)
				So(names["skillrate_trueskill_fallbacks_total"], ShouldBeTrue)
				So(names["skillrate_trueskill_match_quality_ratio"], ShouldBeTrue)
				So(names["skillrate_trueskill_http_requests_total"], ShouldBeTrue)
				So(names["skillrate_trueskill_ledger_players"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		Convey("When many goroutines record at once", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordComputation(OpRate, float64(j))
						RecordMatchRated()
						UpdateQueueSize(j)
					}
				}()
			}
			wg.Wait()

			Convey("Then nothing is lost", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				for _, mf := range families {
					if mf.GetName() == "skillrate_trueskill_matches_rated_total" {
						So(mf.GetMetric()[0].GetCounter().GetValue(), ShouldBeGreaterThanOrEqualTo, 1000)
					}
				}
			})
		})
	})
}
