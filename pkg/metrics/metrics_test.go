package metrics_test

import (
	"testing"

	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithRegistry(registry),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("reports"),
		)
		So(m, ShouldNotBeNil)

		Convey("Then the registry should expose the collectors", func() {
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			// Vec collectors only materialize after first use; plain
			// counters/gauges/histograms register eagerly.
			So(len(families), ShouldBeGreaterThan, 10)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Then recording through helpers should not panic", func() {
			So(func() {
				metrics.RecordReportRun("green", "posted")
				metrics.RecordReportRunError()
				metrics.RecordReportDuration(12.5)
				metrics.RecordPublishSuccess()
				metrics.RecordPublishFailure()
				metrics.RecordPreviewServed()
				metrics.RecordIngestPage()
				metrics.RecordIngestEntries(42)
				metrics.RecordIngestSkipped(1)
				metrics.RecordSourceError()
				metrics.RecordSourceFetchDuration(250)
				metrics.RecordRateFallback()
				metrics.RecordRateUpdate()
				metrics.RecordRateUpdateError()
				metrics.RecordBreakerOpen()
				metrics.RecordCacheHit()
				metrics.RecordCacheMiss()
				metrics.RecordCacheInvalidation()
				metrics.RecordHTTPRequest("pulse", "GET", "200")
				metrics.RecordHTTPRequestDuration("pulse", "GET", "200", 3.2)
				metrics.RecordErrorByComponent("timesource", "unavailable")
				metrics.RecordErrorByEndpoint("report", "POST", "server_error")
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be gatherable", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
