package logger_test

import (
	"context"
	"testing"

	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		err := logger.Init()
		So(err, ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)

			Convey("Then logging at every level should not panic", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug message", logger.String("k", "v"))
					l.Info(ctx, "info message", logger.Int("count", 3))
					l.Warn(ctx, "warn message", logger.Float64("hours", 1.5))
					l.Error(ctx, "error message", logger.Any("payload", map[string]int{"a": 1}))
				}, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger", func() {
			l := logger.Named("slack")
			So(l, ShouldNotBeNil)
			So(func() {
				l.Info(context.Background(), "named log")
			}, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the level parser", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then known levels should be accepted", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "  Info  "} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Then unknown levels should be rejected", func() {
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
