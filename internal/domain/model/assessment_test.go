package model_test

import (
	"testing"

	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/recommend"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/smartystreets/goconvey/convey"
)

func TestTally(t *testing.T) {
	convey.Convey("Given an empty tally", t, func() {
		tally := model.NewTally()

		convey.Convey("Then the flip rate is zero", func() {
			convey.So(tally.FlipRate(), convey.ShouldEqual, 0.0)
		})

		convey.Convey("When assessments are added", func() {
			tally.Add(model.Assessment{Label: risk.High, Recommendation: recommend.Plan(recommend.Critical)})
			tally.Add(model.Assessment{Label: risk.Low, Flipped: true, Recommendation: recommend.Plan(recommend.Vigilant)})
			tally.Add(model.Assessment{Label: risk.High, Recommendation: recommend.Plan(recommend.Critical)})
			tally.Add(model.Assessment{Label: risk.High, Flipped: true, Recommendation: recommend.Plan(recommend.Elevated)})

			convey.Convey("Then counts are grouped by label and tier", func() {
				convey.So(tally.Total, convey.ShouldEqual, 4)
				convey.So(tally.Labels, convey.ShouldResemble, map[string]int{"High": 3, "Low": 1})
				convey.So(tally.Tiers["critical"], convey.ShouldEqual, 2)
				convey.So(tally.FlipRate(), convey.ShouldEqual, 0.5)
			})

			convey.Convey("And a snapshot is independent of later updates", func() {
				snap := tally.Snapshot()
				tally.Add(model.Assessment{Label: risk.Low, Recommendation: recommend.Plan(recommend.RoutineMonitoring)})
				convey.So(snap.Total, convey.ShouldEqual, 4)
				convey.So(snap.Labels["Low"], convey.ShouldEqual, 1)
				convey.So(tally.Labels["Low"], convey.ShouldEqual, 2)
			})
		})
	})
}
