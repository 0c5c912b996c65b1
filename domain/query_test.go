package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func int64Ptr(v int64) *int64 { return &v }

func TestRecurrenceQuery_Normalize(t *testing.T) {
	Convey("TestRecurrenceQuery_Normalize", t, func() {
		const now = int64(10_000_000)
		period := int64(DefaultPeriod / time.Second)

		Convey("未指定时填充默认值", func() {
			q, err := RecurrenceQuery{}.Normalize(now, 0)
			So(err, ShouldBeNil)
			So(q.Show, ShouldEqual, ShowRecentProblems)
			So(q.MinOccurrences, ShouldEqual, DefaultMinOccurrences)
			So(q.ShowLines, ShouldEqual, DefaultShowLines)
			So(q.SortField, ShouldEqual, SortByTime)
			So(q.SortOrder, ShouldEqual, SortDesc)
			So(q.Window(), ShouldResemble, TimeWindow{From: now - period, To: now})
		})

		Convey("显式指定 time_from=0 从纪元开始", func() {
			q, err := RecurrenceQuery{TimeFrom: int64Ptr(0)}.Normalize(now, 0)
			So(err, ShouldBeNil)
			So(q.Window(), ShouldResemble, TimeWindow{From: 0, To: now})
		})

		Convey("只指定 time_to 时向前取默认周期", func() {
			q, err := RecurrenceQuery{TimeTo: int64Ptr(5000)}.Normalize(now, time.Hour)
			So(err, ShouldBeNil)
			So(q.Window(), ShouldResemble, TimeWindow{From: 5000 - 3600, To: 5000})
		})

		Convey("显式指定 time_to=0 与 time_from=0", func() {
			q, err := RecurrenceQuery{TimeFrom: int64Ptr(0), TimeTo: int64Ptr(0)}.Normalize(now, 0)
			So(err, ShouldBeNil)
			So(q.Window(), ShouldResemble, TimeWindow{From: 0, To: 0})
		})

		Convey("time_from 晚于 time_to", func() {
			_, err := RecurrenceQuery{TimeFrom: int64Ptr(2000), TimeTo: int64Ptr(1000)}.Normalize(now, 0)
			So(errors.Is(err, ErrInvalidQuery), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "time_from(2000)")
		})

		Convey("不修改调用方的查询", func() {
			orig := RecurrenceQuery{}
			_, err := orig.Normalize(now, 0)
			So(err, ShouldBeNil)
			So(orig.TimeFrom, ShouldBeNil)
			So(orig.TimeTo, ShouldBeNil)
		})
	})
}
