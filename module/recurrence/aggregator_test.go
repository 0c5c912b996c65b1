package recurrence

import (
	"context"
	"errors"
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(source, event uint64, clock int64) domain.ProblemRecord {
	return domain.ProblemRecord{SourceID: source, EventID: event, Clock: clock, Name: "trigger"}
}

func TestAggregate(t *testing.T) {
	Convey("TestAggregate", t, func() {
		Convey("空样本", func() {
			agg := Aggregate(nil)
			So(agg.Len(), ShouldEqual, 0)
			So(agg.SourceIDs(), ShouldBeEmpty)
			So(agg.EventIDs(), ShouldBeNil)
		})

		Convey("按故障源分组并保持首次出现顺序", func() {
			agg := Aggregate([]domain.ProblemRecord{
				rec(200, 5, 1900),
				rec(100, 4, 1800),
				rec(200, 3, 1200),
				rec(100, 2, 1500),
				rec(200, 1, 1600),
			})
			So(agg.Len(), ShouldEqual, 2)
			So(agg.SourceIDs(), ShouldResemble, []uint64{200, 100})
			So(agg.EventIDs(), ShouldResemble, []uint64{5, 3, 1, 4, 2})

			a := agg.Get(200)
			So(a.Count, ShouldEqual, 3)
			So(a.FirstOccurrence, ShouldEqual, 1200)
			So(a.LastOccurrence, ShouldEqual, 1900)
			So(a.Records[1].EventID, ShouldEqual, uint64(3))

			So(agg.Aggregates()[1].SourceID, ShouldEqual, uint64(100))
			So(agg.Get(999), ShouldBeNil)
		})
	})
}

func TestCounter_Count(t *testing.T) {
	Convey("TestCounter_Count", t, func() {
		ctx := context.Background()
		events := newFakeEvents()
		window := domain.TimeWindow{From: 1000, To: 2000}

		Convey("候选为空时不查询", func() {
			counts, err := NewCounter(events).Count(ctx, domain.EventFilter{}, nil, window)
			So(err, ShouldBeNil)
			So(counts.Current, ShouldBeEmpty)
			So(counts.Trend(1), ShouldEqual, 0)
			So(events.calls["CountBySource"], ShouldEqual, 0)
		})

		Convey("分别统计当前与前一窗口", func() {
			events.counts[window] = map[uint64]int{100: 3, 200: 5}
			events.counts[domain.TimeWindow{From: 0, To: 1000}] = map[uint64]int{100: 1}

			counts, err := NewCounter(events).Count(ctx, domain.EventFilter{}, []uint64{100, 200}, window)
			So(err, ShouldBeNil)
			So(events.calls["CountBySource"], ShouldEqual, 2)
			So(counts.CurrentOf(100), ShouldEqual, 3)
			So(counts.Trend(100), ShouldEqual, 2)
			So(counts.Trend(200), ShouldEqual, 5)
			So(counts.CurrentOf(300), ShouldEqual, 0)
		})

		Convey("查询失败向上返回", func() {
			events.err = errors.New("connection refused")
			_, err := NewCounter(events).Count(ctx, domain.EventFilter{}, []uint64{100}, window)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection refused")
		})
	})
}

func TestTimeWindow(t *testing.T) {
	Convey("TestTimeWindow", t, func() {
		So(domain.TimeWindow{From: 1000, To: 2000}.Previous(), ShouldResemble, domain.TimeWindow{From: 0, To: 1000})
		So(domain.TimeWindow{From: 1000, To: 1000}.Period(), ShouldEqual, 1)
		So(domain.TimeWindow{From: 1000, To: 1000}.Previous(), ShouldResemble, domain.TimeWindow{From: 999, To: 999})
	})
}
