package standardizer

import (
	"context"
	"testing"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/utils/idgen"
	. "github.com/smartystreets/goconvey/convey"
)

func localUnix(s string) int64 {
	t, _ := time.ParseInLocation(time.DateTime, s, time.Local)
	return t.Unix()
}

func TestZabbixStandardizer_Standardize(t *testing.T) {
	Convey("TestZabbixStandardizer_Standardize", t, func() {
		ctx := context.Background()
		std := NewZabbixWebhookStandardizer()

		Convey("PROBLEM 消息", func() {
			update, err := std.Standardize(ctx, []byte(`{
				"event_id": "1001",
				"trigger_id": "200",
				"event_name": "Disk space is low",
				"event_severity": "High",
				"event_status": "PROBLEM",
				"occur_time": "2025-01-15 10:30:00",
				"host_id": "10084",
				"group_ids": "2, 4",
				"tags": [{"tag": "service", "value": "db"}, {"tag": "env", "value": ""}],
				"acknowledged": "Yes"
			}`))
			So(err, ShouldBeNil)
			So(update.Status, ShouldEqual, StatusProblem)
			So(update.Recovery, ShouldBeNil)
			So(update.Problem, ShouldResemble, domain.ProblemEvent{
				EventID:      1001,
				ObjectID:     200,
				Value:        domain.EventValueProblem,
				Clock:        localUnix("2025-01-15 10:30:00"),
				Severity:     domain.SeverityHigh,
				Name:         "Disk space is low",
				Tags:         []domain.Tag{{Tag: "service", Value: "db"}, {Tag: "env", Value: ""}},
				Acknowledged: true,
				HostIDs:      []uint64{10084},
				GroupIDs:     []uint64{2, 4},
			})
		})

		Convey("RESOLVED 消息生成恢复事件并回填问题事件", func() {
			update, err := std.Standardize(ctx, []byte(`{
				"event_id": "1001",
				"recovery_id": "1005",
				"trigger_id": "200",
				"event_name": "Disk space is low",
				"event_severity": "4",
				"event_status": "RESOLVED",
				"occur_time": "1700000000",
				"recovery_time": "1700000300"
			}`))
			So(err, ShouldBeNil)
			So(update.Status, ShouldEqual, StatusResolved)
			So(update.Problem.REventID, ShouldEqual, uint64(1005))
			So(update.Problem.RClock, ShouldEqual, int64(1700000300))
			So(update.Problem.Value, ShouldEqual, domain.EventValueProblem)

			So(update.Recovery, ShouldNotBeNil)
			So(update.Recovery.EventID, ShouldEqual, uint64(1005))
			So(update.Recovery.ObjectID, ShouldEqual, uint64(200))
			So(update.Recovery.Value, ShouldEqual, domain.EventValueOK)
			So(update.Recovery.Clock, ShouldEqual, int64(1700000300))
			So(update.Recovery.REventID, ShouldEqual, uint64(0))
			So(update.Recovery.Severity, ShouldEqual, domain.SeverityHigh)
		})

		Convey("缺少 recovery_id 时生成 ID", func() {
			update, err := std.Standardize(ctx, []byte(`{"event_id":"1","trigger_id":"2","event_status":"恢复","occur_time":"1700000000","recovery_time":"1700000060"}`))
			So(err, ShouldBeNil)
			So(idgen.IsGenerated(update.Recovery.EventID), ShouldBeTrue)
			So(update.Problem.REventID, ShouldEqual, update.Recovery.EventID)
		})

		Convey("格式错误", func() {
			_, err := std.Standardize(ctx, []byte(`not json`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "解析ZabbixWebhook数据失败")
		})

		Convey("event_id 不合法", func() {
			_, err := std.Standardize(ctx, []byte(`{"event_id":"abc","trigger_id":"2","occur_time":"1700000000"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "event_id 不合法")
		})

		Convey("trigger_id 缺失", func() {
			_, err := std.Standardize(ctx, []byte(`{"event_id":"1","occur_time":"1700000000"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "trigger_id 不合法")
		})

		Convey("发生时间无法解析", func() {
			_, err := std.Standardize(ctx, []byte(`{"event_id":"1","trigger_id":"2","occur_time":"yesterday"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "解析事件发生时间失败")
		})

		Convey("恢复时间缺失", func() {
			_, err := std.Standardize(ctx, []byte(`{"event_id":"1","trigger_id":"2","event_status":"RESOLVED","occur_time":"1700000000"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "解析事件恢复时间失败")
		})
	})
}

func TestMapSeverity(t *testing.T) {
	Convey("TestMapSeverity", t, func() {
		So(mapSeverity("Disaster"), ShouldEqual, domain.SeverityDisaster)
		So(mapSeverity("high"), ShouldEqual, domain.SeverityHigh)
		So(mapSeverity("Average"), ShouldEqual, domain.SeverityAverage)
		So(mapSeverity("Warning"), ShouldEqual, domain.SeverityWarning)
		So(mapSeverity("Information"), ShouldEqual, domain.SeverityInformation)
		So(mapSeverity("Not classified"), ShouldEqual, domain.SeverityNotClassified)
		So(mapSeverity("3"), ShouldEqual, domain.SeverityAverage)
		So(mapSeverity("9"), ShouldEqual, domain.SeverityNotClassified)
		So(mapSeverity("unknown"), ShouldEqual, domain.SeverityNotClassified)
	})
}

func TestEventStatus(t *testing.T) {
	Convey("TestEventStatus", t, func() {
		So(eventStatus("PROBLEM"), ShouldEqual, StatusProblem)
		So(eventStatus("发生"), ShouldEqual, StatusProblem)
		So(eventStatus(""), ShouldEqual, StatusProblem)
		So(eventStatus("resolved"), ShouldEqual, StatusResolved)
		So(eventStatus("OK"), ShouldEqual, StatusResolved)
		So(eventStatus("恢复"), ShouldEqual, StatusResolved)
	})
}
