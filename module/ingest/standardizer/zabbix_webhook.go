package standardizer

import (
	"context"
	"strings"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/utils/idgen"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/utils/slice"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/utils/timex"
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const SourceZabbixWebhook = "zabbix_webhook"

// ZabbixWebhook Zabbix 媒介脚本推送的消息体，宏展开后字段均为字符串。
type ZabbixWebhook struct {
	EventID       string       `json:"event_id"`
	RecoveryID    string       `json:"recovery_id"`
	TriggerID     string       `json:"trigger_id"`
	EventName     string       `json:"event_name"`
	EventSeverity string       `json:"event_severity"`
	EventStatus   string       `json:"event_status"`
	OccurTime     string       `json:"occur_time"`
	RecoveryTime  string       `json:"recovery_time"`
	HostID        string       `json:"host_id"`
	GroupIDs      string       `json:"group_ids"` // 逗号分隔
	Tags          []domain.Tag `json:"tags"`
	Acknowledged  string       `json:"acknowledged"` // Yes/No
}

type zabbixStandardizer struct {
	genID *idgen.Generator
}

func NewZabbixWebhookStandardizer() Standardizer {
	return &zabbixStandardizer{genID: idgen.New()}
}

func (s *zabbixStandardizer) Standardize(_ context.Context, payload []byte) (Update, error) {
	var hook ZabbixWebhook
	if err := sonic.Unmarshal(payload, &hook); err != nil {
		return Update{}, errors.Wrap(err, "解析ZabbixWebhook数据失败")
	}

	eventID := cast.ToUint64(hook.EventID)
	if eventID == 0 {
		return Update{}, errors.Errorf("event_id 不合法: %q", hook.EventID)
	}
	triggerID := cast.ToUint64(hook.TriggerID)
	if triggerID == 0 {
		return Update{}, errors.Errorf("trigger_id 不合法: event_id=%d, trigger_id=%q", eventID, hook.TriggerID)
	}
	clock, err := parseClock(hook.OccurTime)
	if err != nil {
		return Update{}, errors.Wrapf(err, "解析事件发生时间失败: event_id=%d", eventID)
	}

	problem := domain.ProblemEvent{
		EventID:      eventID,
		Source:       domain.EventSourceTrigger,
		Object:       domain.EventObjectTrigger,
		ObjectID:     triggerID,
		Value:        domain.EventValueProblem,
		Clock:        clock,
		Severity:     mapSeverity(hook.EventSeverity),
		Name:         hook.EventName,
		Tags:         hook.Tags,
		Acknowledged: parseAcknowledged(hook.Acknowledged),
		GroupIDs:     slice.SplitToUint64s(hook.GroupIDs),
	}
	if hostID := cast.ToUint64(hook.HostID); hostID != 0 {
		problem.HostIDs = []uint64{hostID}
	}

	status := eventStatus(hook.EventStatus)
	if status != StatusResolved {
		return Update{Status: StatusProblem, Problem: problem}, nil
	}

	rClock, err := parseClock(hook.RecoveryTime)
	if err != nil {
		return Update{}, errors.Wrapf(err, "解析事件恢复时间失败: event_id=%d", eventID)
	}
	rEventID := cast.ToUint64(hook.RecoveryID)
	if rEventID == 0 {
		rEventID = s.genID.NextID()
		log.Warnf("恢复事件缺少 recovery_id，使用生成的 ID: event_id=%d, recovery_id=%d", eventID, rEventID)
	}

	recovery := problem
	recovery.EventID = rEventID
	recovery.Value = domain.EventValueOK
	recovery.Clock = rClock

	problem.REventID = rEventID
	problem.RClock = rClock
	return Update{Status: StatusResolved, Problem: problem, Recovery: &recovery}, nil
}

// parseClock 支持 "2006-01-02 15:04:05"（本地时区）与秒级时间戳。
func parseClock(s string) (int64, error) {
	return timex.ParseClock(s, time.DateTime)
}

func eventStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RESOLVED", "OK", "恢复":
		return StatusResolved
	}
	return StatusProblem
}

// mapSeverity 支持 Zabbix 级别名称与 0-5 数字。
func mapSeverity(s string) domain.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disaster":
		return domain.SeverityDisaster
	case "high":
		return domain.SeverityHigh
	case "average":
		return domain.SeverityAverage
	case "warning":
		return domain.SeverityWarning
	case "information":
		return domain.SeverityInformation
	case "not classified":
		return domain.SeverityNotClassified
	}
	if n, err := cast.ToIntE(s); err == nil && n >= int(domain.SeverityNotClassified) && n <= int(domain.SeverityDisaster) {
		return domain.Severity(n)
	}
	return domain.SeverityNotClassified
}

func parseAcknowledged(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}
