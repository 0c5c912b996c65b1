package domain

// Severity 告警级别，取值与 Zabbix 触发器级别一致，数值越大越严重。
type Severity int

const (
	SeverityNotClassified Severity = iota // 未分类
	SeverityInformation                   // 信息
	SeverityWarning                       // 警告
	SeverityAverage                       // 一般
	SeverityHigh                          // 严重
	SeverityDisaster                      // 灾难
)

// 事件来源、对象与取值，对应 Zabbix event.source / event.object / event.value。
const (
	EventSourceTrigger = 0
	EventObjectTrigger = 0

	EventValueOK      = 0
	EventValueProblem = 1
)

// Tag 问题标签，列表顺序有意义。
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// ProblemEvent 对应索引 itops_problem_event。
// 问题事件与恢复事件写在同一个索引中，通过 value 区分；
// 问题事件恢复后 r_event_id / r_clock 会被回填。
type ProblemEvent struct {
	EventID      uint64   `json:"event_id"`
	Source       int      `json:"source"`
	Object       int      `json:"object"`
	ObjectID     uint64   `json:"object_id"` // 故障源（触发器）ID
	Value        int      `json:"value"`
	Clock        int64    `json:"clock"`
	REventID     uint64   `json:"r_event_id"`
	RClock       int64    `json:"r_clock"`
	Severity     Severity `json:"severity"`
	Name         string   `json:"name"`
	Tags         []Tag    `json:"tags"`
	Acknowledged bool     `json:"acknowledged"`
	HostIDs      []uint64 `json:"host_ids"`
	GroupIDs     []uint64 `json:"group_ids"`
}

// ToRecord 转换为聚合使用的 ProblemRecord。
func (e *ProblemEvent) ToRecord() ProblemRecord {
	return ProblemRecord{
		SourceID:          e.ObjectID,
		EventID:           e.EventID,
		ResolutionEventID: e.REventID,
		Clock:             e.Clock,
		Severity:          e.Severity,
		Name:              e.Name,
		Tags:              e.Tags,
		Acknowledged:      e.Acknowledged,
	}
}

// ToRef 转换为事件配对使用的 EventRef。
func (e *ProblemEvent) ToRef() EventRef {
	return EventRef{
		EventID:           e.EventID,
		SourceID:          e.ObjectID,
		ResolutionEventID: e.REventID,
		Clock:             e.Clock,
	}
}

// ProblemRecord 一次故障发生，取出后不再修改。
// ResolutionEventID 为 0 表示尚未恢复。
type ProblemRecord struct {
	SourceID          uint64   `json:"source_id"`
	EventID           uint64   `json:"event_id"`
	ResolutionEventID uint64   `json:"r_event_id"`
	Clock             int64    `json:"clock"`
	Severity          Severity `json:"severity"`
	Name              string   `json:"name"`
	Tags              []Tag    `json:"tags"`
	Acknowledged      bool     `json:"acknowledged"`
}

// EventRef 事件配对查询返回的精简事件。
type EventRef struct {
	EventID           uint64
	SourceID          uint64
	ResolutionEventID uint64
	Clock             int64
}
