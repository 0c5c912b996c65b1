package domain

import (
	"time"

	"github.com/pkg/errors"
)

// SortField 排序字段，只允许下列取值。
type SortField string

const (
	SortByTime       SortField = "time"
	SortBySeverity   SortField = "severity"
	SortByName       SortField = "name"
	SortByHost       SortField = "host"
	SortByRecurrence SortField = "recurrence"
)

// SortOrder 排序方向。
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TagNameFormat 标签名展示格式。
type TagNameFormat int

const (
	TagNameFull      TagNameFormat = 0
	TagNameShortened TagNameFormat = 1
	TagNameNone      TagNameFormat = 2
)

// ErrInvalidQuery 查询条件不合法。
var ErrInvalidQuery = errors.New("invalid recurrence query")

const (
	DefaultMinOccurrences = 2
	DefaultShowLines      = 25
	DefaultPeriod         = 30 * 24 * time.Hour
)

// RecurrenceQuery 周期性故障查询条件。
type RecurrenceQuery struct {
	Show            ShowMode      `json:"show" validate:"omitempty,oneof=1 2 3"`
	GroupIDs        []uint64      `json:"group_ids"`
	ExcludeGroupIDs []uint64      `json:"exclude_group_ids"`
	HostIDs         []uint64      `json:"host_ids"`
	OverrideHostID  uint64        `json:"override_host_id"` // 模板仪表盘上下文中的主机
	ProblemName     string        `json:"problem_name" validate:"max=2048"`
	Severities      []Severity    `json:"severities" validate:"dive,min=0,max=5"`
	EvalType        EvalType      `json:"evaltype" validate:"oneof=0 2"`
	Tags            []TagFilter   `json:"tags" validate:"dive"`
	MinOccurrences  int           `json:"min_occurrences" validate:"omitempty,min=1,max=1000"`
	TimeFrom        *int64        `json:"time_from" validate:"omitempty,min=0"` // 未指定时取 time_to 往前一个默认周期
	TimeTo          *int64        `json:"time_to" validate:"omitempty,min=0"`   // 未指定时取当前时间
	SortField       SortField     `json:"sort_field" validate:"omitempty,oneof=time severity name host recurrence"`
	SortOrder       SortOrder     `json:"sort_order" validate:"omitempty,oneof=asc desc"`
	ShowLines       int           `json:"show_lines" validate:"omitempty,min=1,max=100"`
	ShowTags        int           `json:"show_tags" validate:"min=0,max=3"`
	TagNameFormat   TagNameFormat `json:"tag_name_format" validate:"oneof=0 1 2"`
	TagPriority     string        `json:"tag_priority" validate:"max=2048"`
}

// Normalize 填充默认值，now 为当前时间（秒）。
func (q RecurrenceQuery) Normalize(now int64, defaultPeriod time.Duration) (RecurrenceQuery, error) {
	if q.Show == 0 {
		q.Show = ShowRecentProblems
	}
	if q.MinOccurrences < 1 {
		q.MinOccurrences = DefaultMinOccurrences
	}
	if q.ShowLines < 1 {
		q.ShowLines = DefaultShowLines
	}
	if q.SortField == "" {
		q.SortField = SortByTime
	}
	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
	if defaultPeriod <= 0 {
		defaultPeriod = DefaultPeriod
	}
	to := now
	if q.TimeTo != nil {
		to = *q.TimeTo
	}
	from := to - int64(defaultPeriod/time.Second)
	if q.TimeFrom != nil {
		from = *q.TimeFrom
	}
	q.TimeFrom, q.TimeTo = &from, &to
	if from > to {
		return q, errors.Wrapf(ErrInvalidQuery, "time_from(%d) 不能晚于 time_to(%d)", from, to)
	}
	return q, nil
}

// Window 查询时间窗口，未指定的边界按 0 处理。
func (q RecurrenceQuery) Window() TimeWindow {
	var w TimeWindow
	if q.TimeFrom != nil {
		w.From = *q.TimeFrom
	}
	if q.TimeTo != nil {
		w.To = *q.TimeTo
	}
	return w
}

// EventFilter 由查询条件推导事件过滤条件。
// 指定 override_host_id 时只看该主机，忽略主机组条件。
func (q RecurrenceQuery) EventFilter() EventFilter {
	f := EventFilter{
		GroupIDs:        q.GroupIDs,
		ExcludeGroupIDs: q.ExcludeGroupIDs,
		HostIDs:         q.HostIDs,
		Name:            q.ProblemName,
		Severities:      q.Severities,
		EvalType:        q.EvalType,
		Tags:            q.Tags,
	}
	if q.OverrideHostID != 0 {
		f.GroupIDs = nil
		f.ExcludeGroupIDs = nil
		f.HostIDs = []uint64{q.OverrideHostID}
	}
	return f
}

// Scope 样本查询范围，recentResolved 为“最近恢复”的时长。
func (q RecurrenceQuery) Scope(recentResolved time.Duration) ProblemScope {
	s := ProblemScope{Mode: q.Show}
	if q.Show == ShowRecentProblems {
		s.ResolvedSince = q.Window().To - int64(recentResolved/time.Second)
	}
	return s
}
