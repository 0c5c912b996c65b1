package domain

// RankedResult 单个故障源的展示记录。
// 在排序分页阶段构造，随后由精确重算和服务关联原地补充字段。
type RankedResult struct {
	ProblemRecord

	RecurrenceCount int    `json:"recurrence_count"` // 精确计数，不受样本上限影响
	FirstOccurrence int64  `json:"first_occurrence"`
	LastOccurrence  int64  `json:"last_occurrence"`
	ResolvedCount   int    `json:"resolved_count"`
	MTTRAvg         *int64 `json:"mttr_avg"`
	MTBFAvg         *int64 `json:"mtbf_avg"`
	TrendDelta      int    `json:"trend_delta"`

	DisplayTags []string `json:"display_tags,omitempty"`

	ServiceID   *uint64            `json:"service_id,omitempty"`
	ServiceName string             `json:"service_name,omitempty"`
	ServiceTree *ServiceTree       `json:"service_tree,omitempty"`
	ServicePath []ServicePathEntry `json:"service_path,omitempty"`
	SLI         *float64           `json:"sli,omitempty"`
	SLAID       *uint64            `json:"slaid,omitempty"`
	SLAName     string             `json:"sla_name,omitempty"`
	SLO         *float64           `json:"slo,omitempty"`
}

// RecurrenceReport 一次查询的完整输出。
type RecurrenceReport struct {
	Items     []*RankedResult `json:"items"`
	Info      string          `json:"info"`
	Total     int             `json:"total"`
	Shown     int             `json:"shown"`
	SortField SortField       `json:"sort_field"`
	SortOrder SortOrder       `json:"sort_order"`
}
