package domain

// TimeWindow 左闭右开时间窗口 [From, To)，单位秒。
type TimeWindow struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Period 窗口长度，至少为 1。
func (w TimeWindow) Period() int64 {
	if w.To-w.From < 1 {
		return 1
	}
	return w.To - w.From
}

// Previous 返回紧邻当前窗口之前、等长的窗口。
func (w TimeWindow) Previous() TimeWindow {
	p := w.Period()
	return TimeWindow{From: w.From - p, To: w.To - p}
}

// ShowMode 样本查询的问题范围。
type ShowMode int

const (
	ShowRecentProblems ShowMode = 1 // 未恢复及最近恢复的问题
	ShowHistory        ShowMode = 2 // 全部历史
	ShowProblems       ShowMode = 3 // 仅未恢复的问题
)

// EvalType 标签条件组合方式。
type EvalType int

const (
	EvalTypeAndOr EvalType = 0 // 同名标签之间 OR，不同标签之间 AND
	EvalTypeOr    EvalType = 2 // 任一条件满足即可
)

// TagOperator 标签匹配操作符。
type TagOperator int

const (
	TagOperatorLike      TagOperator = 0
	TagOperatorEqual     TagOperator = 1
	TagOperatorNotLike   TagOperator = 2
	TagOperatorNotEqual  TagOperator = 3
	TagOperatorExists    TagOperator = 4
	TagOperatorNotExists TagOperator = 5
)

// TagFilter 单个标签过滤条件。
type TagFilter struct {
	Tag      string      `json:"tag" validate:"required,max=255"`
	Operator TagOperator `json:"operator" validate:"min=0,max=5"`
	Value    string      `json:"value" validate:"max=255"`
}

// EventFilter 事件查询的公共过滤条件，样本查询、精确计数与精确重算共用。
// 隐含 source=trigger、object=trigger、value=problem。
type EventFilter struct {
	GroupIDs        []uint64
	ExcludeGroupIDs []uint64
	HostIDs         []uint64
	Name            string
	Severities      []Severity
	EvalType        EvalType
	Tags            []TagFilter
}

// ProblemScope 仅作用于样本查询的问题范围。
// Mode 为 ShowRecentProblems 时，RClock 不早于 ResolvedSince 的已恢复问题也会返回。
type ProblemScope struct {
	Mode          ShowMode
	ResolvedSince int64
}
