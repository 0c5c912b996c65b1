package opensearch

const (
	ProblemEventIndexBase = "itops_problem_event"

	// 单次请求的文档/ID/分桶上限
	maxQuerySize = 5000
	indexPrefix  = "mdl-"
)

var ProblemEventIndex = indexPrefix + ProblemEventIndexBase
