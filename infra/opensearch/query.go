package opensearch

import (
	"strings"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
)

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// containsPattern 构造大小写不敏感的子串匹配。
func containsPattern(field, value string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			field: map[string]any{
				"value":            "*" + wildcardEscaper.Replace(value) + "*",
				"case_insensitive": true,
			},
		},
	}
}

func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

func terms(field string, values any) map[string]any {
	return map[string]any{"terms": map[string]any{field: values}}
}

func clockRange(window domain.TimeWindow) map[string]any {
	return map[string]any{
		"range": map[string]any{
			"clock": map[string]any{"gte": window.From, "lt": window.To},
		},
	}
}

func boolQuery(filter, mustNot []any) map[string]any {
	b := map[string]any{"filter": filter}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	return map[string]any{"bool": b}
}

func anyOf(clauses []any) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should":               clauses,
			"minimum_should_match": 1,
		},
	}
}

// problemFilters 返回问题事件的公共过滤条件（filter 与 must_not 两部分）。
func problemFilters(f domain.EventFilter) ([]any, []any) {
	filter := []any{
		term("source", domain.EventSourceTrigger),
		term("object", domain.EventObjectTrigger),
		term("value", domain.EventValueProblem),
	}
	var mustNot []any

	if len(f.GroupIDs) > 0 {
		filter = append(filter, terms("group_ids", f.GroupIDs))
	}
	if len(f.ExcludeGroupIDs) > 0 {
		mustNot = append(mustNot, terms("group_ids", f.ExcludeGroupIDs))
	}
	if len(f.HostIDs) > 0 {
		filter = append(filter, terms("host_ids", f.HostIDs))
	}
	if f.Name != "" {
		filter = append(filter, containsPattern("name", f.Name))
	}
	if len(f.Severities) > 0 {
		filter = append(filter, terms("severity", f.Severities))
	}
	if q := tagsQuery(f.EvalType, f.Tags); q != nil {
		filter = append(filter, q)
	}
	return filter, mustNot
}

// tagsQuery 组合标签条件。
// AND/OR：同名标签条件之间 OR，不同标签之间 AND；OR：任一条件满足。
func tagsQuery(evalType domain.EvalType, tags []domain.TagFilter) map[string]any {
	if len(tags) == 0 {
		return nil
	}

	if evalType == domain.EvalTypeOr {
		clauses := make([]any, 0, len(tags))
		for _, t := range tags {
			clauses = append(clauses, tagCondition(t))
		}
		return anyOf(clauses)
	}

	var names []string
	groups := make(map[string][]any)
	for _, t := range tags {
		if _, ok := groups[t.Tag]; !ok {
			names = append(names, t.Tag)
		}
		groups[t.Tag] = append(groups[t.Tag], tagCondition(t))
	}
	all := make([]any, 0, len(names))
	for _, name := range names {
		all = append(all, anyOf(groups[name]))
	}
	return map[string]any{"bool": map[string]any{"filter": all}}
}

func tagCondition(t domain.TagFilter) map[string]any {
	var inner []any
	inner = append(inner, term("tags.tag", t.Tag))

	switch t.Operator {
	case domain.TagOperatorLike, domain.TagOperatorNotLike:
		if t.Value != "" {
			inner = append(inner, containsPattern("tags.value", t.Value))
		}
	case domain.TagOperatorEqual, domain.TagOperatorNotEqual:
		inner = append(inner, term("tags.value", t.Value))
	}

	nested := map[string]any{
		"nested": map[string]any{
			"path":  "tags",
			"query": boolQuery(inner, nil),
		},
	}

	switch t.Operator {
	case domain.TagOperatorNotLike, domain.TagOperatorNotEqual, domain.TagOperatorNotExists:
		return map[string]any{"bool": map[string]any{"must_not": []any{nested}}}
	}
	return nested
}

// scopeFilter 样本查询的问题范围条件。
func scopeFilter(scope domain.ProblemScope) map[string]any {
	switch scope.Mode {
	case domain.ShowProblems:
		return term("r_event_id", 0)
	case domain.ShowRecentProblems:
		return anyOf([]any{
			term("r_event_id", 0),
			map[string]any{"range": map[string]any{"r_clock": map[string]any{"gte": scope.ResolvedSince}}},
		})
	}
	return nil
}
