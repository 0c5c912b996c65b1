package recurrence

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
)

// Join 连接样本聚合与精确计数：精确计数达到阈值的故障源进入结果，
// 以样本中最近一次发生作为展示记录。输出顺序与候选顺序一致。
func Join(agg *SampleAggregation, counts AuthoritativeCounts, minOccurrences int) []*domain.RankedResult {
	if minOccurrences < 1 {
		minOccurrences = 1
	}

	var results []*domain.RankedResult
	for _, a := range agg.Aggregates() {
		n := counts.CurrentOf(a.SourceID)
		if n < minOccurrences || len(a.Records) == 0 {
			continue
		}
		results = append(results, &domain.RankedResult{
			ProblemRecord:   mostRecent(a.Records),
			RecurrenceCount: n,
			FirstOccurrence: a.FirstOccurrence,
			LastOccurrence:  a.LastOccurrence,
			ResolvedCount:   a.Stats.ResolvedCount,
			MTTRAvg:         a.Stats.MTTRAvg,
			MTBFAvg:         a.Stats.MTBFAvg,
			TrendDelta:      counts.Trend(a.SourceID),
		})
	}
	return results
}

// mostRecent 时间最大的记录，相同时间取先出现的。
func mostRecent(records []domain.ProblemRecord) domain.ProblemRecord {
	best := records[0]
	for _, rec := range records[1:] {
		if rec.Clock > best.Clock {
			best = rec
		}
	}
	return best
}

type comparator func(a, b *domain.RankedResult) int

// comparatorFor 按排序字段选择比较函数，返回 nil 表示不排序。
// 主机排序需要额外关联主机名，这里保持原顺序。
func comparatorFor(field domain.SortField) comparator {
	switch field {
	case domain.SortByTime:
		return func(a, b *domain.RankedResult) int { return cmp.Compare(a.Clock, b.Clock) }
	case domain.SortBySeverity:
		return func(a, b *domain.RankedResult) int { return cmp.Compare(a.Severity, b.Severity) }
	case domain.SortByName:
		return func(a, b *domain.RankedResult) int { return strings.Compare(a.Name, b.Name) }
	case domain.SortByRecurrence:
		return func(a, b *domain.RankedResult) int { return cmp.Compare(a.RecurrenceCount, b.RecurrenceCount) }
	case domain.SortByHost:
		return nil
	}
	return nil
}

// Sort 稳定排序，相等元素保持输入顺序。
func Sort(results []*domain.RankedResult, field domain.SortField, order domain.SortOrder) {
	compare := comparatorFor(field)
	if compare == nil {
		return
	}
	direction := 1
	if order == domain.SortDesc {
		direction = -1
	}
	slices.SortStableFunc(results, func(a, b *domain.RankedResult) int {
		return direction * compare(a, b)
	})
}

// Page 分页结果。Total 为截断前的数量。
type Page struct {
	Items []*domain.RankedResult
	Total int
	Info  string
}

// Paginate 截断到 showLines 条，超出时生成提示信息。
// searchLimit 为样本查询上限，结果数超过它时真实总数未知，以 "+" 标示。
func Paginate(results []*domain.RankedResult, showLines, searchLimit int) Page {
	total := len(results)
	page := Page{Items: results, Total: total}
	if showLines < 1 || total <= showLines {
		return page
	}

	page.Items = results[:showLines]
	page.Info = summary(showLines, total, searchLimit)
	return page
}

func summary(shown, total, searchLimit int) string {
	plus := ""
	if searchLimit > 0 && total > searchLimit {
		plus = "+"
		total = searchLimit
	}
	noun := "recurring incidents are shown"
	if shown == 1 {
		noun = "recurring incident is shown"
	}
	return fmt.Sprintf("%d of %d%s %s", shown, total, plus, noun)
}
