package recurrence

import (
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
)

// CoarseAggregate 样本内单个故障源的聚合。
// 样本受查询上限截断，Count 不是权威计数，只用于发现候选故障源与挑选展示记录。
type CoarseAggregate struct {
	SourceID        uint64
	Count           int
	FirstOccurrence int64
	LastOccurrence  int64
	Records         []domain.ProblemRecord // 保持样本中的到达顺序
	Stats           ReliabilityStats       // 粗算结果，见 CoarsePass
}

// SampleAggregation 按故障源首次出现的顺序保存聚合结果。
type SampleAggregation struct {
	order    []uint64
	bySource map[uint64]*CoarseAggregate
}

// Aggregate 按故障源分组样本。
func Aggregate(sample []domain.ProblemRecord) *SampleAggregation {
	agg := &SampleAggregation{bySource: make(map[uint64]*CoarseAggregate)}
	for _, rec := range sample {
		a, ok := agg.bySource[rec.SourceID]
		if !ok {
			a = &CoarseAggregate{
				SourceID:        rec.SourceID,
				FirstOccurrence: rec.Clock,
				LastOccurrence:  rec.Clock,
			}
			agg.bySource[rec.SourceID] = a
			agg.order = append(agg.order, rec.SourceID)
		}
		a.Count++
		a.FirstOccurrence = min(a.FirstOccurrence, rec.Clock)
		a.LastOccurrence = max(a.LastOccurrence, rec.Clock)
		a.Records = append(a.Records, rec)
	}
	return agg
}

func (a *SampleAggregation) Len() int {
	return len(a.order)
}

// SourceIDs 候选故障源，按首次出现顺序。
func (a *SampleAggregation) SourceIDs() []uint64 {
	ids := make([]uint64, len(a.order))
	copy(ids, a.order)
	return ids
}

// Aggregates 按首次出现顺序返回全部聚合。
func (a *SampleAggregation) Aggregates() []*CoarseAggregate {
	out := make([]*CoarseAggregate, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.bySource[id])
	}
	return out
}

func (a *SampleAggregation) Get(sourceID uint64) *CoarseAggregate {
	return a.bySource[sourceID]
}

// EventIDs 样本中全部事件 ID。
func (a *SampleAggregation) EventIDs() []uint64 {
	var ids []uint64
	for _, sid := range a.order {
		for _, rec := range a.bySource[sid].Records {
			ids = append(ids, rec.EventID)
		}
	}
	return ids
}
