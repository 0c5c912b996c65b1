package recurrence

import (
	"context"
	"math"
	"slices"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/pkg/errors"
)

// ReliabilityStats MTTR/MTBF 统计，单位秒。
type ReliabilityStats struct {
	ResolvedCount int
	ResolvedSum   int64
	MTTRAvg       *int64 // 没有有效恢复记录时为空
	MTBFAvg       *int64 // 发生次数少于 2 时为空
}

// occurrence 一次发生及其恢复时间。
type occurrence struct {
	clock      int64
	resolvedAt int64
	resolved   bool
}

// ReliabilityCalculator 计算 MTTR/MTBF。
// 粗算基于截断样本，精算只针对最终展示的故障源并取回全部事件。
type ReliabilityCalculator struct {
	events core.EventRepository
}

func NewReliabilityCalculator(events core.EventRepository) *ReliabilityCalculator {
	return &ReliabilityCalculator{events: events}
}

// CoarsePass 基于样本计算各故障源的统计，结果写入 CoarseAggregate.Stats。
// MTBF 为排序后相邻发生间隔的平均值。
func (r *ReliabilityCalculator) CoarsePass(ctx context.Context, agg *SampleAggregation) error {
	if agg.Len() == 0 {
		return nil
	}

	refs, err := r.events.FindByIDs(ctx, agg.EventIDs())
	if err != nil {
		return errors.Wrap(err, "查询样本事件恢复信息失败")
	}
	pairs := make(map[uint64]uint64, len(refs))
	for id, ref := range refs {
		if ref.ResolutionEventID != 0 {
			pairs[id] = ref.ResolutionEventID
		}
	}
	resolved, err := r.resolutionClocks(ctx, pairs)
	if err != nil {
		return err
	}

	for _, a := range agg.Aggregates() {
		occs := make([]occurrence, 0, len(a.Records))
		clocks := make([]int64, 0, len(a.Records))
		for _, rec := range a.Records {
			occs = append(occs, toOccurrence(rec.EventID, rec.Clock, resolved))
			clocks = append(clocks, rec.Clock)
		}
		a.Stats = resolutionStats(occs)
		a.Stats.MTBFAvg = gapMeanMTBF(clocks)
	}
	return nil
}

// ExactPass 取回展示故障源在窗口内的全部事件，重算统计并覆盖到结果上。
// 此处 MTBF 按 (last-first)/(count-1) 计算。
func (r *ReliabilityCalculator) ExactPass(ctx context.Context, filter domain.EventFilter, window domain.TimeWindow, results []*domain.RankedResult) error {
	if len(results) == 0 {
		return nil
	}

	var sourceIDs []uint64
	seen := make(map[uint64]bool, len(results))
	for _, res := range results {
		if !seen[res.SourceID] {
			seen[res.SourceID] = true
			sourceIDs = append(sourceIDs, res.SourceID)
		}
	}

	refs, err := r.events.FindBySources(ctx, filter, sourceIDs, window)
	if err != nil {
		return errors.Wrap(err, "查询展示故障源全部事件失败")
	}

	pairs := make(map[uint64]uint64)
	bySource := make(map[uint64][]domain.EventRef)
	for _, ref := range refs {
		bySource[ref.SourceID] = append(bySource[ref.SourceID], ref)
		if ref.ResolutionEventID != 0 {
			pairs[ref.EventID] = ref.ResolutionEventID
		}
	}
	resolved, err := r.resolutionClocks(ctx, pairs)
	if err != nil {
		return err
	}

	for _, res := range results {
		events := bySource[res.SourceID]
		if len(events) == 0 {
			continue
		}
		occs := make([]occurrence, 0, len(events))
		first, last := events[0].Clock, events[0].Clock
		for _, ev := range events {
			occs = append(occs, toOccurrence(ev.EventID, ev.Clock, resolved))
			first = min(first, ev.Clock)
			last = max(last, ev.Clock)
		}
		stats := resolutionStats(occs)
		res.ResolvedCount = stats.ResolvedCount
		res.MTTRAvg = stats.MTTRAvg
		res.MTBFAvg = spanMTBF(first, last, len(events))
		res.FirstOccurrence = first
		res.LastOccurrence = last
	}
	return nil
}

// resolutionClocks 查询恢复事件，返回 问题事件ID -> 恢复时间。找不到的恢复事件视为未恢复。
func (r *ReliabilityCalculator) resolutionClocks(ctx context.Context, pairs map[uint64]uint64) (map[uint64]int64, error) {
	clocks := make(map[uint64]int64, len(pairs))
	if len(pairs) == 0 {
		return clocks, nil
	}

	rIDs := make([]uint64, 0, len(pairs))
	seen := make(map[uint64]bool, len(pairs))
	for _, rID := range pairs {
		if !seen[rID] {
			seen[rID] = true
			rIDs = append(rIDs, rID)
		}
	}
	slices.Sort(rIDs)

	rEvents, err := r.events.FindByIDs(ctx, rIDs)
	if err != nil {
		return nil, errors.Wrap(err, "查询恢复事件失败")
	}
	for eventID, rID := range pairs {
		if rEvent, ok := rEvents[rID]; ok {
			clocks[eventID] = rEvent.Clock
		}
	}
	return clocks, nil
}

func toOccurrence(eventID uint64, clock int64, resolved map[uint64]int64) occurrence {
	at, ok := resolved[eventID]
	return occurrence{clock: clock, resolvedAt: at, resolved: ok}
}

// resolutionStats 只统计恢复时长非负的发生。
func resolutionStats(occs []occurrence) ReliabilityStats {
	var stats ReliabilityStats
	for _, o := range occs {
		if !o.resolved {
			continue
		}
		d := o.resolvedAt - o.clock
		if d < 0 {
			continue
		}
		stats.ResolvedSum += d
		stats.ResolvedCount++
	}
	if stats.ResolvedCount > 0 {
		stats.MTTRAvg = roundDiv(stats.ResolvedSum, int64(stats.ResolvedCount))
	}
	return stats
}

// gapMeanMTBF 排序后相邻间隔的平均值。
func gapMeanMTBF(clocks []int64) *int64 {
	if len(clocks) < 2 {
		return nil
	}
	sorted := slices.Clone(clocks)
	slices.Sort(sorted)
	var sum int64
	for i := 1; i < len(sorted); i++ {
		sum += sorted[i] - sorted[i-1]
	}
	return roundDiv(sum, int64(len(sorted)-1))
}

// spanMTBF 首末发生跨度按次数均分，事件均匀分布时的近似值。
func spanMTBF(first, last int64, count int) *int64 {
	if count < 2 {
		return nil
	}
	return roundDiv(last-first, int64(count-1))
}

// roundDiv 四舍五入（远离零）的整除。
func roundDiv(sum, n int64) *int64 {
	v := int64(math.Round(float64(sum) / float64(n)))
	return &v
}
