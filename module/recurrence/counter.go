package recurrence

import (
	"context"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/pkg/errors"
)

// AuthoritativeCounts 当前窗口与前一等长窗口的精确计数。
type AuthoritativeCounts struct {
	Current  map[uint64]int
	Previous map[uint64]int
}

// CurrentOf 当前窗口计数，缺失按 0。
func (c AuthoritativeCounts) CurrentOf(sourceID uint64) int {
	return c.Current[sourceID]
}

// Trend 当前计数减前一窗口计数。
func (c AuthoritativeCounts) Trend(sourceID uint64) int {
	return c.Current[sourceID] - c.Previous[sourceID]
}

// Counter 精确计数器，不受样本上限影响。
type Counter struct {
	events core.EventRepository
}

func NewCounter(events core.EventRepository) *Counter {
	return &Counter{events: events}
}

// Count 统计候选故障源在 window 与其前一窗口内的发生次数。候选为空时不发起查询。
func (c *Counter) Count(ctx context.Context, filter domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) (AuthoritativeCounts, error) {
	counts := AuthoritativeCounts{
		Current:  map[uint64]int{},
		Previous: map[uint64]int{},
	}
	if len(sourceIDs) == 0 {
		return counts, nil
	}

	current, err := c.events.CountBySource(ctx, filter, sourceIDs, window)
	if err != nil {
		return counts, errors.Wrap(err, "统计当前窗口发生次数失败")
	}
	previous, err := c.events.CountBySource(ctx, filter, sourceIDs, window.Previous())
	if err != nil {
		return counts, errors.Wrap(err, "统计前一窗口发生次数失败")
	}
	if current != nil {
		counts.Current = current
	}
	if previous != nil {
		counts.Previous = previous
	}
	return counts, nil
}
