package recurrence

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/metrics"
	"github.com/pkg/errors"
)

const DefaultSearchLimit = 1000

// Options 分析参数，每次请求读取一次，配置热更新后对新请求生效。
type Options struct {
	SearchLimit    int           // 样本查询上限
	TreeLimit      int           // 服务树后代数量上限
	PathMaxDepth   int           // 服务路径最大回溯深度
	RecentResolved time.Duration // “最近恢复”的时长
	DefaultPeriod  time.Duration // 未指定时间范围时的默认窗口
}

// Service 周期性故障分析。
// 每次 Analyze 的中间状态与缓存都是独立的，可并发调用。
type Service struct {
	events   core.EventRepository
	services core.ServiceRepository
	slas     core.SLARepository
	sli      core.SLIClient

	counter     *Counter
	reliability *ReliabilityCalculator

	options func() Options
	now     func() time.Time
}

func New(
	repoFactory core.RepositoryFactory,
	services core.ServiceRepository,
	slas core.SLARepository,
	sli core.SLIClient,
	options func() Options,
) *Service {
	events := repoFactory.Event()
	return &Service{
		events:      events,
		services:    services,
		slas:        slas,
		sli:         sli,
		counter:     NewCounter(events),
		reliability: NewReliabilityCalculator(events),
		options:     options,
		now:         time.Now,
	}
}

// Analyze 执行一次完整的周期性故障分析。
// 任何外部调用失败都会使整个请求失败，不返回部分结果。
func (s *Service) Analyze(ctx context.Context, query domain.RecurrenceQuery) (report *domain.RecurrenceReport, err error) {
	defer func(start time.Time) {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.ObserveAnalysis(time.Since(start), outcome)
	}(time.Now())

	opts := s.options()
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}

	q, err := query.Normalize(s.now().Unix(), opts.DefaultPeriod)
	if err != nil {
		return nil, err
	}
	filter := q.EventFilter()
	window := q.Window()

	report = &domain.RecurrenceReport{
		Items:     []*domain.RankedResult{},
		SortField: q.SortField,
		SortOrder: q.SortOrder,
	}

	sample, err := s.events.FindProblems(ctx, filter, q.Scope(opts.RecentResolved), window, opts.SearchLimit)
	if err != nil {
		return nil, errors.Wrap(err, "查询问题样本失败")
	}
	agg := Aggregate(sample)
	if agg.Len() == 0 {
		return report, nil
	}

	counts, err := s.counter.Count(ctx, filter, agg.SourceIDs(), window)
	if err != nil {
		return nil, err
	}
	if err := s.reliability.CoarsePass(ctx, agg); err != nil {
		return nil, err
	}

	ranked := Join(agg, counts, q.MinOccurrences)
	Sort(ranked, q.SortField, q.SortOrder)
	page := Paginate(ranked, q.ShowLines, opts.SearchLimit)

	report.Total = page.Total
	report.Info = page.Info
	if len(page.Items) == 0 {
		return report, nil
	}

	if err := s.reliability.ExactPass(ctx, filter, window, page.Items); err != nil {
		return nil, err
	}

	correlator := NewCorrelator(s.services, s.slas, s.sli, opts.TreeLimit, opts.PathMaxDepth, metrics.ObserveCacheLookup)
	if err := correlator.Enrich(ctx, page.Items, window); err != nil {
		return nil, err
	}

	for _, item := range page.Items {
		item.DisplayTags = FormatTags(item.Tags, q.ShowTags, q.TagNameFormat, q.TagPriority)
	}

	report.Items = page.Items
	report.Shown = len(page.Items)
	log.Debugf("周期性故障分析完成: 样本=%d, 候选=%d, 达到阈值=%d, 展示=%d",
		len(sample), agg.Len(), page.Total, report.Shown)
	return report, nil
}
