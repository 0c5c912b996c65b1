package recurrence

import (
	"context"
	"fmt"
	"strconv"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

const maxCorrelationTags = 50

// 缓存名称，用于指标标签
const (
	cacheService = "service"
	cacheTree    = "tree"
	cachePath    = "path"
	cacheSLA     = "sla"
)

// CacheObserver 记录缓存命中情况。
type CacheObserver func(cache string, hit bool)

// Correlator 将展示记录关联到业务服务及其 SLA。
// 所有缓存仅在一次请求内有效，每个请求新建一个 Correlator。
type Correlator struct {
	services core.ServiceRepository
	slas     core.SLARepository
	sli      core.SLIClient

	treeLimit    int
	pathMaxDepth int
	observe      CacheObserver

	matches   map[string]*domain.Service // 标签集合 -> 服务，未匹配缓存为 nil
	trees     map[uint64]*domain.ServiceTree
	paths     map[uint64][]domain.ServicePathEntry
	lookups   map[uint64]*domain.Service     // 服务 ID -> 服务，不存在缓存为 nil
	snapshots map[string]*domain.SLASnapshot // 服务+窗口 -> SLA，无 SLA 缓存为 nil
}

func NewCorrelator(services core.ServiceRepository, slas core.SLARepository, sli core.SLIClient, treeLimit, pathMaxDepth int, observe CacheObserver) *Correlator {
	if treeLimit <= 0 {
		treeLimit = DefaultTreeLimit
	}
	if pathMaxDepth <= 0 {
		pathMaxDepth = DefaultPathMaxDepth
	}
	if observe == nil {
		observe = func(string, bool) {}
	}
	return &Correlator{
		services:     services,
		slas:         slas,
		sli:          sli,
		treeLimit:    treeLimit,
		pathMaxDepth: pathMaxDepth,
		observe:      observe,
		matches:      make(map[string]*domain.Service),
		trees:        make(map[uint64]*domain.ServiceTree),
		paths:        make(map[uint64][]domain.ServicePathEntry),
		lookups:      make(map[uint64]*domain.Service),
		snapshots:    make(map[string]*domain.SLASnapshot),
	}
}

// Enrich 依次补充服务与 SLA 字段，外部调用失败时整体返回错误。
func (c *Correlator) Enrich(ctx context.Context, results []*domain.RankedResult, window domain.TimeWindow) error {
	for _, res := range results {
		if err := c.enrich(ctx, res, window); err != nil {
			return err
		}
	}
	return nil
}

func (c *Correlator) enrich(ctx context.Context, res *domain.RankedResult, window domain.TimeWindow) error {
	tags := correlationTags(res.Tags)
	if len(tags) == 0 {
		return nil
	}

	svc, err := c.matchService(ctx, tags)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}

	tree, err := c.serviceTree(ctx, svc.ID)
	if err != nil {
		return err
	}
	path, err := c.servicePath(ctx, svc.ID)
	if err != nil {
		return err
	}
	snapshot, err := c.slaSnapshot(ctx, svc.ID, window)
	if err != nil {
		return err
	}

	id := svc.ID
	res.ServiceID = &id
	res.ServiceName = svc.Name
	res.ServiceTree = tree
	res.ServicePath = path
	if snapshot != nil {
		slaID, slo := snapshot.SLAID, snapshot.SLO
		res.SLAID = &slaID
		res.SLAName = snapshot.SLAName
		res.SLO = &slo
		res.SLI = snapshot.SLI
	}
	return nil
}

// correlationTags 取前 50 个标签，标签名为空的项同样参与匹配。
func correlationTags(tags []domain.Tag) []domain.Tag {
	if len(tags) > maxCorrelationTags {
		tags = tags[:maxCorrelationTags]
	}
	return tags
}

// tagSetKey 标签列表序列化后的哈希，顺序敏感。
func tagSetKey(tags []domain.Tag) (string, error) {
	data, err := sonic.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "序列化问题标签失败")
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

func (c *Correlator) matchService(ctx context.Context, tags []domain.Tag) (*domain.Service, error) {
	key, err := tagSetKey(tags)
	if err != nil {
		return nil, err
	}
	if svc, ok := c.matches[key]; ok {
		c.observe(cacheService, true)
		return svc, nil
	}
	c.observe(cacheService, false)

	services, err := c.services.FindByProblemTags(ctx, tags)
	if err != nil {
		return nil, errors.Wrap(err, "按问题标签匹配服务失败")
	}

	var best *domain.Service
	for i := range services {
		if best == nil || services[i].Name < best.Name {
			best = &services[i]
		}
	}
	c.matches[key] = best
	return best, nil
}

func (c *Correlator) serviceTree(ctx context.Context, serviceID uint64) (*domain.ServiceTree, error) {
	if tree, ok := c.trees[serviceID]; ok {
		c.observe(cacheTree, true)
		return tree, nil
	}
	c.observe(cacheTree, false)

	root, err := c.lookupService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	tree := &domain.ServiceTree{}
	if root != nil {
		descendants, err := c.services.GetDescendants(ctx, serviceID, c.treeLimit+1)
		if err != nil {
			return nil, errors.Wrap(err, "查询服务后代失败")
		}
		tree = AssembleTree(*root, descendants, c.treeLimit)
	}
	c.trees[serviceID] = tree
	return tree, nil
}

func (c *Correlator) servicePath(ctx context.Context, serviceID uint64) ([]domain.ServicePathEntry, error) {
	if path, ok := c.paths[serviceID]; ok {
		c.observe(cachePath, true)
		return path, nil
	}
	c.observe(cachePath, false)

	path, err := WalkPath(ctx, c.lookupService, serviceID, c.pathMaxDepth)
	if err != nil {
		return nil, err
	}
	c.paths[serviceID] = path
	return path, nil
}

// lookupService 服务树与路径共用，同一服务在一次请求内只查询一次。
func (c *Correlator) lookupService(ctx context.Context, serviceID uint64) (*domain.Service, error) {
	if svc, ok := c.lookups[serviceID]; ok {
		return svc, nil
	}
	services, err := c.services.Get(ctx, []uint64{serviceID})
	if err != nil {
		return nil, errors.Wrapf(err, "查询服务 %d 失败", serviceID)
	}
	var found *domain.Service
	for i := range services {
		if services[i].ID == serviceID {
			found = &services[i]
			break
		}
	}
	c.lookups[serviceID] = found
	return found, nil
}

func (c *Correlator) slaSnapshot(ctx context.Context, serviceID uint64, window domain.TimeWindow) (*domain.SLASnapshot, error) {
	key := fmt.Sprintf("%d:%d:%d", serviceID, window.From, window.To)
	if snapshot, ok := c.snapshots[key]; ok {
		c.observe(cacheSLA, true)
		return snapshot, nil
	}
	c.observe(cacheSLA, false)

	slas, err := c.slas.FindEnabled(ctx, serviceID)
	if err != nil {
		return nil, errors.Wrap(err, "查询服务 SLA 失败")
	}
	if len(slas) == 0 {
		c.snapshots[key] = nil
		return nil, nil
	}

	sla := slas[0]
	sli, err := c.sli.GetSLI(ctx, sla.ID, serviceID, window)
	if err != nil {
		return nil, errors.Wrap(err, "查询 SLI 失败")
	}
	snapshot := &domain.SLASnapshot{
		SLAID:   sla.ID,
		SLAName: sla.Name,
		SLO:     sla.SLO,
		SLI:     sli,
	}
	c.snapshots[key] = snapshot
	return snapshot, nil
}
