package recurrence

import (
	"context"
	"slices"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
)

// fakeEvents 内存事件存储，记录调用次数。
type fakeEvents struct {
	problems []domain.ProblemRecord
	counts   map[domain.TimeWindow]map[uint64]int
	events   []domain.EventRef // FindBySources 的数据源
	byID     map[uint64]domain.EventRef
	err      error
	calls    map[string]int
	lastIDs  [][]uint64
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		counts: make(map[domain.TimeWindow]map[uint64]int),
		byID:   make(map[uint64]domain.EventRef),
		calls:  make(map[string]int),
	}
}

func (f *fakeEvents) FindProblems(_ context.Context, _ domain.EventFilter, _ domain.ProblemScope, _ domain.TimeWindow, limit int) ([]domain.ProblemRecord, error) {
	f.calls["FindProblems"]++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.problems) > limit {
		return f.problems[:limit], nil
	}
	return f.problems, nil
}

func (f *fakeEvents) CountBySource(_ context.Context, _ domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) (map[uint64]int, error) {
	f.calls["CountBySource"]++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uint64]int)
	for id, n := range f.counts[window] {
		if slices.Contains(sourceIDs, id) {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeEvents) FindBySources(_ context.Context, _ domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) ([]domain.EventRef, error) {
	f.calls["FindBySources"]++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.EventRef
	for _, ev := range f.events {
		if slices.Contains(sourceIDs, ev.SourceID) && ev.Clock >= window.From && ev.Clock < window.To {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEvents) FindByIDs(_ context.Context, eventIDs []uint64) (map[uint64]domain.EventRef, error) {
	f.calls["FindByIDs"]++
	f.lastIDs = append(f.lastIDs, eventIDs)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uint64]domain.EventRef)
	for _, id := range eventIDs {
		if ref, ok := f.byID[id]; ok {
			out[id] = ref
		}
	}
	return out, nil
}

func (f *fakeEvents) Upsert(context.Context, domain.ProblemEvent) error { return nil }

func (f *fakeEvents) MarkResolved(context.Context, uint64, uint64, int64) error { return nil }

// addEvent 同时登记到 FindBySources 与 FindByIDs。
func (f *fakeEvents) addEvent(ref domain.EventRef) {
	f.events = append(f.events, ref)
	f.byID[ref.EventID] = ref
}

type fakeFactory struct {
	events core.EventRepository
}

func (f fakeFactory) Event() core.EventRepository { return f.events }

// fakeServices 内存服务存储。
type fakeServices struct {
	services map[uint64]domain.Service
	byTag    map[string][]uint64 // "tag=value" -> 服务
	order    []uint64            // 后代返回顺序
	err      error
	calls    map[string]int
}

func newFakeServices(services ...domain.Service) *fakeServices {
	f := &fakeServices{
		services: make(map[uint64]domain.Service),
		byTag:    make(map[string][]uint64),
		calls:    make(map[string]int),
	}
	for _, s := range services {
		f.services[s.ID] = s
		f.order = append(f.order, s.ID)
	}
	return f
}

func (f *fakeServices) FindByProblemTags(_ context.Context, tags []domain.Tag) ([]domain.Service, error) {
	f.calls["FindByProblemTags"]++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Service
	seen := make(map[uint64]bool)
	for _, t := range tags {
		for _, id := range f.byTag[t.Tag+"="+t.Value] {
			if !seen[id] {
				seen[id] = true
				out = append(out, f.services[id])
			}
		}
	}
	return out, nil
}

func (f *fakeServices) Get(_ context.Context, serviceIDs []uint64) ([]domain.Service, error) {
	f.calls["Get"]++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Service
	for _, id := range serviceIDs {
		if s, ok := f.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetDescendants 沿父引用向下遍历，带 visited 防环。
func (f *fakeServices) GetDescendants(_ context.Context, serviceID uint64, limit int) ([]domain.Service, error) {
	f.calls["GetDescendants"]++
	if f.err != nil {
		return nil, f.err
	}
	visited := map[uint64]bool{serviceID: true}
	var out []domain.Service
	frontier := []uint64{serviceID}
	for len(frontier) > 0 && len(out) < limit {
		var next []uint64
		for _, id := range f.order {
			s := f.services[id]
			if visited[id] {
				continue
			}
			for _, p := range s.ParentIDs {
				if slices.Contains(frontier, p) {
					visited[id] = true
					out = append(out, s)
					next = append(next, id)
					break
				}
			}
			if len(out) >= limit {
				break
			}
		}
		frontier = next
	}
	return out, nil
}

type fakeSLAs struct {
	slas  map[uint64][]domain.SLA
	err   error
	calls int
}

func (f *fakeSLAs) FindEnabled(_ context.Context, serviceID uint64) ([]domain.SLA, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.slas[serviceID], nil
}

type fakeSLI struct {
	values map[uint64]float64 // slaID -> sli
	err    error
	calls  int
}

func (f *fakeSLI) GetSLI(_ context.Context, slaID, _ uint64, _ domain.TimeWindow) (*float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[slaID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func int64Ptr(v int64) *int64 { return &v }
