package opensearch

import (
	"context"
	"net/http"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	opensearchsdk "github.com/opensearch-project/opensearch-go/v2"
	opensearchapi "github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const bySourceAgg = "by_source"

// EventStore 负责 itops_problem_event 索引的全部操作。
type EventStore struct {
	client   *opensearchsdk.Client
	pageSize int
}

// eventDocument 包装 ProblemEvent 并补充索引公共字段。
type eventDocument struct {
	domain.ProblemEvent
	Timestamp time.Time `json:"@timestamp"`
	WriteTime time.Time `json:"__write_time"`
	DataType  string    `json:"__data_type"`
	IndexBase string    `json:"__index_base"`
	ID        string    `json:"__id"`
}

func NewEventStore(client *opensearchsdk.Client) *EventStore {
	return &EventStore{client: client, pageSize: maxQuerySize}
}

func (s *EventStore) FindProblems(ctx context.Context, filter domain.EventFilter, scope domain.ProblemScope, window domain.TimeWindow, limit int) ([]domain.ProblemRecord, error) {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "EventStore.FindProblems",
			"index", ProblemEventIndex,
			"limit", limit,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if s.client == nil {
		return nil, errors.New("opensearch client 未初始化")
	}
	if limit <= 0 {
		return nil, nil
	}

	filters, mustNot := problemFilters(filter)
	filters = append(filters, clockRange(window))
	if q := scopeFilter(scope); q != nil {
		filters = append(filters, q)
	}

	resp, err := s.search(ctx, map[string]any{
		"size":  limit,
		"query": boolQuery(filters, mustNot),
		"sort": []any{
			map[string]any{"clock": map[string]any{"order": "desc"}},
			map[string]any{"event_id": map[string]any{"order": "desc"}},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "查询问题事件失败")
	}

	events, err := decodeHits[domain.ProblemEvent](resp)
	if err != nil {
		return nil, err
	}
	records := make([]domain.ProblemRecord, 0, len(events))
	for i := range events {
		records = append(records, events[i].ToRecord())
	}
	return records, nil
}

func (s *EventStore) CountBySource(ctx context.Context, filter domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) (map[uint64]int, error) {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "EventStore.CountBySource",
			"index", ProblemEventIndex,
			"source_ids_count", len(sourceIDs),
			"from", window.From,
			"to", window.To,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	counts := make(map[uint64]int)
	if len(sourceIDs) == 0 {
		return counts, nil
	}
	if s.client == nil {
		return nil, errors.New("opensearch client 未初始化")
	}

	for _, chunk := range chunkUint64s(sourceIDs, maxQuerySize) {
		filters, mustNot := problemFilters(filter)
		filters = append(filters, terms("object_id", chunk), clockRange(window))

		resp, err := s.search(ctx, map[string]any{
			"size":  0,
			"query": boolQuery(filters, mustNot),
			"aggs": map[string]any{
				bySourceAgg: map[string]any{
					"terms": map[string]any{
						"field": "object_id",
						"size":  len(chunk),
					},
				},
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "统计问题事件失败")
		}
		for _, b := range resp.Aggregations[bySourceAgg].Buckets {
			counts[cast.ToUint64(b.Key.String())] += b.DocCount
		}
	}
	return counts, nil
}

// FindBySources 通过 search_after 翻页取回全部匹配事件，不受单页大小限制。
func (s *EventStore) FindBySources(ctx context.Context, filter domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) ([]domain.EventRef, error) {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "EventStore.FindBySources",
			"index", ProblemEventIndex,
			"source_ids_count", len(sourceIDs),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if len(sourceIDs) == 0 {
		return nil, nil
	}
	if s.client == nil {
		return nil, errors.New("opensearch client 未初始化")
	}

	filters, mustNot := problemFilters(filter)
	filters = append(filters, terms("object_id", sourceIDs), clockRange(window))
	body := map[string]any{
		"size":  s.pageSize,
		"query": boolQuery(filters, mustNot),
		"sort": []any{
			map[string]any{"clock": map[string]any{"order": "asc"}},
			map[string]any{"event_id": map[string]any{"order": "asc"}},
		},
	}

	var refs []domain.EventRef
	for {
		resp, err := s.search(ctx, body)
		if err != nil {
			return nil, errors.Wrap(err, "查询故障源事件失败")
		}
		events, err := decodeHits[domain.ProblemEvent](resp)
		if err != nil {
			return nil, err
		}
		for i := range events {
			refs = append(refs, events[i].ToRef())
		}

		hits := resp.Hits.Hits
		if len(hits) < s.pageSize || len(hits[len(hits)-1].Sort) == 0 {
			break
		}
		body["search_after"] = hits[len(hits)-1].Sort
	}
	return refs, nil
}

func (s *EventStore) FindByIDs(ctx context.Context, eventIDs []uint64) (map[uint64]domain.EventRef, error) {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "EventStore.FindByIDs",
			"index", ProblemEventIndex,
			"ids_count", len(eventIDs),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	refs := make(map[uint64]domain.EventRef, len(eventIDs))
	if len(eventIDs) == 0 {
		return refs, nil
	}
	if s.client == nil {
		return nil, errors.New("opensearch client 未初始化")
	}

	for _, chunk := range chunkUint64s(eventIDs, maxQuerySize) {
		strIDs := make([]string, len(chunk))
		for i, id := range chunk {
			strIDs[i] = cast.ToString(id)
		}
		body, err := encodeBody(map[string]any{"ids": strIDs})
		if err != nil {
			return nil, err
		}
		res, err := opensearchapi.MgetRequest{Index: ProblemEventIndex, Body: body}.Do(ctx, s.client)
		if err != nil {
			return nil, errors.Wrap(err, "按 ID 查询事件失败")
		}
		data, err := readResponse(res)
		if err != nil {
			return nil, err
		}
		events, err := decodeMGet[domain.ProblemEvent](data)
		if err != nil {
			return nil, err
		}
		for i := range events {
			refs[events[i].EventID] = events[i].ToRef()
		}
	}
	return refs, nil
}

func (s *EventStore) Upsert(ctx context.Context, event domain.ProblemEvent) error {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "EventStore.Upsert",
			"index", ProblemEventIndex,
			"document_id", event.EventID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if s.client == nil {
		return errors.New("opensearch client 未初始化")
	}
	if event.EventID == 0 {
		return errors.New("event_id 不能为空")
	}

	docID := cast.ToString(event.EventID)
	body, err := encodeBody(eventDocument{
		ProblemEvent: event,
		Timestamp:    time.Unix(event.Clock, 0),
		WriteTime:    time.Now().Local(),
		DataType:     ProblemEventIndexBase,
		IndexBase:    ProblemEventIndexBase,
		ID:           docID,
	})
	if err != nil {
		return err
	}

	res, err := opensearchapi.IndexRequest{
		Index:      ProblemEventIndex,
		DocumentID: docID,
		Body:       body,
		Refresh:    "wait_for",
	}.Do(ctx, s.client)
	if err != nil {
		return errors.Wrap(err, "写入问题事件失败")
	}
	_, err = readResponse(res)
	return err
}

// MarkResolved 回填问题事件的恢复事件 ID 与恢复时间。
func (s *EventStore) MarkResolved(ctx context.Context, eventID, rEventID uint64, rClock int64) error {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "EventStore.MarkResolved",
			"index", ProblemEventIndex,
			"document_id", eventID,
			"r_event_id", rEventID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if s.client == nil {
		return errors.New("opensearch client 未初始化")
	}
	if eventID == 0 || rEventID == 0 {
		return errors.New("event_id 与 r_event_id 不能为空")
	}

	body, err := encodeBody(map[string]any{
		"doc": map[string]any{"r_event_id": rEventID, "r_clock": rClock},
	})
	if err != nil {
		return err
	}

	retry := 3
	res, err := opensearchapi.UpdateRequest{
		Index:           ProblemEventIndex,
		DocumentID:      cast.ToString(eventID),
		Body:            body,
		Refresh:         "wait_for",
		RetryOnConflict: &retry,
	}.Do(ctx, s.client)
	if err != nil {
		return errors.Wrap(err, "更新问题恢复信息失败")
	}
	if _, err = readResponse(res); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return errors.Wrapf(core.ErrEventNotFound, "event_id=%d: %v", eventID, err)
		}
		return err
	}
	return nil
}

func (s *EventStore) search(ctx context.Context, payload map[string]any) (*searchResponse, error) {
	body, err := encodeBody(payload)
	if err != nil {
		return nil, err
	}
	res, err := opensearchapi.SearchRequest{
		Index: []string{ProblemEventIndex},
		Body:  body,
	}.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	data, err := readResponse(res)
	if err != nil {
		return nil, err
	}
	return decodeSearchResponse(data)
}

var _ core.EventRepository = (*EventStore)(nil)
