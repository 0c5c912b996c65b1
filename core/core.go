package core

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/pkg/errors"
)

// ErrEventNotFound 更新的问题事件在索引中不存在。
var ErrEventNotFound = errors.New("问题事件不存在")

// KafkaConsumer 顺序消费问题事件 topic。
type KafkaConsumer interface {
	ConsumeProblemEvents(ctx context.Context, handler func(ctx context.Context, msg KafkaMessage) error) error
	Close() error
}

// KafkaProducer 写入处理失败的问题事件。
type KafkaProducer interface {
	PublishDeadLetter(ctx context.Context, msg KafkaMessage) error
	Close() error
}

// KafkaMessage 表示消费到的 Kafka 消息。
type KafkaMessage struct {
	Key       string
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// EventRepository 管理 itops_problem_event 索引。
type EventRepository interface {
	// FindProblems 样本查询，按时间倒序返回至多 limit 条问题事件。
	FindProblems(ctx context.Context, filter domain.EventFilter, scope domain.ProblemScope, window domain.TimeWindow, limit int) ([]domain.ProblemRecord, error)
	// CountBySource 精确计数，不受样本上限影响。
	CountBySource(ctx context.Context, filter domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) (map[uint64]int, error)
	// FindBySources 返回指定故障源在窗口内的全部问题事件。
	FindBySources(ctx context.Context, filter domain.EventFilter, sourceIDs []uint64, window domain.TimeWindow) ([]domain.EventRef, error)
	// FindByIDs 按事件 ID 查询，不存在的 ID 不出现在结果中。
	FindByIDs(ctx context.Context, eventIDs []uint64) (map[uint64]domain.EventRef, error)

	Upsert(ctx context.Context, event domain.ProblemEvent) error
	// MarkResolved 问题事件不存在时返回 ErrEventNotFound。
	MarkResolved(ctx context.Context, eventID, rEventID uint64, rClock int64) error
}

// ServiceRepository 业务服务层级存储。
type ServiceRepository interface {
	// FindByProblemTags 按问题标签（OR 组合）匹配服务，按名称升序。
	FindByProblemTags(ctx context.Context, tags []domain.Tag) ([]domain.Service, error)
	// Get 按 ID 查询服务及其父节点。
	Get(ctx context.Context, serviceIDs []uint64) ([]domain.Service, error)
	// GetDescendants 返回服务的全部后代（不含自身）及其父节点，至多 limit 个。
	GetDescendants(ctx context.Context, serviceID uint64, limit int) ([]domain.Service, error)
}

// SLARepository SLA 定义存储。
type SLARepository interface {
	FindEnabled(ctx context.Context, serviceID uint64) ([]domain.SLA, error)
}

// SLIClient 从 SLA 报表服务获取 SLI。没有数据时返回 nil。
type SLIClient interface {
	GetSLI(ctx context.Context, slaID, serviceID uint64, window domain.TimeWindow) (*float64, error)
}

type RepositoryFactory interface {
	Event() EventRepository
}
