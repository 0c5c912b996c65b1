package ingest

import (
	"context"
	"fmt"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/cache"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/metrics"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/ingest/standardizer"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/utils/timex"
	"github.com/pkg/errors"
)

const (
	dedupKeyPrefix  = "recurrence:ingest:"
	defaultDedupTTL = 24 * time.Hour
)

// Service 消费问题事件 topic，标准化后写入 itops_problem_event。
type Service struct {
	consumer   core.KafkaConsumer
	deadLetter core.KafkaProducer // 可选
	events     core.EventRepository
	dedup      cache.Cache // 可选
	std        standardizer.Standardizer
	dedupTTL   time.Duration
}

func New(
	events core.EventRepository,
	std standardizer.Standardizer,
	consumer core.KafkaConsumer,
	deadLetter core.KafkaProducer,
	dedup cache.Cache,
	dedupTTL time.Duration,
) *Service {
	if dedupTTL <= 0 {
		dedupTTL = defaultDedupTTL
	}
	return &Service{
		consumer:   consumer,
		deadLetter: deadLetter,
		events:     events,
		dedup:      dedup,
		std:        std,
		dedupTTL:   dedupTTL,
	}
}

// Start 阻塞消费，直到 ctx 取消。
func (s *Service) Start(ctx context.Context) error {
	if s.consumer == nil {
		return errors.New("kafka consumer not configured")
	}
	if s.std == nil {
		return errors.New("standardizer not configured")
	}
	if s.events == nil {
		return errors.New("event repository not configured")
	}
	log.Infof("问题事件接入已启动，dedup=%t, dead_letter=%t", s.dedup != nil, s.deadLetter != nil)
	return s.consumer.ConsumeProblemEvents(ctx, s.handle)
}

func (s *Service) handle(ctx context.Context, msg core.KafkaMessage) error {
	update, err := s.std.Standardize(ctx, msg.Value)
	if err != nil {
		return s.fail(ctx, msg, "", errors.Wrap(err, "standardize problem event"))
	}

	defer func(t time.Time) {
		log.Debugw("问题事件处理完成",
			"event_id", update.Problem.EventID,
			"status", update.Status,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"duration_ms", time.Since(t).Milliseconds(),
		)
	}(timex.NowLocalTime())

	key, fresh := s.acquire(ctx, update)
	if !fresh {
		log.Infof("重复的问题事件，跳过: event_id=%d, status=%s", update.Problem.EventID, update.Status)
		metrics.ObserveIngest(metrics.OutcomeSkipped)
		return nil
	}

	if err := s.persist(ctx, update); err != nil {
		return s.fail(ctx, msg, key, err)
	}
	metrics.ObserveIngest(metrics.OutcomeSuccess)
	return nil
}

// acquire 抢占去重键。未配置缓存或缓存异常时按新消息处理，返回的 key 为空。
func (s *Service) acquire(ctx context.Context, update standardizer.Update) (string, bool) {
	if s.dedup == nil {
		return "", true
	}
	key := dedupKey(update)
	ok, err := s.dedup.SetNX(ctx, key, "1", s.dedupTTL)
	if err != nil {
		log.Warnf("去重键写入失败，继续处理: key=%s, err=%v", key, err)
		return "", true
	}
	return key, ok
}

func (s *Service) persist(ctx context.Context, update standardizer.Update) error {
	if update.Status != standardizer.StatusResolved {
		if err := s.events.Upsert(ctx, update.Problem); err != nil {
			return errors.Wrap(err, "persist problem event")
		}
		return nil
	}

	if update.Recovery == nil {
		return errors.Errorf("恢复消息缺少恢复事件: event_id=%d", update.Problem.EventID)
	}
	if err := s.events.Upsert(ctx, *update.Recovery); err != nil {
		return errors.Wrap(err, "persist recovery event")
	}
	err := s.events.MarkResolved(ctx, update.Problem.EventID, update.Problem.REventID, update.Problem.RClock)
	if errors.Is(err, core.ErrEventNotFound) {
		// 问题消息未被接入过，用恢复消息携带的内容补写
		log.Warnf("问题事件不存在，按恢复消息补写: event_id=%d", update.Problem.EventID)
		err = s.events.Upsert(ctx, update.Problem)
	}
	if err != nil {
		return errors.Wrap(err, "mark problem resolved")
	}
	return nil
}

// fail 释放去重键并写入死信，返回原始错误交给消费者记录。
func (s *Service) fail(ctx context.Context, msg core.KafkaMessage, key string, cause error) error {
	metrics.ObserveIngest(metrics.OutcomeError)
	if key != "" {
		if err := s.dedup.Del(ctx, key); err != nil {
			log.Warnf("释放去重键失败: key=%s, err=%v", key, err)
		}
	}
	if s.deadLetter != nil {
		if err := s.deadLetter.PublishDeadLetter(ctx, msg); err != nil {
			log.Errorf("写入死信失败: partition=%d, offset=%d, err=%v", msg.Partition, msg.Offset, err)
		}
	}
	return cause
}

// Close 关闭消费者、死信生产者与去重缓存。
func (s *Service) Close() error {
	var firstErr error
	if s.consumer != nil {
		if err := s.consumer.Close(); err != nil {
			firstErr = errors.Wrap(err, "close kafka consumer")
		}
	}
	if s.deadLetter != nil {
		if err := s.deadLetter.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close kafka producer")
		}
	}
	if s.dedup != nil {
		if err := s.dedup.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close dedup cache")
		}
	}
	return firstErr
}

func dedupKey(update standardizer.Update) string {
	return fmt.Sprintf("%s%d:%s", dedupKeyPrefix, update.Problem.EventID, update.Status)
}
