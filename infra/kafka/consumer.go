package kafka

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Consumer 基于 kafka-go Reader 顺序消费问题事件。
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(cfg Config) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers 不能为空")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic 不能为空")
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = defaultGroupID
	}

	mechanism, err := buildSASLMechanism(cfg.SASL)
	if err != nil {
		return nil, errors.Wrap(err, "构建 SASL 认证失败")
	}

	// SASL_PLAINTEXT，不使用 TLS
	dialer := &kafka.Dialer{
		Timeout:       10 * time.Second,
		DualStack:     true,
		SASLMechanism: mechanism,
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:       cfg.Brokers,
			Topic:         cfg.Topic,
			GroupID:       groupID,
			MinBytes:      minBytes,
			MaxBytes:      maxBytes,
			QueueCapacity: 1,
			Dialer:        dialer,
		}),
	}, nil
}

// ConsumeProblemEvents 逐条处理并提交。handler 失败只记录日志，消息照常提交。
func (c *Consumer) ConsumeProblemEvents(ctx context.Context, handler func(ctx context.Context, msg core.KafkaMessage) error) error {
	if c.reader == nil {
		return errors.New("kafka reader 未初始化")
	}
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		}

		if err := handler(ctx, core.KafkaMessage{
			Key:       string(msg.Key),
			Value:     msg.Value,
			Partition: int32(msg.Partition),
			Offset:    msg.Offset,
			Timestamp: msg.Time,
		}); err != nil {
			log.Errorf("问题事件处理失败，partition=%d offset=%d err=%v", msg.Partition, msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit kafka offset")
		}
	}
}

func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

var _ core.KafkaConsumer = (*Consumer)(nil)
