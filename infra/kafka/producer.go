package kafka

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cast"
)

// Producer 将处理失败的问题事件原样写入死信 topic。
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers 不能为空")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic 不能为空")
	}

	mechanism, err := buildSASLMechanism(cfg.SASL)
	if err != nil {
		return nil, errors.Wrap(err, "构建 SASL 认证失败")
	}
	log.Infof("kafka 死信 producer: topic=%s, brokers=%v", cfg.Topic, cfg.Brokers)

	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			Transport:              &kafka.Transport{SASL: mechanism},
			RequiredAcks:           kafka.RequireOne,
			BatchSize:              1,
			WriteTimeout:           10 * time.Second,
			ReadTimeout:            10 * time.Second,
		},
	}, nil
}

// 死信消息头，记录原始消息位置
const (
	headerOriginPartition = "x-origin-partition"
	headerOriginOffset    = "x-origin-offset"
)

// PublishDeadLetter 同步写入，保留原始 key 与消息体。
func (p *Producer) PublishDeadLetter(ctx context.Context, msg core.KafkaMessage) error {
	if p.writer == nil {
		return errors.New("kafka writer 未初始化")
	}
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  time.Now().Local(),
		Headers: []kafka.Header{
			{Key: headerOriginPartition, Value: []byte(cast.ToString(msg.Partition))},
			{Key: headerOriginOffset, Value: []byte(cast.ToString(msg.Offset))},
		},
	})
	if err != nil {
		return errors.Wrap(err, "写入死信 topic 失败")
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

var _ core.KafkaProducer = (*Producer)(nil)
