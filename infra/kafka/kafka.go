package kafka

import (
	"strings"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

const (
	defaultGroupID = "itops-recurring-incident-consumer"
	minBytes       = 1
	maxBytes       = 10 * 1024 * 1024
)

type Config struct {
	Brokers []string    `mapstructure:"brokers"`
	SASL    *SASLConfig `mapstructure:"sasl"`

	// 由调用方按用途填充
	Topic   string `mapstructure:"-"`
	GroupID string `mapstructure:"-"`
}

type SASLConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Mechanism string `mapstructure:"mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// buildSASLMechanism 未启用 SASL 时返回 nil，机制名不区分大小写。
func buildSASLMechanism(saslCfg *SASLConfig) (sasl.Mechanism, error) {
	if saslCfg == nil || !saslCfg.Enabled {
		return nil, nil
	}

	switch strings.ToUpper(saslCfg.Mechanism) {
	case "PLAIN", "":
		log.Infof("kafka 使用 PLAIN 认证机制")
		return plain.Mechanism{
			Username: saslCfg.Username,
			Password: saslCfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		mechanism, err := scram.Mechanism(scram.SHA256, saslCfg.Username, saslCfg.Password)
		if err != nil {
			return nil, errors.Wrap(err, "创建 SCRAM-SHA-256 认证失败")
		}
		log.Infof("kafka 使用 SCRAM-SHA-256 认证机制")
		return mechanism, nil
	case "SCRAM-SHA-512":
		mechanism, err := scram.Mechanism(scram.SHA512, saslCfg.Username, saslCfg.Password)
		if err != nil {
			return nil, errors.Wrap(err, "创建 SCRAM-SHA-512 认证失败")
		}
		log.Infof("kafka 使用 SCRAM-SHA-512 认证机制")
		return mechanism, nil
	default:
		return nil, errors.Errorf("不支持的 SASL 机制: %s", saslCfg.Mechanism)
	}
}
