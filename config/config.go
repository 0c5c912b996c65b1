package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "RECURRENCE"

// Config 映射 config.yaml，环境变量 RECURRENCE_<SECTION>_<KEY> 可覆盖同名配置。
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Log         LogConfig         `mapstructure:"log"`         // 日志配置
	Recurrence  RecurrenceConfig  `mapstructure:"recurrence"`  // 分析参数，热更新后对新请求生效
	Kafka       KafkaConfig       `mapstructure:"kafka"`       // Kafka 配置
	Ingest      IngestConfig      `mapstructure:"ingest"`      // 问题事件接入
	SLAAPI      SLAAPIConfig      `mapstructure:"sla_api"`     // SLA 报表服务
	DepServices DepServicesConfig `mapstructure:"depServices"` // 依赖服务配置
}

// ========== API 配置 ==========

// APIConfig API 服务配置
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// ========== 日志配置 ==========

// LogConfig 日志配置
type LogConfig struct {
	Filepath    string `mapstructure:"filepath"`    // 日志文件路径
	Level       string `mapstructure:"level"`       // 日志级别 debug info warn error
	MaxSize     int    `mapstructure:"max_size"`    // 每个日志文件最大空间(单位：MB)
	MaxAge      int    `mapstructure:"max_age"`     // 文件最多保留多少天
	MaxBackups  int    `mapstructure:"max_backups"` // 文件最多保留多少备份
	Compress    bool   `mapstructure:"compress"`    // 是否压缩
	Development bool   `mapstructure:"development"` // 是否开启开发模式
}

// ========== 分析配置 ==========

// RecurrenceConfig 周期性故障分析参数
type RecurrenceConfig struct {
	SearchLimit          int           `mapstructure:"search_limit"`           // 样本查询上限
	TreeLimit            int           `mapstructure:"tree_limit"`             // 服务树后代数量上限
	PathMaxDepth         int           `mapstructure:"path_max_depth"`         // 服务路径最大回溯深度
	RecentResolvedPeriod time.Duration `mapstructure:"recent_resolved_period"` // “最近恢复”的时长
	DefaultPeriod        time.Duration `mapstructure:"default_period"`         // 未指定时间范围时的窗口
}

// ========== Kafka 配置 ==========

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	ProblemEvents   KafkaStreamConfig `mapstructure:"problem_events"`    // 问题事件流（Webhook -> Ingest）
	DeadLetterTopic string            `mapstructure:"dead_letter_topic"` // 为空时不写死信
}

// KafkaStreamConfig Kafka 流配置
type KafkaStreamConfig struct {
	Topic         string `mapstructure:"topic"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

// ========== 接入配置 ==========

// IngestConfig 问题事件接入配置
type IngestConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Source   string        `mapstructure:"source"`    // 数据源类型，如 zabbix_webhook
	DedupTTL time.Duration `mapstructure:"dedup_ttl"` // 去重键有效期
}

// ========== SLA 报表服务 ==========

// SLAAPIConfig SLA 报表服务配置
type SLAAPIConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Token              string        `mapstructure:"token"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// ========== 依赖服务配置 ==========

// DepServicesConfig 依赖服务配置
type DepServicesConfig struct {
	MQ         MQConfig            `mapstructure:"mq"`         // 消息队列配置
	OpenSearch DepOpenSearchConfig `mapstructure:"opensearch"` // OpenSearch 配置
	Redis      DepRedisConfig      `mapstructure:"redis"`      // Redis 配置
	MySQL      DepMySQLConfig      `mapstructure:"mysql"`      // MySQL 配置
}

// MQConfig 消息队列配置
type MQConfig struct {
	Auth     MQAuthConfig `mapstructure:"auth"`     // 认证配置
	MQHost   string       `mapstructure:"mqHost"`   // 消息队列主机地址
	MQPort   int          `mapstructure:"mqPort"`   // 消息队列端口
	MQType   string       `mapstructure:"mqType"`   // 消息队列类型（如 kafka）
	Protocol string       `mapstructure:"protocol"` // 协议（如 sasl_plaintext）
}

// MQAuthConfig 消息队列认证配置
type MQAuthConfig struct {
	Mechanism string `mapstructure:"mechanism"` // 认证机制（如 PLAIN）
	Password  string `mapstructure:"password"`  // 密码
	Username  string `mapstructure:"username"`  // 用户名
}

// DepOpenSearchConfig 依赖的 OpenSearch 配置
type DepOpenSearchConfig struct {
	Host     string `mapstructure:"host"`     // OpenSearch 主机地址
	Port     int    `mapstructure:"port"`     // OpenSearch 端口
	Protocol string `mapstructure:"protocol"` // 协议（http/https）
	User     string `mapstructure:"user"`     // 用户名
	Password string `mapstructure:"password"` // 密码
}

// DepRedisConfig 依赖的 Redis 配置
type DepRedisConfig struct {
	ConnectInfo RedisConnectInfo `mapstructure:"connectInfo"` // 连接信息
	ConnectType string           `mapstructure:"connectType"` // 连接类型（sentinel / standalone）
}

// RedisConnectInfo Redis 连接信息
type RedisConnectInfo struct {
	Host             string `mapstructure:"host"`             // 单机模式地址
	Port             int    `mapstructure:"port"`             // 单机模式端口
	MasterGroupName  string `mapstructure:"masterGroupName"`  // Master 组名（Sentinel 模式）
	Password         string `mapstructure:"password"`         // Redis 密码
	SentinelHost     string `mapstructure:"sentinelHost"`     // Sentinel 主机地址
	SentinelPassword string `mapstructure:"sentinelPassword"` // Sentinel 密码
	SentinelPort     int    `mapstructure:"sentinelPort"`     // Sentinel 端口
	SentinelUsername string `mapstructure:"sentinelUsername"` // Sentinel 用户名
	Username         string `mapstructure:"username"`         // Redis 用户名
}

// DepMySQLConfig 依赖的 MySQL 配置
type DepMySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("api.port", 13048)

	vp.SetDefault("log.level", "info")
	vp.SetDefault("log.max_size", 100)
	vp.SetDefault("log.max_age", 7)
	vp.SetDefault("log.max_backups", 10)

	vp.SetDefault("recurrence.search_limit", 1000)
	vp.SetDefault("recurrence.tree_limit", 300)
	vp.SetDefault("recurrence.path_max_depth", 30)
	vp.SetDefault("recurrence.recent_resolved_period", 5*time.Minute)
	vp.SetDefault("recurrence.default_period", 30*24*time.Hour)

	vp.SetDefault("kafka.problem_events.topic", "itops_problem_event")
	vp.SetDefault("kafka.problem_events.consumer_group", "itops-recurring-incident-consumer")
	vp.SetDefault("kafka.dead_letter_topic", "")

	vp.SetDefault("ingest.enabled", true)
	vp.SetDefault("ingest.source", "zabbix_webhook")
	vp.SetDefault("ingest.dedup_ttl", 24*time.Hour)

	vp.SetDefault("sla_api.timeout", 10*time.Second)

	vp.SetDefault("depServices.opensearch.protocol", "http")
	vp.SetDefault("depServices.opensearch.port", 9200)
	vp.SetDefault("depServices.mysql.port", 3306)
	vp.SetDefault("depServices.mysql.database", "itops")
	vp.SetDefault("depServices.mq.mqPort", 9092)
}

// Load 读取 YAML 配置并叠加默认值与环境变量。
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	setDefaults(vp)

	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if err := vp.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}
