package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/cache"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/kafka"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/metrics"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/mysql"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/opensearch"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/slaapi"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/api"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/ingest"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/ingest/standardizer"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/recurrence"
	"github.com/google/wire"
	opensearchsdk "github.com/opensearch-project/opensearch-go/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const pingTimeout = 5 * time.Second

var infraSet = wire.NewSet(
	provideConfig,
	provideOpenSearchClient,
	opensearch.NewRepositoryFactory,
	wire.Bind(new(core.RepositoryFactory), new(*opensearch.RepositoryFactory)),
	provideDB,
	mysql.NewServiceStore,
	wire.Bind(new(core.ServiceRepository), new(*mysql.ServiceStore)),
	mysql.NewSLAStore,
	wire.Bind(new(core.SLARepository), new(*mysql.SLAStore)),
	provideSLIClient,
	wire.Bind(new(core.SLIClient), new(*slaapi.Client)),
	provideGatherer,
)

var moduleSet = wire.NewSet(
	provideRecurrenceOptions,
	recurrence.New,
	wire.Bind(new(api.Analyzer), new(*recurrence.Service)),
	provideAPIServer,
	provideIngest,
)

func provideConfig(cfgManager *config.ConfigManager) *config.Config {
	return cfgManager.GetConfig()
}

// provideOpenSearchClient 集群暂不可用时只告警，查询在恢复后自动成功。
func provideOpenSearchClient(ctx context.Context, cfg *config.Config) (*opensearchsdk.Client, error) {
	client, err := opensearch.NewClient(opensearch.OpenSearchConfig{
		Protocol:           cfg.DepServices.OpenSearch.Protocol,
		Host:               cfg.DepServices.OpenSearch.Host,
		Port:               cfg.DepServices.OpenSearch.Port,
		Username:           cfg.DepServices.OpenSearch.User,
		Password:           cfg.DepServices.OpenSearch.Password,
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "初始化 OpenSearch 失败")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := opensearch.Ping(pingCtx, client); err != nil {
		log.Warnf("OpenSearch 暂不可用: %v", err)
	}
	return client, nil
}

func provideDB(ctx context.Context, cfg *config.Config) (*sql.DB, func(), error) {
	db, err := mysql.NewDB(ctx, mysql.MysqlConfig{
		Host:     cfg.DepServices.MySQL.Host,
		Port:     cfg.DepServices.MySQL.Port,
		Username: cfg.DepServices.MySQL.User,
		Password: cfg.DepServices.MySQL.Password,
		Database: cfg.DepServices.MySQL.Database,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "初始化 MySQL 失败")
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Warnf("关闭 MySQL 连接失败: %v", err)
		}
	}, nil
}

func provideSLIClient(cfg *config.Config) *slaapi.Client {
	return slaapi.NewClient(slaapi.SLAAPIConfig{
		BaseURL:            cfg.SLAAPI.BaseURL,
		Timeout:            cfg.SLAAPI.Timeout,
		Token:              cfg.SLAAPI.Token,
		InsecureSkipVerify: cfg.SLAAPI.InsecureSkipVerify,
	})
}

// provideGatherer 业务指标与 Go 运行时指标注册到独立的 registry。
func provideGatherer() (prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, errors.Wrap(err, "注册 Go 运行时指标失败")
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, errors.Wrap(err, "注册进程指标失败")
	}
	if err := metrics.Register(reg); err != nil {
		return nil, errors.Wrap(err, "注册业务指标失败")
	}
	return reg, nil
}

// provideRecurrenceOptions 每次请求读取最新配置。
func provideRecurrenceOptions(cfgManager *config.ConfigManager) func() recurrence.Options {
	return func() recurrence.Options {
		return recurrenceOptions(cfgManager.GetConfig().Recurrence)
	}
}

func recurrenceOptions(rc config.RecurrenceConfig) recurrence.Options {
	return recurrence.Options{
		SearchLimit:    rc.SearchLimit,
		TreeLimit:      rc.TreeLimit,
		PathMaxDepth:   rc.PathMaxDepth,
		RecentResolved: rc.RecentResolvedPeriod,
		DefaultPeriod:  rc.DefaultPeriod,
	}
}

func provideAPIServer(cfg *config.Config, analyzer api.Analyzer, gatherer prometheus.Gatherer) *api.Server {
	return api.New(cfg.API, analyzer, gatherer)
}

// provideIngest ingest.enabled 为 false 时返回 nil。
func provideIngest(cfg *config.Config, repoFactory core.RepositoryFactory) (*ingest.Service, func(), error) {
	if !cfg.Ingest.Enabled {
		log.Info("问题事件接入未启用")
		return nil, func() {}, nil
	}

	std, err := standardizer.Build(cfg.Ingest.Source)
	if err != nil {
		return nil, nil, errors.Wrap(err, "初始化 standardizer 失败")
	}

	brokers := kafkaBrokers(cfg.DepServices.MQ)
	sasl := kafkaSASL(cfg.DepServices.MQ)

	consumer, err := kafka.NewConsumer(kafka.Config{
		Brokers: brokers,
		SASL:    sasl,
		Topic:   cfg.Kafka.ProblemEvents.Topic,
		GroupID: cfg.Kafka.ProblemEvents.ConsumerGroup,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "创建kafka消费者失败")
	}

	var deadLetter core.KafkaProducer
	if cfg.Kafka.DeadLetterTopic != "" {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers: brokers,
			SASL:    sasl,
			Topic:   cfg.Kafka.DeadLetterTopic,
		})
		if err != nil {
			_ = consumer.Close()
			return nil, nil, errors.Wrap(err, "创建kafka生产者失败")
		}
		deadLetter = producer
	}

	var dedup cache.Cache
	if redisCfg, ok := redisConfig(cfg.DepServices.Redis); ok {
		redisCache, err := cache.NewRedisCache(redisCfg)
		if err != nil {
			// 去重不可用时仍然接入
			log.Warnf("初始化 Redis 失败，接入去重已关闭: %v", err)
		} else {
			dedup = redisCache
		}
	}

	svc := ingest.New(repoFactory.Event(), std, consumer, deadLetter, dedup, cfg.Ingest.DedupTTL)
	return svc, func() {
		if err := svc.Close(); err != nil {
			log.Warnf("关闭问题事件接入失败: %v", err)
		}
	}, nil
}

func kafkaBrokers(mq config.MQConfig) []string {
	if mq.MQHost == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s:%d", mq.MQHost, mq.MQPort)}
}

// kafkaSASL 配置了用户名时启用 SASL。
func kafkaSASL(mq config.MQConfig) *kafka.SASLConfig {
	if mq.Auth.Username == "" {
		return nil
	}
	return &kafka.SASLConfig{
		Enabled:   true,
		Mechanism: mq.Auth.Mechanism,
		Username:  mq.Auth.Username,
		Password:  mq.Auth.Password,
	}
}

// redisConfig 未配置地址时返回 false。
func redisConfig(dep config.DepRedisConfig) (cache.RedisConfig, bool) {
	info := dep.ConnectInfo
	if dep.ConnectType == "sentinel" {
		if info.SentinelHost == "" || info.MasterGroupName == "" {
			return cache.RedisConfig{}, false
		}
		return cache.RedisConfig{
			Username:         info.Username,
			Password:         info.Password,
			MasterName:       info.MasterGroupName,
			SentinelAddrs:    []string{fmt.Sprintf("%s:%d", info.SentinelHost, info.SentinelPort)},
			SentinelUsername: info.SentinelUsername,
			SentinelPassword: info.SentinelPassword,
		}, true
	}
	if info.Host == "" {
		return cache.RedisConfig{}, false
	}
	port := info.Port
	if port == 0 {
		port = 6379
	}
	return cache.RedisConfig{
		Host:     fmt.Sprintf("%s:%d", info.Host, port),
		Username: info.Username,
		Password: info.Password,
	}, true
}
