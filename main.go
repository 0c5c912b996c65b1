package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/app"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "config/config.yaml"

// 程序入口：读取 YAML 配置并装配各模块。
func main() {
	configPath := os.Getenv("RECURRENCE_CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfgManager, err := config.NewConfigManager(configPath)
	if err != nil {
		log.Fatalf("创建配置管理器失败: %v", err)
	}

	cfg := cfgManager.GetConfig()

	// 初始化日志
	log.SetDefaultLog(&log.LogCfg{
		Filepath:    cfg.Log.Filepath,
		Level:       cfg.Log.Level,
		MaxSize:     cfg.Log.MaxSize,
		MaxAge:      cfg.Log.MaxAge,
		MaxBackups:  cfg.Log.MaxBackups,
		Compress:    cfg.Log.Compress,
		Development: cfg.Log.Development,
	})
	defer func() {
		_ = log.Sync()
	}()

	// 日志级别支持热更新，其余配置项在重启后生效
	cfgManager.OnChange(func(c *config.Config) {
		if err := log.SetLevel(c.Log.Level); err != nil {
			log.Warnf("日志级别 %q 不合法: %v", c.Log.Level, err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfgManager)
	if err != nil {
		log.Fatalf("build app: %v", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := application.Close(shutdownCtx); err != nil {
			log.Errorf("close application: %v", err)
		}
		cfgManager.Stop()
	}()

	log.Infof("周期性故障分析服务启动，source=%s, kafka_topic=%s, api_port=%d",
		cfg.Ingest.Source, cfg.Kafka.ProblemEvents.Topic, cfg.API.Port)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := cfgManager.Start(egCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		if err := application.Start(egCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Errorf("start application: %v", err)
	}
}
