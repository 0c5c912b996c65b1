package app

import (
	"context"
	stderr "errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/api"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/module/ingest"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// App 持有各模块，Ingest 未启用时为 nil。
type App struct {
	API    *api.Server
	Ingest *ingest.Service

	cleanup func()
}

func New(ctx context.Context, cfgManager *config.ConfigManager) (*App, error) {
	a, cleanup, err := initApp(ctx, cfgManager)
	if err != nil {
		return nil, errors.Wrap(err, "装配应用失败")
	}
	a.cleanup = cleanup
	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context 不能为空")
	}

	eg, egCtx := errgroup.WithContext(ctx)

	if a.Ingest != nil {
		eg.Go(func() error {
			if err := a.Ingest.Start(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "ingest 启动失败")
			}
			return nil
		})
	}

	if a.API != nil {
		eg.Go(func() error {
			if err := a.API.Start(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "api 启动失败")
			}
			return nil
		})
	}

	log.Info("应用已启动，等待退出信号")
	return eg.Wait()
}

// Close 统一关闭持有的连接资源，需由上层在取消上下文后调用。
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.API != nil {
		if err := a.API.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, errors.Wrap(err, "stop api"))
		}
	}
	// 关闭 Kafka、Redis 与 MySQL
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}

	return stderr.Join(errs...)
}
