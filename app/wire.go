//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/config"
	"github.com/google/wire"
)

func initApp(ctx context.Context, cfgManager *config.ConfigManager) (*App, func(), error) {
	panic(wire.Build(infraSet, moduleSet, wire.Struct(new(App), "API", "Ingest")))
}
