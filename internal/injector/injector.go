//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/wildersim/wilder/internal/core/config"
	"github.com/wildersim/wilder/internal/core/observability/log"
	"github.com/wildersim/wilder/internal/core/world"
)

func ProvideLogger() *log.Logger {
	wire.Build(log.Provide)
	return log.New(log.LevelDebug)
}

func ProvideWorld(cfg *config.Config, logger log.Log) (*world.World, error) {
	wire.Build(world.New)
	return world.New(cfg, logger)
}
