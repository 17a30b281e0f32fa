package pricing

import (
	"github.com/tanklab/gasworks/internal/pricing/repository"
	"github.com/tanklab/gasworks/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
