package invoice

import (
	"github.com/tanklab/gasworks/internal/invoice/repository"
	"github.com/tanklab/gasworks/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
