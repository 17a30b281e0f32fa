package fillevent

import (
	"github.com/tanklab/gasworks/internal/fillevent/repository"
	"github.com/tanklab/gasworks/internal/fillevent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fillevent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
