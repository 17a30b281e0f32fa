package gas

import (
	"github.com/tanklab/gasworks/internal/gas/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("gas",
	fx.Provide(repository.Provide),
)
