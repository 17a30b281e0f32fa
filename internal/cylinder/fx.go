package cylinder

import (
	"github.com/tanklab/gasworks/internal/cylinder/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("cylinder",
	fx.Provide(repository.Provide),
)
