package diagnostics

import (
	"github.com/smallbiznis/kasir/internal/diagnostics/repository"
	"github.com/smallbiznis/kasir/internal/diagnostics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("diagnostics.recorder",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
