package commission

import (
	"github.com/smallbiznis/kasir/internal/commission/repository"
	"github.com/smallbiznis/kasir/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
