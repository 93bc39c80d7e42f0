package member

import (
	"github.com/smallbiznis/kasir/internal/member/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("member.repository",
	fx.Provide(repository.Provide),
)
