package therapist

import (
	"github.com/smallbiznis/kasir/internal/therapist/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("therapist.repository",
	fx.Provide(repository.Provide),
)
