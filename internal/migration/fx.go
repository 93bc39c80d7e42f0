package migration

import (
	"github.com/smallbiznis/kasir/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		if !db.IsPostgres(conn) {
			log.Named("migrations").Warn("skipping migrations, only postgres is supported",
				zap.String("dialect", conn.Dialector.Name()),
			)
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
