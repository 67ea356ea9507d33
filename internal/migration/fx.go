package migration

import (
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	"github.com/interrail/forwarding/internal/config"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	paymentcodedomain "github.com/interrail/forwarding/internal/paymentcode/domain"
	"github.com/interrail/forwarding/internal/seed"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned migrations target postgres; other
			// dialects (dev sqlite, mysql) take the schema from
			// the models directly.
			err := conn.AutoMigrate(
				&territorydomain.Territory{},
				&counterpartydomain.Counterparty{},
				&authdomain.User{},
				&authdomain.Session{},
				&applicationdomain.Application{},
				&paymentcodedomain.PaymentCode{},
			)
			if err != nil {
				return err
			}
		}

		if cfg.BootstrapAdminUsername != "" {
			return seed.EnsureAdminUser(conn, cfg)
		}
		return nil
	}),
)
