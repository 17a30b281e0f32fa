package migration

import (
	"github.com/tanklab/gasworks/internal/config"
	cylinderdomain "github.com/tanklab/gasworks/internal/cylinder/domain"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"github.com/tanklab/gasworks/internal/seed"
	userdomain "github.com/tanklab/gasworks/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "sqlite" {
			// Local development shortcut; versioned SQL covers the server
			// databases.
			if err := conn.AutoMigrate(
				&gasdomain.Gas{},
				&pricingdomain.GasPrice{},
				&userdomain.User{},
				&cylinderdomain.CylinderSet{},
				&cylinderdomain.StorageCylinder{},
				&filleventdomain.FillEvent{},
				&filleventdomain.FillLineItem{},
				&paymentdomain.PaymentEvent{},
				&paymentdomain.FillEventLink{},
				&paymentdomain.ExternalIntent{},
				&paymentdomain.WebhookEvent{},
			); err != nil {
				return err
			}
			return seed.EnsureGases(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
			return err
		}
		return seed.EnsureGases(conn)
	}),
)
