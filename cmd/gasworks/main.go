package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/clock"
	"github.com/tanklab/gasworks/internal/config"
	"github.com/tanklab/gasworks/internal/cylinder"
	"github.com/tanklab/gasworks/internal/fillevent"
	"github.com/tanklab/gasworks/internal/gas"
	"github.com/tanklab/gasworks/internal/invoice"
	"github.com/tanklab/gasworks/internal/logger"
	"github.com/tanklab/gasworks/internal/migration"
	"github.com/tanklab/gasworks/internal/observability"
	"github.com/tanklab/gasworks/internal/payment"
	"github.com/tanklab/gasworks/internal/pricing"
	"github.com/tanklab/gasworks/internal/server"
	"github.com/tanklab/gasworks/internal/user"
	"github.com/tanklab/gasworks/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional domains
		gas.Module,
		pricing.Module,
		cylinder.Module,
		user.Module,
		fillevent.Module,
		invoice.Module,
		payment.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
