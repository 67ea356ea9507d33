package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/interrail/forwarding/internal/application"
	"github.com/interrail/forwarding/internal/auth"
	"github.com/interrail/forwarding/internal/config"
	"github.com/interrail/forwarding/internal/counterparty"
	"github.com/interrail/forwarding/internal/migration"
	"github.com/interrail/forwarding/internal/observability"
	"github.com/interrail/forwarding/internal/paymentcode"
	"github.com/interrail/forwarding/internal/providers/pdf"
	"github.com/interrail/forwarding/internal/server"
	"github.com/interrail/forwarding/internal/storage"
	"github.com/interrail/forwarding/internal/territory"
	"github.com/interrail/forwarding/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		storage.Module,
		pdf.Module,
		auth.Module,
		territory.Module,
		counterparty.Module,
		application.Module,
		paymentcode.Module,

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
