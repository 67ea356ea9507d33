package application

import (
	"github.com/interrail/forwarding/internal/application/document"
	"github.com/interrail/forwarding/internal/application/service"
	"go.uber.org/fx"
)

var Module = fx.Module("application.service",
	document.Module,
	fx.Provide(service.New),
)
