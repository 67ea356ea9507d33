package counterparty

import (
	"github.com/interrail/forwarding/internal/counterparty/service"
	"go.uber.org/fx"
)

var Module = fx.Module("counterparty.service",
	fx.Provide(service.New),
)
