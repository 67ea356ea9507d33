package territory

import (
	"github.com/interrail/forwarding/internal/territory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("territory.service",
	fx.Provide(service.New),
)
