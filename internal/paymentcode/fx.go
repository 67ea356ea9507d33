package paymentcode

import (
	"github.com/interrail/forwarding/internal/paymentcode/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentcode.service",
	fx.Provide(service.New),
)
