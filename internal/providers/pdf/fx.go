package pdf

import (
	"context"

	"github.com/interrail/forwarding/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(NewRemoteConverter),
	fx.Provide(NewLocalRenderer),
	fx.Provide(NewProvider),
)

// NewProvider picks the converter the runtime document config names.
// The holder is consulted per call, so a hot reload flips providers
// without a restart.
func NewProvider(holder *config.DocumentConfigHolder, remote *RemoteConverter, local *LocalRenderer, log *zap.Logger) Provider {
	return &switchingProvider{
		holder: holder,
		remote: remote,
		local:  local,
		log:    log,
	}
}

type switchingProvider struct {
	holder *config.DocumentConfigHolder
	remote *RemoteConverter
	local  *LocalRenderer
	log    *zap.Logger
}

func (p *switchingProvider) Convert(ctx context.Context, doc Document) ([]byte, error) {
	if p.holder.Get().Provider == config.PDFProviderLocal {
		return p.local.Convert(ctx, doc)
	}
	return p.remote.Convert(ctx, doc)
}
