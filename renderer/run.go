package renderer

import (
	"context"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderquad/graphics"
	"github.com/richinsley/goshaderquad/resource"
	"github.com/richinsley/goshaderquad/shader"
)

// Run fetches the requests concurrently and, once every one of them has arrived, builds
// and draws the pipeline on dev. If any fetch fails the pipeline is aborted before a
// single GPU object is created. The returned pipeline reports how far it got.
func Run(ctx context.Context, dev graphics.Device, fetch resource.FetchFunc[string], requests []resource.Request, schema shader.Schema, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := NewPipeline(dev, schema, logger)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(requests))
	for i, r := range requests {
		names[i] = r.Name
	}
	logger.Info("fetching resources", zap.Strings("names", names))

	bundle, err := resource.JoinAll(ctx, requests, fetch)
	if err != nil {
		return p, p.Abort(err)
	}
	logger.Info("resources ready", zap.Int("count", len(bundle)))

	return p, p.Build(bundle)
}
