package session

import (
	"log/slog"

	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/seed"
)

// SeedFactory opens each canvas with the seed graph its template names.
// opts apply to every engine; each engine logs with the canvas id attached.
func SeedFactory(logger *slog.Logger, opts ...engine.Option) EngineFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(canvasID, template string) (*engine.Engine, error) {
		s, err := seed.ByName(template)
		if err != nil {
			return nil, err
		}
		all := append([]engine.Option{engine.WithLogger(logger.With("canvas", canvasID))}, opts...)
		e := engine.New(all...)
		if err := e.Load(s); err != nil {
			return nil, err
		}
		return e, nil
	}
}
