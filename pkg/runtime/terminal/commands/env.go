package commands

import (
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/runtime/app"
	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/de-tools/cost-atlas/pkg/services/pipeline"
)

// Env is shared by all commands of one CLI invocation. Configuration and the application are
// loaded on first use, so commands that need neither (profiles with an explicit path) stay cheap.
type Env struct {
	ConfigPath string
	// Source replaces the live AWS collector when set.
	Source pipeline.SnapshotSource

	cfg *config.Config
	app *app.App
}

func (e *Env) Config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	e.cfg = cfg
	return cfg, nil
}

func (e *Env) App() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

// LiveSource is the configured override, or the AWS collector.
func (e *Env) LiveSource(a *app.App) pipeline.SnapshotSource {
	if e.Source != nil {
		return e.Source
	}
	return a.Collector()
}

func (e *Env) Close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}
