package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nexo-app/runtimes/internal/addon"
	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/config"
	"github.com/nexo-app/runtimes/internal/platform"
	"github.com/nexo-app/runtimes/internal/runtimes"
)

// app carries what every command needs, populated before the command runs.
type app struct {
	v          *viper.Viper
	detector   platform.Detector
	configFile string
	jsonOut    bool

	settings *config.Settings
	zap      *zap.Logger
	logger   config.Logger
	index    *addon.Service
}

func (a *app) load() error {
	s, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = s

	z, err := config.NewZap(s.LogLevel)
	if err != nil {
		return err
	}
	a.zap = z
	a.logger = config.NewZapLogger(z)

	a.index = addon.NewService(s.IndexURL, filepath.Join(s.DataDir, "addons", "index.yaml"), a.logger)
	return nil
}

func (a *app) close() {
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}

// target detects the host and resolves it. ok is false on unsupported hosts.
func (a *app) target(ctx context.Context) (*platform.Info, platform.Target, bool, error) {
	info, err := a.detector.Detect(ctx)
	if err != nil {
		return nil, platform.Target{}, false, fmt.Errorf("detect platform: %w", err)
	}
	t, ok := info.Target()
	return info, t, ok, nil
}

// templates returns the configured templates with the index's uv pin applied.
func (a *app) templates(ctx context.Context) config.Templates {
	return a.index.Get(ctx).Apply(a.settings.Templates)
}

func (a *app) manager(ctx context.Context) (*binary.Manager, error) {
	_, t, _, err := a.target(ctx)
	if err != nil {
		return nil, err
	}
	return binary.NewManager(binary.Config{
		DataDir:    a.settings.DataDir,
		Target:     t,
		Toolchains: runtimes.Default(a.templates(ctx)),
		Fetcher:    binary.NewHTTPFetcher(nil, a.settings.HTTPTimeout),
		Logger:     a.logger,
	})
}
