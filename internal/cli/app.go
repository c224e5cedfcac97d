package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ppiankov/vibecheck/internal/cache"
	"github.com/ppiankov/vibecheck/internal/llm"
	"github.com/ppiankov/vibecheck/internal/logging"
	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/pipeline"
)

// app holds the components a command needs, built from configuration
type app struct {
	config   *model.Config
	log      *logrus.Logger
	store    cache.Store
	pipeline *pipeline.Pipeline

	logCloser io.Closer
}

// newApp loads configuration and opens the logger and cache.
// The research provider and pipeline are only built when withPipeline is set.
func newApp(withPipeline bool) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if verbose && cfg.Log.Level == "info" {
		cfg.Log.Level = "debug"
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	a := &app{config: cfg, log: log, store: store, logCloser: logCloser}

	if withPipeline {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.Research), log)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create research provider: %w", err)
		}
		a.pipeline = pipeline.NewPipeline(cfg, provider, cache.NewGate(store, log, cache.WithGenerateTimeout(cfg.Server.GenerateTimeout)), log)
		log.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"cache":    cfg.Cache.Backend,
		}).Debug("pipeline ready")
	}

	return a, nil
}

// Close releases the cache and the log file
func (a *app) Close() error {
	return errors.Join(cache.Close(a.store), a.logCloser.Close())
}
