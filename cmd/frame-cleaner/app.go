package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/config"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/history"
	"github.com/ironsheep/frame-cleaner/internal/logging"
	"github.com/ironsheep/frame-cleaner/internal/report"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	cleaner *cleaner.Cleaner
	store   *history.Store
}

// newApp builds the logger and the cleaner. With sinks set, the report
// writer and, when enabled, the run history are attached to the cleaner.
func newApp(cfg *config.Config, sinks bool) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     logger,
		cleaner: cleaner.New(drawing.NewJSONHost(), cleaner.OptionsFromConfig(cfg), logger),
	}
	if !sinks {
		return a, nil
	}

	if cfg.Report.CSV || cfg.Report.HTML {
		a.cleaner.AddSink(&report.Writer{
			CSV:        cfg.Report.CSV,
			HTML:       cfg.Report.HTML,
			Thumbnails: cfg.Report.Thumbnails && cfg.Cleaner.Preview,
		})
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.Sync(logger)
			return nil, fmt.Errorf("run history: %w", err)
		}
		a.store = store
		a.cleaner.AddSink(store)
	}
	return a, nil
}

// Close releases the history database and flushes the logger.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close history", zap.Error(err))
		}
	}
	logging.Sync(a.log)
}
