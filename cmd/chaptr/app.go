package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/config"
	"github.com/snarg/chaptr/internal/database"
	"github.com/snarg/chaptr/internal/ingest"
	"github.com/snarg/chaptr/internal/metrics"
	"github.com/snarg/chaptr/internal/mqttclient"
	"github.com/snarg/chaptr/internal/optimize"
	"github.com/snarg/chaptr/internal/pipeline"
	"github.com/snarg/chaptr/internal/segment"
	"github.com/snarg/chaptr/internal/storage"
	"github.com/snarg/chaptr/internal/transcribe"
)

// app holds the collaborators a command needs. Optional ones are nil when
// not configured.
type app struct {
	cfg        *config.Config
	run        pipeline.RunConfig
	log        zerolog.Logger
	store      storage.ChapterStore
	reconciler *storage.Reconciler
	db         *database.DB
	mqtt       *mqttclient.Client
	llm        segment.Provider
	stt        transcribe.Provider
}

// appNeeds selects which collaborators newApp connects.
type appNeeds struct {
	store bool
	llm   bool
	stt   bool
	db    bool
	mqtt  bool
}

func newApp(ctx context.Context, g *Globals, ov config.Overrides, needs appNeeds) (*app, error) {
	cfg, err := config.Load(ov)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel, g.LogFormat)
	rc, err := cfg.RunConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, run: rc, log: log}

	if needs.store {
		a.store, a.reconciler, err = storage.New(cfg.S3, cfg.OutputDir, log)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("store", a.store.Type()).Str("output_dir", cfg.OutputDir).Msg("chapter store ready")
	}

	if needs.llm {
		if cfg.LLM.Enabled() {
			a.llm, err = segment.NewProvider(segment.ProviderOptions{
				Kind:        cfg.LLM.Provider,
				Model:       cfg.LLM.Model,
				APIKey:      cfg.LLM.Key(),
				BaseURL:     cfg.LLM.BaseURL,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
			})
			if err != nil {
				return nil, err
			}
			log.Info().Str("provider", a.llm.Name()).Str("model", a.llm.Model()).Msg("segmentation provider configured")
		} else {
			log.Warn().Msg("no LLM credentials configured, chapters will be evenly spaced")
		}
	}

	if needs.stt && cfg.STT.Enabled() {
		a.stt, err = newTranscriber(cfg.STT)
		if err != nil {
			return nil, err
		}
	}

	if needs.db {
		a.connectDatabase(ctx)
	}
	if needs.mqtt {
		a.connectMQTT()
	}
	return a, nil
}

func newTranscriber(c config.STTConfig) (transcribe.Provider, error) {
	opts := transcribe.ProviderOptions{Kind: c.Provider, Timeout: c.Timeout}
	switch strings.ToLower(c.Provider) {
	case "deepinfra":
		opts.APIKey, opts.Model = c.DeepInfraAPIKey, c.DeepInfraModel
	case "elevenlabs":
		opts.APIKey, opts.Model, opts.Keyterms = c.ElevenLabsAPIKey, c.ElevenLabsModel, c.ElevenLabsKeyterms
	default:
		opts.URL, opts.Model = c.WhisperURL, c.WhisperModel
	}
	return transcribe.NewProvider(opts)
}

// connectDatabase connects and migrates the run history database when
// configured. Failures are logged and history stays disabled.
func (a *app) connectDatabase(ctx context.Context) {
	if a.cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, database.Options{URL: a.cfg.DatabaseURL, Log: a.log})
		if err != nil {
			a.log.Warn().Err(err).Msg("database unavailable, run history disabled")
		} else if err := db.Migrate(ctx); err != nil {
			a.log.Warn().Err(err).Msg("database migration failed, run history disabled")
			db.Close()
		} else {
			a.db = db
		}
	}
}

// connectMQTT connects the event broker when configured.
func (a *app) connectMQTT() {
	if a.cfg.MQTTBrokerURL != "" {
		c, err := mqttclient.Connect(mqttclient.Options{
			BrokerURL:   a.cfg.MQTTBrokerURL,
			ClientID:    a.cfg.MQTTClientID,
			TopicPrefix: a.cfg.MQTTTopicPrefix,
			Username:    a.cfg.MQTTUsername,
			Password:    a.cfg.MQTTPassword,
			Log:         a.log,
		})
		if err != nil {
			a.log.Warn().Err(err).Msg("mqtt unavailable, run events disabled")
		} else {
			a.mqtt = c
		}
	}
}

// processor wires the pipeline and every configured sink.
func (a *app) processor() *ingest.Processor {
	opts := ingest.ProcessorOptions{
		Runner:         pipeline.NewRunner(pipeline.Options{Provider: a.llm, Log: a.log}),
		RunConfig:      a.run,
		Store:          a.store,
		Transcriber:    a.stt,
		TranscribeOpts: transcribe.TranscribeOpts{Language: a.cfg.STT.Language},
		Log:            a.log,
	}
	if a.cfg.Optimize && a.llm != nil {
		opts.Suggester = optimize.NewSuggester(optimize.Options{
			Provider:    a.llm,
			CallTimeout: a.run.SegmentTimeout,
			Log:         a.log,
		})
	}
	if a.db != nil {
		opts.Recorder = a.db
	}
	if a.mqtt != nil {
		opts.Publisher = a.mqtt
	}
	return ingest.NewProcessor(opts)
}

// close releases connections and writes the metrics textfile.
func (a *app) close() {
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.writeMetrics()
}

func (a *app) writeMetrics() {
	if a.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteFile(a.cfg.MetricsFile); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("failed to write metrics file")
	}
}
