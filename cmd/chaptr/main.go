package main

import (
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/config"
)

var version = "dev"

// Globals are flags shared by every subcommand. Empty values leave the
// environment/.env setting in place.
type Globals struct {
	EnvFile       string `name:"env-file" help:"Path to .env file" default:".env"`
	LogLevel      string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat     string `name:"log-format" help:"Log output format" enum:"json,console" default:"json"`
	OutputDir     string `name:"output-dir" help:"Directory for exported chapter files (overrides OUTPUT_DIR)"`
	DatabaseURL   string `name:"database-url" help:"PostgreSQL connection URL for run history (overrides DATABASE_URL)"`
	MQTTBrokerURL string `name:"mqtt-url" help:"MQTT broker URL for run events (overrides MQTT_BROKER_URL)"`
}

var cli struct {
	Globals `embed:""`

	Version    kong.VersionFlag `help:"Print version and exit"`
	Generate   GenerateCmd      `cmd:"" help:"Generate chapters for a transcript, caption, or audio file"`
	Transcribe TranscribeCmd    `cmd:"" help:"Transcribe an audio file into a raw transcript JSON"`
	Watch      WatchCmd         `cmd:"" help:"Watch an inbox directory and chapter every file dropped into it"`
	List       ListCmd          `cmd:"" help:"List stored chapter files"`
	View       ViewCmd          `cmd:"" help:"Print a stored chapter file"`
	History    HistoryCmd       `cmd:"" help:"Show recent runs from the database"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("chaptr"),
		kong.Description("Segment long video transcripts into titled, timestamped chapters."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Str("command", ctx.Command()).Msg("command failed")
	}
}

// overrides maps the global flags onto config overrides.
func (g *Globals) overrides() config.Overrides {
	return config.Overrides{
		EnvFile:       g.EnvFile,
		LogLevel:      g.LogLevel,
		OutputDir:     g.OutputDir,
		DatabaseURL:   g.DatabaseURL,
		MQTTBrokerURL: g.MQTTBrokerURL,
	}
}

// newLogger builds the root logger. Logs go to stderr so command output on
// stdout stays clean.
func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}
