package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/database"
	"github.com/snarg/chaptr/internal/metrics"
	"github.com/snarg/chaptr/internal/mqttclient"
	"github.com/snarg/chaptr/internal/optimize"
	"github.com/snarg/chaptr/internal/pipeline"
	"github.com/snarg/chaptr/internal/storage"
	"github.com/snarg/chaptr/internal/transcribe"
	"github.com/snarg/chaptr/internal/transcript"
)

// ErrNoTranscriber is returned for audio input when no speech-to-text
// provider is configured.
var ErrNoTranscriber = errors.New("audio input requires a speech-to-text provider")

var (
	transcriptExts = map[string]bool{".vtt": true, ".srt": true, ".json": true}
	audioExts      = map[string]bool{
		".mp3": true, ".wav": true, ".m4a": true, ".flac": true,
		".ogg": true, ".opus": true, ".webm": true, ".mp4": true,
	}
)

// IsAudio reports whether path names an audio file that needs transcription.
func IsAudio(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether path is a transcript or audio file.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return transcriptExts[ext] || audioExts[ext]
}

// TitleFromPath derives a video title from a file name, dropping the
// extension and a caption language tag: "my_great-talk.en.vtt" becomes
// "my great-talk".
func TitleFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if tag := filepath.Ext(stem); len(tag) >= 3 && len(tag) <= 4 && isLetters(tag[1:]) {
		stem = strings.TrimSuffix(stem, tag)
	}
	return strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// RunRecorder stores run history.
type RunRecorder interface {
	InsertRun(ctx context.Context, r database.RunRow) (int64, error)
}

// EventPublisher announces completed runs.
type EventPublisher interface {
	PublishRun(ev mqttclient.RunEvent) error
}

// Job is one input to turn into chapters.
type Job struct {
	Path  string
	Title string // empty derives it from Path
	// Duration is the known video length; zero uses the transcript's end.
	Duration time.Duration
}

// Outcome is what Process produced for a job.
type Outcome struct {
	Result   *pipeline.Result
	Document chapters.Document
	Title    string
	TextKey  string
	JSONKey  string
	Saved    bool
	RunID    int64
}

// ProcessorOptions configures a Processor. Only Runner is required; every
// other collaborator is skipped when nil.
type ProcessorOptions struct {
	Runner         *pipeline.Runner
	RunConfig      pipeline.RunConfig
	Store          storage.ChapterStore
	Transcriber    transcribe.Provider
	TranscribeOpts transcribe.TranscribeOpts
	Suggester      *optimize.Suggester
	Recorder       RunRecorder
	Publisher      EventPublisher
	Log            zerolog.Logger
}

// Processor carries one job from input file to exported chapters.
type Processor struct {
	opts ProcessorOptions
	log  zerolog.Logger
}

func NewProcessor(opts ProcessorOptions) *Processor {
	return &Processor{
		opts: opts,
		log:  opts.Log.With().Str("component", "processor").Logger(),
	}
}

// Process loads the job's transcript, runs the pipeline, and hands the
// result to the configured sinks. Only load and pipeline errors are
// returned; sink failures are logged and counted.
func (p *Processor) Process(ctx context.Context, job Job) (*Outcome, error) {
	title := job.Title
	if title == "" {
		title = TitleFromPath(job.Path)
	}
	log := p.log.With().Str("path", job.Path).Str("title", title).Logger()

	raw, audioDur, err := p.load(ctx, job.Path)
	if err != nil {
		return nil, err
	}
	meta := pipeline.VideoMetadata{Title: title, Duration: job.Duration}
	if meta.Duration <= 0 {
		meta.Duration = audioDur
	}

	res, err := p.opts.Runner.Run(ctx, raw, meta, p.opts.RunConfig)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Result:   res,
		Title:    title,
		Document: chapters.Document{Chapters: res.Chapters},
	}
	if p.opts.Suggester != nil {
		s := p.opts.Suggester.Suggest(ctx, res.Transcript, res.Chapters)
		out.Document.Titles = s.Titles
		out.Document.Tags = s.Tags
	}

	out.TextKey, out.JSONKey = storage.Keys(title)
	if p.opts.Store != nil {
		out.Saved = p.save(ctx, log, out)
	}

	if p.opts.Recorder != nil {
		id, err := p.opts.Recorder.InsertRun(ctx, p.runRow(job, out))
		if err != nil {
			metrics.PublishErrorsTotal.WithLabelValues("database").Inc()
			log.Warn().Err(err).Msg("failed to record run")
		}
		out.RunID = id
	}

	if p.opts.Publisher != nil {
		ev := mqttclient.RunEvent{
			Title:          title,
			Source:         string(res.Source),
			FallbackReason: res.FallbackReason,
			DurationSec:    int64(res.Duration / time.Second),
			Chapters:       res.Chapters,
			CompletedAt:    time.Now().UTC(),
		}
		if out.Saved {
			ev.TextKey = out.TextKey
			ev.StoreType = p.opts.Store.Type()
		}
		if err := p.opts.Publisher.PublishRun(ev); err != nil {
			metrics.PublishErrorsTotal.WithLabelValues("mqtt").Inc()
			log.Warn().Err(err).Msg("failed to publish run event")
		}
	}

	return out, nil
}

func (p *Processor) load(ctx context.Context, path string) ([]transcript.RawCue, time.Duration, error) {
	if !IsAudio(path) {
		raw, err := transcript.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("read transcript %s: %w", filepath.Base(path), err)
		}
		return raw, 0, nil
	}

	if p.opts.Transcriber == nil {
		return nil, 0, ErrNoTranscriber
	}
	start := time.Now()
	resp, err := p.opts.Transcriber.Transcribe(ctx, path, p.opts.TranscribeOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", p.opts.Transcriber.Name(), err)
	}
	cues := resp.Cues()
	p.log.Info().
		Str("path", path).
		Str("provider", p.opts.Transcriber.Name()).
		Int("cues", len(cues)).
		Float64("audio_seconds", resp.Duration).
		Dur("elapsed", time.Since(start)).
		Msg("audio transcribed")
	return cues, transcript.Seconds(resp.Duration), nil
}

func (p *Processor) save(ctx context.Context, log zerolog.Logger, out *Outcome) bool {
	text := chapters.RenderDocument(out.Document, log)
	js, err := chapters.MarshalDocument(out.Document)
	if err == nil {
		err = p.opts.Store.Save(ctx, out.TextKey, []byte(text), "text/plain; charset=utf-8")
	}
	if err == nil {
		err = p.opts.Store.Save(ctx, out.JSONKey, js, "application/json")
	}
	if err != nil {
		metrics.PublishErrorsTotal.WithLabelValues("store").Inc()
		log.Warn().Err(err).Str("store", p.opts.Store.Type()).Msg("failed to save chapters")
		return false
	}
	log.Debug().Str("key", out.TextKey).Str("store", p.opts.Store.Type()).Msg("chapters saved")
	return true
}

func (p *Processor) runRow(job Job, out *Outcome) database.RunRow {
	res := out.Result
	js, _ := json.Marshal(res.Chapters)
	row := database.RunRow{
		VideoTitle:     out.Title,
		SourcePath:     job.Path,
		Mode:           string(p.opts.RunConfig.Mode),
		Requested:      p.opts.RunConfig.ChapterCount,
		Source:         string(res.Source),
		FallbackReason: res.FallbackReason,
		Duration:       res.Duration,
		Segments:       res.Segments,
		Elapsed:        res.Elapsed,
		Chapters:       js,
		Tags:           out.Document.Tags,
	}
	if out.Saved {
		row.TextKey = out.TextKey
	}
	return row
}
