package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/ingest"
)

type GenerateCmd struct {
	Input    string        `arg:"" type:"existingfile" help:"Transcript (.json), captions (.vtt/.srt), or audio file"`
	Chapters int           `short:"n" help:"Number of chapters (overrides CHAPTER_COUNT)"`
	Mode     string        `short:"m" help:"Chapter mode: general or qa (overrides CHAPTER_MODE)"`
	Title    string        `short:"t" help:"Video title; defaults to the file name"`
	Duration time.Duration `short:"d" help:"Video duration, e.g. 1h2m3s; defaults to the transcript's end"`
	Provider string        `help:"LLM provider: openai or anthropic (overrides LLM_PROVIDER)"`
	Model    string        `help:"LLM model (overrides LLM_MODEL)"`
	Optimize bool          `help:"Also suggest titles and tags"`
	JSON     bool          `name:"json" help:"Print the chapter document as JSON instead of text"`
	NoSave   bool          `name:"no-save" help:"Print only; do not write to the chapter store"`
}

func (c *GenerateCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ov := g.overrides()
	ov.ChapterCount = c.Chapters
	ov.ChapterMode = c.Mode
	ov.LLMProvider = c.Provider
	ov.LLMModel = c.Model

	a, err := newApp(ctx, g, ov, appNeeds{store: !c.NoSave, llm: true, stt: true, db: true, mqtt: true})
	if err != nil {
		return err
	}
	defer a.close()
	if c.Optimize {
		a.cfg.Optimize = true
	}

	out, err := a.processor().Process(ctx, ingest.Job{Path: c.Input, Title: c.Title, Duration: c.Duration})
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := chapters.MarshalDocument(out.Document)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(chapters.RenderDocument(out.Document, a.log))
	}

	ev := a.log.Info().
		Str("source", string(out.Result.Source)).
		Int("chapters", len(out.Result.Chapters)).
		Dur("elapsed", out.Result.Elapsed)
	if out.Result.FallbackReason != "" {
		ev = ev.Str("fallback_reason", out.Result.FallbackReason)
	}
	if out.Saved {
		ev = ev.Str("saved", out.TextKey).Str("store", a.store.Type())
	}
	ev.Msg("chapters generated")
	return nil
}
