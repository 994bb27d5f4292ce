package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snarg/chaptr/internal/transcribe"
)

type TranscribeCmd struct {
	Audio    string `arg:"" type:"existingfile" help:"Audio file to transcribe"`
	Output   string `short:"o" help:"Write the transcript JSON here instead of stdout"`
	Language string `short:"l" help:"Spoken language (overrides STT_LANGUAGE)"`
	Prompt   string `help:"Initial prompt / domain vocabulary for the STT model"`
}

func (c *TranscribeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, g, g.overrides(), appNeeds{stt: true})
	if err != nil {
		return err
	}
	defer a.close()
	if a.stt == nil {
		return errors.New("no speech-to-text provider configured (set WHISPER_URL, DEEPINFRA_API_KEY, or ELEVENLABS_API_KEY)")
	}

	lang := c.Language
	if lang == "" {
		lang = a.cfg.STT.Language
	}
	start := time.Now()
	resp, err := a.stt.Transcribe(ctx, c.Audio, transcribe.TranscribeOpts{Language: lang, Prompt: c.Prompt})
	if err != nil {
		return fmt.Errorf("%s: %w", a.stt.Name(), err)
	}
	cues := resp.Cues()

	data, err := json.MarshalIndent(struct {
		Language string `json:"language,omitempty"`
		Duration float64 `json:"duration,omitempty"`
		Segments any     `json:"segments"`
	}{resp.Language, resp.Duration, cues}, "", "  ")
	if err != nil {
		return err
	}

	if c.Output == "" {
		fmt.Println(string(data))
	} else if err := os.WriteFile(c.Output, append(data, '\n'), 0o644); err != nil {
		return err
	}

	a.log.Info().
		Str("provider", a.stt.Name()).
		Str("model", a.stt.Model()).
		Int("segments", len(cues)).
		Float64("audio_seconds", resp.Duration).
		Dur("elapsed", time.Since(start)).
		Msg("transcription complete")
	return nil
}
