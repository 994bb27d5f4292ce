package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/database"
	"github.com/snarg/chaptr/internal/storage"
)

type ListCmd struct {
	All bool `short:"a" help:"Include .json exports"`
}

func (c *ListCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := newApp(ctx, g, g.overrides(), appNeeds{store: true})
	if err != nil {
		return err
	}
	defer a.close()

	keys, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	keys = filterKeys(keys, c.All)
	if len(keys) == 0 {
		fmt.Println("No chapter files found.")
		return nil
	}
	for i, k := range keys {
		fmt.Printf("%d. %s\n", i+1, k)
	}
	return nil
}

type ViewCmd struct {
	Name string `arg:"" help:"Stored file name, its number from 'chaptr list', or a video title"`
}

func (c *ViewCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := newApp(ctx, g, g.overrides(), appNeeds{store: true})
	if err != nil {
		return err
	}
	defer a.close()

	keys, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	key, err := resolveKey(filterKeys(keys, false), c.Name)
	if err != nil {
		return err
	}
	data, err := storage.ReadDocument(ctx, a.store, key)
	if err != nil {
		return err
	}
	fmt.Printf("=== %s ===\n\n", key)
	os.Stdout.Write(data)
	return nil
}

// filterKeys keeps the text exports, plus JSON when all is set.
func filterKeys(keys []string, all bool) []string {
	var out []string
	for _, k := range keys {
		if strings.HasSuffix(k, ".txt") || (all && strings.HasSuffix(k, ".json")) {
			out = append(out, k)
		}
	}
	return out
}

// resolveKey accepts a 1-based list index, an exact key, or a video title.
func resolveKey(keys []string, name string) (string, error) {
	if n, err := strconv.Atoi(name); err == nil {
		if n < 1 || n > len(keys) {
			return "", fmt.Errorf("no chapter file numbered %d (have %d)", n, len(keys))
		}
		return keys[n-1], nil
	}
	text, _ := storage.Keys(name)
	for _, k := range keys {
		if k == name || k == text {
			return k, nil
		}
	}
	return "", fmt.Errorf("chapter file %q not found", name)
}

type HistoryCmd struct {
	Limit  int    `short:"l" default:"20" help:"Number of runs to show"`
	Source string `help:"Only runs whose chapters came from this stage (engine or fallback)"`
	ID     int64  `name:"id" help:"Print the chapters of one recorded run"`
}

func (c *HistoryCmd) Run(g *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a, err := newApp(ctx, g, g.overrides(), appNeeds{db: true})
	if err != nil {
		return err
	}
	defer a.close()
	if a.db == nil {
		return errors.New("run history needs DATABASE_URL")
	}
	if c.ID > 0 {
		return c.printRun(ctx, a)
	}

	runs, err := a.db.ListRuns(ctx, database.RunFilter{Source: c.Source, Limit: c.Limit})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTITLE\tSOURCE\tCHAPTERS\tELAPSED")
	for _, r := range runs {
		source := r.Source
		if r.FallbackReason != "" {
			source += " (" + r.FallbackReason + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.VideoTitle, source,
			chapterCount(r.Chapters), (time.Duration(r.ElapsedMs) * time.Millisecond).String())
	}
	return tw.Flush()
}

func (c *HistoryCmd) printRun(ctx context.Context, a *app) error {
	r, err := a.db.GetRun(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("run %d: %w", c.ID, err)
	}
	var set chapters.Set
	if err := json.Unmarshal(r.Chapters, &set); err != nil {
		return fmt.Errorf("run %d: decode chapters: %w", c.ID, err)
	}
	fmt.Printf("=== %s (%s, %s) ===\n\n", r.VideoTitle, r.Source, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Println(chapters.Format(set, a.log))
	return nil
}

func chapterCount(raw json.RawMessage) int {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0
	}
	return len(items)
}
