package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/eringen/notionpub"
	"github.com/eringen/notionpub/synclog"
)

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print posts as JSON")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall time limit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := notionpub.LoadConfig()
	if err != nil {
		return err
	}
	log, err := notionpub.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	journal, err := synclog.Open(cfg.SyncLogPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	src, err := notionpub.NewNotionSource(cfg, log, journal)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	posts, err := src.FetchAllPostsOrNull(ctx)
	if err != nil {
		return err
	}
	if posts == nil {
		fmt.Fprintln(os.Stderr, "Notion source is not available; check NOTION_PAGE_ID, NOTION_TOKEN and the integration's access.")
		return nil
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(posts)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tSLUG\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", notionpub.FormatDate(p.Date), p.Category, p.Slug, p.Title)
	}
	fmt.Fprintf(w, "\n%d posts\n", len(posts))
	return w.Flush()
}

func runRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of runs to show")
	prune := fs.Int("prune", 0, "keep only the newest N runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := notionpub.LoadConfig()
	if err != nil {
		return err
	}
	journal, err := synclog.Open(cfg.SyncLogPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx := context.Background()
	if *prune > 0 {
		n, err := journal.Prune(ctx, *prune)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d runs\n", n)
	}

	runs, err := journal.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTOOK\tOUTCOME\tPOSTS\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Duration.Round(time.Millisecond),
			r.Outcome, r.PostCount, r.ErrorKind, r.Message)
	}
	return w.Flush()
}
