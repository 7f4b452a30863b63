package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"misinfo/internal/monitor"
	"misinfo/internal/orchestrator"
)

var ErrNoCollectionMethod = errors.New("specify at least one of --url, --file, --directory, --keywords or --monitor")

type enhancedFlags struct {
	url       string
	file      string
	directory string
	keywords  []string
	platforms []string
	monitor   bool
	output    string
	report    bool
	noBackend bool
}

func enhancedCommand() *cobra.Command {
	var f enhancedFlags

	cmd := &cobra.Command{
		Use:   "enhanced",
		Short: "Collect from URLs, files, directories and keyword searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			return runEnhanced(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "URL to collect from")
	cmd.Flags().StringVar(&f.file, "file", "", "file to process")
	cmd.Flags().StringVar(&f.directory, "directory", "", "directory to process")
	cmd.Flags().StringSliceVar(&f.keywords, "keywords", nil, "comma-separated keywords to search for, or repeat the flag")
	cmd.Flags().StringSliceVar(&f.platforms, "platforms", []string{orchestrator.PlatformReddit},
		"comma-separated platforms to search (reddit, news_aggregator)")
	cmd.Flags().BoolVar(&f.monitor, "monitor", false, "start continuous monitoring")
	cmd.Flags().StringVar(&f.output, "output", "", "file to save results to")
	cmd.Flags().BoolVar(&f.report, "report", false, "print a collection report")
	cmd.Flags().BoolVar(&f.noBackend, "no-backend", false, "do not send records to the backend")

	return cmd
}

func (f enhancedFlags) validate() error {
	if f.url == "" && f.file == "" && f.directory == "" && len(f.keywords) == 0 && !f.monitor {
		return ErrNoCollectionMethod
	}
	return nil
}

func runEnhanced(cmd *cobra.Command, f enhancedFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	d, err := loadDeps(ctx, !f.noBackend)
	if err != nil {
		return err
	}

	var items []orchestrator.Item
	collect := func(what string, fn func() ([]orchestrator.Item, error)) error {
		got, err := fn()
		items = append(items, got...)
		if err != nil {
			return fmt.Errorf("error during %s collection: %w", what, err)
		}
		return nil
	}

	if f.url != "" {
		if err := collect("url", func() ([]orchestrator.Item, error) { return d.orch.CollectURL(ctx, f.url) }); err != nil {
			return err
		}
	}
	if f.file != "" {
		if err := collect("file", func() ([]orchestrator.Item, error) { return d.orch.CollectFile(ctx, f.file) }); err != nil {
			return err
		}
	}
	if f.directory != "" {
		if err := collect("directory", func() ([]orchestrator.Item, error) { return d.orch.CollectDirectory(ctx, f.directory) }); err != nil {
			return err
		}
	}
	if len(f.keywords) > 0 {
		if err := collect("keyword", func() ([]orchestrator.Item, error) {
			return d.orch.CollectKeywords(ctx, f.keywords, f.platforms)
		}); err != nil {
			return err
		}
	}

	if f.monitor {
		fmt.Fprintln(out, "Starting continuous monitoring system...")
		m := monitor.New(d.web,
			monitor.WithReportDir(d.cfg.ReportDir),
			monitor.WithBackend(!f.noBackend),
		)
		return m.Run(ctx)
	}

	return printResults(out, f, items, time.Now())
}

func printResults(out io.Writer, f enhancedFlags, items []orchestrator.Item, now time.Time) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No data collected")
		return nil
	}

	if f.report {
		fmt.Fprintln(out, "Collection Report:")
		if err := writeJSON(out, "", orchestrator.BuildReport(items, now)); err != nil {
			return err
		}
	}

	if f.output != "" {
		if err := writeJSON(out, f.output, items); err != nil {
			return err
		}
		fmt.Fprintf(out, "Results saved to: %s\n", f.output)
	}

	fmt.Fprintf(out, "Collection complete! Gathered %d items\n", len(items))
	fmt.Fprintln(out, "Summary by type:")
	counts := orchestrator.CountByType(items)
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(out, "   %s: %d\n", t, counts[t])
	}
	return nil
}
