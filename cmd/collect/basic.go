package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"misinfo/internal/collector/twitter"
	"misinfo/internal/collector/youtube"
	"misinfo/internal/orchestrator"
)

type basicFlags struct {
	source    string
	url       string
	id        string
	noBackend bool
	output    string
}

func basicCommand() *cobra.Command {
	var f basicFlags

	cmd := &cobra.Command{
		Use:   "basic",
		Short: "Collect a single tweet or YouTube video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			return runBasic(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.source, "source", "", "platform to collect from (twitter or youtube)")
	cmd.Flags().StringVar(&f.url, "url", "", "URL to collect from")
	cmd.Flags().StringVar(&f.id, "id", "", "tweet ID or video ID")
	cmd.Flags().BoolVar(&f.noBackend, "no-backend", false, "do not send the record to the backend")
	cmd.Flags().StringVar(&f.output, "output", "", "file to save the record to")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func (f basicFlags) validate() error {
	if f.source != twitter.Source && f.source != youtube.Source {
		return fmt.Errorf("%q: %w", f.source, orchestrator.ErrUnsupportedSource)
	}
	if f.id == "" && f.url == "" {
		return fmt.Errorf("%s: %w", f.source, orchestrator.ErrMissingTarget)
	}
	return nil
}

func runBasic(cmd *cobra.Command, f basicFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	d, err := loadDeps(ctx, !f.noBackend)
	if err != nil {
		return err
	}

	rec, err := d.orch.CollectBasic(ctx, f.source, f.id, f.url)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	fmt.Fprintln(out, "Collection successful!")
	if f.output == "" {
		fmt.Fprintln(out, "Result:")
	}
	if err := writeJSON(out, f.output, rec); err != nil {
		return err
	}
	if f.output != "" {
		fmt.Fprintf(out, "Results saved to: %s\n", f.output)
	}
	if rec.BackendDocID != "" {
		fmt.Fprintf(out, "Data sent to backend with ID: %s\n", rec.BackendDocID)
	}
	return nil
}
