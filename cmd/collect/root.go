package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "collect",
		Short: "Collect social media, web and document content for fact-checking",
		Long: `Collect content from Twitter, YouTube, news sites, Reddit and local files
and push it to the collector backend.

Examples:
  # Collect a single tweet without sending it to the backend
  collect basic --source twitter --id 1234567890 --no-backend

  # Collect a YouTube video by URL
  collect basic --source youtube --url https://youtu.be/dQw4w9WgXcQ

  # Search Reddit and news feeds for keywords and print a report
  collect enhanced --keywords hoax,"fake news" --platforms reddit,news_aggregator --report`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(basicCommand())
	root.AddCommand(enhancedCommand())
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCommand().ExecuteContext(ctx)
}
