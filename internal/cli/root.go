// Package cli holds the linkpost command tree.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/linkpost/internal/config"
	"github.com/dgallion1/linkpost/internal/news"
)

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the command tree.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "linkpost",
		Short:         "Format, preview and publish LinkedIn posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|json|toml)")

	load := func() (config.Config, error) {
		return config.Load(viper.New(), cfgPath)
	}

	cmd.AddCommand(newServeCmd(load))
	cmd.AddCommand(newFormatCmd(load))
	cmd.AddCommand(newBoldCmd())
	cmd.AddCommand(newNewsletterCmd(load))

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }
	return cmd
}

type configLoader func() (config.Config, error)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}

// defaultFeeds back the newsletter when no NewsAPI key is configured.
var defaultFeeds = []string{
	"https://hnrss.org/frontpage",
	"https://feeds.arstechnica.com/arstechnica/technology-lab",
	"https://www.technologyreview.com/feed/",
}

func newsProvider(cfg config.Config, log *slog.Logger) news.Provider {
	if cfg.NewsAPIKey != "" {
		return news.NewNewsAPIClient(cfg.NewsAPIURL, cfg.NewsAPIKey)
	}
	feeds := cfg.NewsFeeds
	if len(feeds) == 0 {
		feeds = defaultFeeds
	}
	log.Info("no NewsAPI key, reading RSS feeds", "feeds", len(feeds))
	return news.NewFeedProvider(feeds, log)
}
