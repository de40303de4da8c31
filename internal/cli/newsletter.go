package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/dgallion1/linkpost/internal/newsletter"
	"github.com/dgallion1/linkpost/internal/pipeline"
)

func newNewsletterCmd(load configLoader) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "newsletter [instruction...]",
		Short: "Generate a newsletter from recent news",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.NewsletterEnabled() {
				return errors.New("GOOGLE_API_KEY is required to generate newsletters")
			}
			log := newLogger(cmd.ErrOrStderr())
			ctx := cmd.Context()

			agent, err := newsletter.NewAgent(ctx, newsletter.Options{
				APIKey:        cfg.GoogleAPIKey,
				Model:         cfg.GeminiModel,
				MaxToolRounds: cfg.MaxToolRounds,
			}, newsProvider(cfg, log), nil, log)
			if err != nil {
				return err
			}
			defer agent.Close()

			// No workers; Generate runs inline with the job retry policy.
			orch := pipeline.NewOrchestrator(agent, pipeline.Options{}, log)
			nl, err := orch.Generate(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printNewsletter(cmd.OutOrStdout(), nl, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

func printNewsletter(w io.Writer, nl *newsletter.Newsletter, raw bool) error {
	if raw {
		_, err := fmt.Fprintln(w, nl.Markdown)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(nl.Markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
