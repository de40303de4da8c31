package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgallion1/linkpost/internal/formatter"
)

func newFormatCmd(load configLoader) *cobra.Command {
	var maxLen int
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Convert editor markup to post text",
		Long:  "Reads HTML markup from file (or stdin) and prints the text that would be shared.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max") {
				cfg, err := load()
				if err != nil {
					return err
				}
				maxLen = cfg.MaxPostLength
			}
			markup, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			text, truncated, err := formatter.PostText(markup, maxLen)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			if truncated {
				fmt.Fprintf(cmd.ErrOrStderr(), "truncated to %s characters\n", humanize.Comma(int64(utf8.RuneCountInString(text))))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxLen, "max", formatter.DefaultMaxPostLength, "maximum post length in characters")
	return cmd
}

func newBoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bold [text...]",
		Short: "Print text in Unicode mathematical sans-serif bold",
		RunE: func(cmd *cobra.Command, args []string) error {
			var s string
			if len(args) > 0 {
				s = strings.Join(args, " ")
			} else {
				in, err := readInput(cmd, nil)
				if err != nil {
					return err
				}
				s = strings.TrimRight(in, "\n")
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Bold(s))
			return nil
		},
	}
}

// readInput returns the named file, or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}
