package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-writeups/internal/markdown"
)

func newRenderCommand(a *app) *cobra.Command {
	var (
		showTOC  bool
		showMeta bool
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a markdown file outside the content tree",
		Long: `render runs a single markdown file through the same front matter parser
and tiered renderer the API uses, which is handy for previewing drafts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			doc := markdown.ParseFrontMatter(source)
			if doc.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", doc.Err)
			}
			result, err := a.module.Container().Renderer().Render(cmd.Context(), doc.Body)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showMeta {
				id := filepath.Base(filepath.Dir(args[0]))
				fm := markdown.ApplyDefaults(doc.FrontMatter, id, time.Now())
				fmt.Fprintf(out, "Title: %s\nCTF: %s\nDate: %s\nTags: %s\n\n",
					fm.Title, fm.CollectionName, fm.Date.Format(dateLayout), strings.Join(fm.Tags, ", "))
			}
			if showTOC {
				for _, heading := range result.TOC {
					fmt.Fprintf(out, "%s- %s (#%s)\n", strings.Repeat("  ", max(heading.Level-1, 0)), heading.Text, heading.ID)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, result.HTML)
			if result.Tier != markdown.TierFull {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: rendered with %s tier\n", result.Tier)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTOC, "toc", false, "print the table of contents before the HTML")
	cmd.Flags().BoolVar(&showMeta, "meta", false, "print the front matter after defaults")
	return cmd
}
