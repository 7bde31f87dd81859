package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-writeups"
)

func newShowCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render one writeup by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := a.module.Writeups().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), detail)
			}
			return writeDetail(cmd.OutOrStdout(), detail)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API representation")
	return cmd
}

func writeDetail(out io.Writer, detail *writeups.RenderedWriteup) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", detail.ID)
	fmt.Fprintf(&b, "Title: %s\n", detail.Title)
	fmt.Fprintf(&b, "CTF: %s\n", detail.CollectionName)
	fmt.Fprintf(&b, "Date: %s\n", detail.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Author: %s\n", detail.Author)
	if len(detail.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(detail.Tags, ", "))
	}
	if detail.CoverImage != "" {
		fmt.Fprintf(&b, "Cover: %s\n", detail.CoverImage)
	}
	fmt.Fprintf(&b, "Render tier: %s\n", detail.RenderTier)
	for _, image := range detail.Images {
		fmt.Fprintf(&b, "Image: %s\n", image)
	}
	b.WriteString("\n")
	b.WriteString(detail.RenderedHTML)
	b.WriteString("\n")
	_, err := io.WriteString(out, b.String())
	return err
}
