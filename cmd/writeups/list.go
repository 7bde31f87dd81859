package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-writeups"
)

const dateLayout = "2006-01-02"

func newListCommand(a *app) *cobra.Command {
	var (
		tags    []string
		search  string
		asJSON  bool
		showTag bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List writeups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := a.module.Writeups()
			out := cmd.OutOrStdout()
			if showTag {
				counts, err := service.Tags(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, counts)
				}
				return writeTags(out, counts)
			}
			items, err := service.List(cmd.Context(), writeups.ListQuery{Search: search, Tags: tags})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, items)
			}
			return writeTable(out, items)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&tags, "tag", nil, "only writeups carrying any of these tags")
	flags.StringVarP(&search, "query", "q", "", "case-insensitive search over title, CTF, description and author")
	flags.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	flags.BoolVar(&showTag, "tags", false, "print the tag facet instead of writeups")
	return cmd
}

func writeTable(out io.Writer, items []writeups.Writeup) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tID\tTITLE\tCTF\tTAGS")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Date.Format(dateLayout),
			item.ID,
			item.Title,
			item.CollectionName,
			strings.Join(item.Tags, ","),
		)
	}
	return tw.Flush()
}

func writeTags(out io.Writer, counts []writeups.TagCount) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tSLUG\tCOUNT")
	for _, tag := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", tag.Name, tag.Slug, tag.Count)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
