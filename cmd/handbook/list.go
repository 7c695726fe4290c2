package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/handbook/internal/handbook"
)

const listColumnWidth = 48

func newListCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print handbook entries as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries := handbook.FilterByCategory(rt.Store.Entries(), category)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				if category != "" {
					fmt.Fprintf(out, "No entries in category %q\n", category)
				} else {
					fmt.Fprintln(out, "No entries")
				}
				return nil
			}
			fmt.Fprintln(out, renderEntryTable(entries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only entries of this category")
	return cmd
}

func renderEntryTable(entries []handbook.Entry) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1).MaxWidth(listColumnWidth + 2)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Category,
			clip(e.Message),
			clip(e.Description),
			clip(e.Resolution),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CATEGORY", "MESSAGE", "DESCRIPTION", "RESOLUTION").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// clip keeps table cells on one line.
func clip(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(line)
	if len(r) <= listColumnWidth {
		return string(r)
	}
	return string(r[:listColumnWidth-3]) + "..."
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print category names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, name := range rt.Store.Categories() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
