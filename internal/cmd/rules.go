package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pagegate/pagegate/internal/core/guard"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the URL blocklist",
	Long:  "Show the textual patterns the fetch guard rejects before any network activity.",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Pattern", "Blocks"})

		for _, p := range guard.Patterns() {
			t.AppendRow(table.Row{p.Expr.String(), p.Description})
		}
		t.AppendRow(table.Row{"(non-http/https scheme)", "Any scheme other than http or https"})

		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
