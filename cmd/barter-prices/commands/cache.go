package commands

import (
	"fmt"
	"os"
	"sort"

	"barter-enhancer/internal/report"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheKeysCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects or resets the price cache.",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes every cached price and plain.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := current.cache.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d entries\n", n)
		return nil
	},
}

var cacheKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Prints the number of cached entries per store and field.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := current.cache.Stats(cmd.Context())
		if err != nil {
			return err
		}

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		t := report.NewTable(os.Stdout)
		t.AppendHeader(table.Row{"Store:field", "Entries"})
		total := 0
		for _, name := range names {
			t.AppendRow(table.Row{name, counts[name]})
			total += counts[name]
		}
		t.AppendFooter(table.Row{"Total", total})
		t.Render()
		return nil
	},
}
