package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataloom-cli/internal/cleaner"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

var cleanOutputPath string

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Drop blank and comment lines and prepend a cleaning summary",
	Example: `  dataloom clean raw.csv --output clean.csv
  dataloom clean export.csv.lz4 > clean.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := parser.ReadFile(args[0])
		if err != nil {
			return err
		}
		res := cleaner.Clean(text)
		if err := writeOutput(cmd.OutOrStdout(), cleanOutputPath, []byte(res.CleanedText), "cleaned dataset"); err != nil {
			return err
		}
		s := res.Stats
		fmt.Fprintf(os.Stderr, "Rows: %d → %d, columns: %d (%s)\n", s.OriginalRows, s.CleanedRows, s.Columns, strings.Join(s.CleaningOperations, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutputPath, "output", "o", "", "optional path to write the cleaned dataset")
}
