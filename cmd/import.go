package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx>",
	Short: "Import words from a CSV file or spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		var result *models.ImportResult
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			result, err = a.words.ImportCSV(cmd.Context(), f)
		case ".xlsx":
			result, err = a.words.ImportXLSX(cmd.Context(), f)
		default:
			return fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(path))
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		out := cmd.OutOrStdout()
		for _, msg := range result.Errors {
			fmt.Fprintln(out, msg)
		}
		fmt.Fprintln(out, result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
