package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var flagImportYes bool

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace all subscriptions with a JSON or YAML snapshot",
	Long: "Import a snapshot written by `subtrack export`. The current collection is\n" +
		"replaced, and nothing changes unless every record is valid.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&flagImportYes, "yes", "y", false, "Don't ask before replacing existing data")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	path := args[0]
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user-supplied import path
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if n := a.Store.Len(); n > 0 && !flagImportYes && path != "-" {
		fmt.Printf("  Replace %d existing subscriptions? [y/N] ", n)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if ans := strings.ToLower(strings.TrimSpace(answer)); ans != "y" && ans != "yes" {
			fmt.Println("  Cancelled.")
			return nil
		}
	}

	var count int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		count, err = a.Store.ImportYAML(data)
	default:
		count, err = a.Store.ImportSnapshot(data)
	}
	if err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}
	info("  Imported %d subscriptions\n", count)
	return nil
}
