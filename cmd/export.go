package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/subtrack/internal/codec"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tracker"

	"github.com/spf13/cobra"
)

// Export formats.
const (
	exportJSON = "json"
	exportYAML = "yaml"
	exportICS  = "ics"
	exportXLSX = "xlsx"
)

var (
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export subscriptions as JSON, YAML, iCalendar or Excel",
	Long: "Export the collection. JSON and YAML snapshots can be imported again;\n" +
		"ics writes one recurring calendar event per active subscription.",
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "json, yaml, ics or xlsx (default from --out extension, else json)")
	exportCmd.Flags().StringVar(&flagExportOut, "out", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

// exportFormat picks the format from the flag or the output extension.
func exportFormat(flag, out string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".yaml", ".yml":
			f = exportYAML
		case ".ics":
			f = exportICS
		case ".xlsx":
			f = exportXLSX
		default:
			f = exportJSON
		}
	}
	switch f {
	case exportJSON, exportYAML, exportICS, exportXLSX:
		return f, nil
	case "yml":
		return exportYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml, ics or xlsx)", flag)
}

func runExport(_ *cobra.Command, _ []string) error {
	format, err := exportFormat(flagExportFormat, flagExportOut)
	if err != nil {
		return err
	}
	if format == exportXLSX && flagExportOut == "" {
		return errors.New("xlsx export needs --out")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	data, count, err := encodeExport(format, a.Store.Snapshot(), a.Clock.Now())
	if err != nil {
		return err
	}
	if len(data) == 0 {
		info("  Nothing to export: no active subscriptions.\n")
		return nil
	}

	if flagExportOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flagExportOut, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", flagExportOut, err)
	}
	info("  Exported %d subscriptions to %s\n", count, flagExportOut)
	return nil
}

// encodeExport renders snap in format and reports how many subscriptions
// the output holds. Calendar output covers active subscriptions only and is
// empty when there are none.
func encodeExport(format string, snap codec.Snapshot, now time.Time) ([]byte, int, error) {
	var (
		data []byte
		err  error
	)
	count := len(snap.Subscriptions)
	switch format {
	case exportJSON:
		data, err = codec.EncodeJSON(snap)
	case exportYAML:
		data, err = codec.EncodeYAML(snap)
	case exportICS:
		count = len(tracker.FilterActive(snap.Subscriptions))
		data = []byte(codec.EncodeICS(snap.Subscriptions, now))
	case exportXLSX:
		data, err = codec.EncodeXLSX(snap.Subscriptions, model.DateOf(now))
	default:
		return nil, 0, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("encoding %s: %w", format, err)
	}
	return data, count, nil
}
