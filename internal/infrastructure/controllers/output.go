package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// writeOutput encodes v in the format selected by the --format flag.
func writeOutput(cmd *cobra.Command, v interface{}) error {
	format, _ := cmd.Flags().GetString("format")
	return encode(cmd.OutOrStdout(), format, v)
}

func encode(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "", formatYAML, "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2) //nolint:mnd // indentation width
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return encoder.Close()
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}
}
