package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("invalid --output %q (expected table, json or yaml)", outputFormat)
	}
}

// printer writes tab-separated rows aligned into columns.
type printer struct {
	w *tabwriter.Writer
}

func (p *printer) row(cols ...string) {
	fmt.Fprintln(p.w, strings.Join(cols, "\t"))
}

// render writes v in the selected output format. table draws the
// human-readable form.
func render(cmd *cobra.Command, v any, table func(p *printer)) error {
	out := cmd.OutOrStdout()
	switch outputFormat {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		return writeYAML(out, v)
	default:
		p := &printer{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
		table(p)
		return p.w.Flush()
	}
}

// writeYAML encodes v with the same field names and order as its JSON form.
func writeYAML(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles yaml.v3 keeps when parsing
// JSON. Strings that would read back as another type stay quoted.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
