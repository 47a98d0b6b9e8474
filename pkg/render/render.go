// Package render writes report results as text tables, CSV, JSON, or YAML.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/sparkqual/sparkqual/pkg/report"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatCSV, FormatJSON, FormatYAML:
		return Format(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Write renders a result in the requested format.
func Write(w io.Writer, res report.Result, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, res)
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	default:
		return writeText(w, res)
	}
}

// WriteTitled renders a result with a leading title line (text only;
// structured formats carry the title as a field).
func WriteTitled(w io.Writer, title string, res report.Result, format Format) error {
	if format == FormatText || format == "" {
		if _, err := fmt.Fprintf(w, "%s:\n", title); err != nil {
			return err
		}
		if res.Empty() {
			_, err := fmt.Fprintln(w, "  (no data)")
			return err
		}
	}
	return Write(w, res, format)
}

func writeText(w io.Writer, res report.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range res.Columns {
		if i > 0 {
			if _, err := fmt.Fprint(tw, "\t"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(tw, c); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(tw); err != nil {
		return err
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			if i > 0 {
				if _, err := fmt.Fprint(tw, "\t"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(tw, cell); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(tw); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, res report.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	for _, row := range res.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// resultDoc is the structured-output shape shared by JSON and YAML.
type resultDoc struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

func writeJSON(w io.Writer, res report.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultDoc{Columns: res.Columns, Rows: res.Rows})
}

func writeYAML(w io.Writer, res report.Result) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	return enc.Encode(resultDoc{Columns: res.Columns, Rows: res.Rows})
}
