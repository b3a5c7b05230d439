package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// ValidateOutput rejects unknown --output values
func ValidateOutput(format string) error {
	switch format {
	case "", OutputTable, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format %q, must be one of: table, json, yaml", format)
	}
}

// render writes v in the requested format; table output is delegated to table
func (e *Env) render(v any, table func(w *tabwriter.Writer)) error {
	switch e.Flags.Output {
	case OutputJSON:
		enc := json.NewEncoder(e.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(e.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		w := tabwriter.NewWriter(e.Out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
}

// printf writes human output; it is silent for machine-readable formats
func (e *Env) printf(format string, a ...any) {
	if e.Flags.Output == OutputJSON || e.Flags.Output == OutputYAML {
		return
	}
	fmt.Fprintf(e.Out, format, a...)
}

func (e *Env) println(a ...any) {
	e.printf("%s\n", fmt.Sprint(a...))
}

func writeRow(w io.Writer, cols ...any) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
