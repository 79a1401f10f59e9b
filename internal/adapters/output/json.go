package output

import (
	"encoding/json"
	"io"
	"os"
)

// JSONPrinter prints results as indented JSON, one document per
// command. Out defaults to stdout.
type JSONPrinter struct {
	Out io.Writer
}

// Print renders JSON output.
func (p JSONPrinter) Print(v any) error {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
