package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// documentJSON flattens a document into one object with its id.
func documentJSON(d types.Document) map[string]any {
	out := make(map[string]any, len(d.Data)+1)
	for k, v := range d.Data {
		out[k] = v
	}
	out["id"] = d.ID
	return out
}

// toastPrinter prints success toasts. Failures are returned as errors and
// printed once by execute.
type toastPrinter struct {
	w io.Writer
}

func (p toastPrinter) Success(msg string) { fmt.Fprintln(p.w, msg) }
func (toastPrinter) Error(string)          {}

// lookupSchema resolves a collection argument.
func lookupSchema(name string) (*content.Schema, error) {
	schema, err := content.Lookup(name)
	if err != nil {
		return nil, userError(fmt.Errorf("%w (choose one of %s)", err, collectionNames()))
	}
	return schema, nil
}

func collectionNames() string {
	names := make([]string, 0, len(types.Kinds))
	for _, k := range types.Kinds {
		names = append(names, k.Plural())
	}
	return strings.Join(names, ", ")
}

// printCards prints cards as a table with trailing whitespace trimmed.
func printCards(w io.Writer, schema *content.Schema, cards []content.Card) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSUBTITLE")
	fmt.Fprintln(tw, "--\t-----\t--------")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, truncate(c.Title, 40), truncate(c.Subtitle, 30))
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "Total: %d %s\n", len(cards), strings.ToLower(schema.Plural))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
