package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular is implemented by results that know their table layout.
type Tabular interface {
	Table() *Table
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table with columns aligned.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// KeyValue builds a two-column FIELD/VALUE table from alternating pairs.
func KeyValue(pairs ...string) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.AddRow(pairs[i], pairs[i+1])
	}
	return t
}

// writeTable renders tables and Tabular values. Anything else has no
// table layout and is written as indented JSON.
func writeTable(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		return v.Render(w)
	case Tabular:
		return v.Table().Render(w)
	default:
		return writeJSON(w, data)
	}
}
