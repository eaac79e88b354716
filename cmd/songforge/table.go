package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// resultTable accumulates rows for the rounded console tables the CLI
// prints. Score and count columns are right aligned via numeric.
type resultTable struct {
	tw    table.Writer
	width int
}

func newResultTable(headers ...string) *resultTable {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return &resultTable{tw: tw, width: len(headers)}
}

// numeric right-aligns the given 1-based columns. Headers stay left
// aligned so narrow numeric columns keep readable labels.
func (t *resultTable) numeric(columns ...int) *resultTable {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      n,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	t.tw.SetColumnConfigs(configs)
	return t
}

// row appends one row, padding missing cells so ragged input cannot
// shift columns.
func (t *resultTable) row(cells ...string) {
	r := make(table.Row, t.width)
	for i := range r {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	t.tw.AppendRow(r)
}

func (t *resultTable) render() string {
	return t.tw.Render()
}
