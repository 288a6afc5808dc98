// Package export renders tabular registers into downloadable CSV and PDF documents.
package export

import "fmt"

// Column describes one register column. Width is a PDF weight; zero means equal share.
type Column struct {
	Key    string
	Header string
	Width  float64
}

// Table is the exporter input: ordered columns plus rows keyed by Column.Key.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

func (t Table) record(row map[string]string) []string {
	record := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		record[i] = row[col.Key]
	}
	return record
}

func (t Table) headers() []string {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Header
		if headers[i] == "" {
			headers[i] = col.Key
		}
	}
	return headers
}
