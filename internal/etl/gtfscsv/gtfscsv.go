// Package gtfscsv reads GTFS table files: header-addressed CSV with optional
// UTF byte order marks, as produced by the usual feed publishing tools.
package gtfscsv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// File iterates the rows of one GTFS table.
type File struct {
	table     string
	csvReader *csv.Reader
	recorder  *recorder
	offset    int64
	header    []string
	headerMap map[string]int
	rowNumber int
	current   []string
	raw       []byte
	ioErr     error
	closer    func() error
}

// New wraps a table stream. The first row is consumed as the header.
func New(table string, reader io.ReadCloser) (*File, error) {
	rec := &recorder{r: bomAwareReader(reader)}
	csvReader := csv.NewReader(rec)
	csvReader.FieldsPerRecord = -1
	header, err := csvReader.Read()
	if err == io.EOF {
		reader.Close()
		return nil, fmt.Errorf("table %s: no header row", table)
	}
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("table %s: read header: %w", table, err)
	}
	headerMap := make(map[string]int, len(header))
	for i, name := range header {
		headerMap[name] = i
	}
	offset := csvReader.InputOffset()
	rec.discard(offset)
	return &File{
		table:     table,
		csvReader: csvReader,
		recorder:  rec,
		offset:    offset,
		header:    header,
		headerMap: headerMap,
		closer:    reader.Close,
	}, nil
}

// Table returns the table name this file was opened for.
func (f *File) Table() string { return f.table }

// Header returns the column names in file order.
func (f *File) Header() []string { return f.header }

// HasColumn reports whether the table declares the named column.
func (f *File) HasColumn(name string) bool {
	_, ok := f.headerMap[name]
	return ok
}

// Next advances to the next data row. It returns false at end of input or on
// a read error; check Err afterwards.
func (f *File) Next() bool {
	cells, err := f.csvReader.Read()
	if err == io.EOF {
		f.current = nil
		f.raw = nil
		return false
	}
	if err != nil {
		f.current = nil
		f.raw = nil
		f.ioErr = fmt.Errorf("table %s row %d: %w", f.table, f.rowNumber+1, err)
		return false
	}
	end := f.csvReader.InputOffset()
	f.raw = trimRecordBounds(f.recorder.slice(f.offset, end))
	f.recorder.discard(end)
	f.offset = end
	f.rowNumber++
	f.current = cells
	return true
}

// Row returns the 1-based number of the current data row.
func (f *File) Row() int { return f.rowNumber }

// Values returns the current row as a column-name map. Columns beyond the
// header width are dropped; missing trailing cells read as empty.
func (f *File) Values() map[string]string {
	values := make(map[string]string, len(f.header))
	for name, i := range f.headerMap {
		if i < len(f.current) {
			values[name] = f.current[i]
		} else {
			values[name] = ""
		}
	}
	return values
}

// Raw returns the current row exactly as it appeared in the input, line
// terminator excluded. Dead-letter payloads round-trip these bytes.
func (f *File) Raw() []byte { return f.raw }

// Err returns the first read error encountered, if any.
func (f *File) Err() error { return f.ioErr }

// Close releases the underlying stream.
func (f *File) Close() error {
	closeErr := f.closer()
	if f.ioErr != nil {
		return f.ioErr
	}
	return closeErr
}

// recorder retains the bytes the CSV reader has consumed so each row's
// verbatim input can be recovered by stream offset.
type recorder struct {
	r    io.Reader
	buf  []byte
	base int64
}

func (rec *recorder) Read(p []byte) (int, error) {
	n, err := rec.r.Read(p)
	if n > 0 {
		rec.buf = append(rec.buf, p[:n]...)
	}
	return n, err
}

// slice copies stream bytes [start, end).
func (rec *recorder) slice(start, end int64) []byte {
	out := make([]byte, end-start)
	copy(out, rec.buf[start-rec.base:end-rec.base])
	return out
}

// discard releases retained bytes before off.
func (rec *recorder) discard(off int64) {
	rec.buf = rec.buf[off-rec.base:]
	rec.base = off
}

// trimRecordBounds strips the record's line terminator and any blank lines
// the CSV reader skipped ahead of it. Leading newlines cannot be record
// content; a quoted field's embedded newlines sit behind its opening quote.
func trimRecordBounds(line []byte) []byte {
	line = bytes.TrimLeft(line, "\r\n")
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

// bomAwareReader detects a UTF BOM at the start of the data and transforms
// to UTF-8 accordingly; without a BOM the data passes through untouched.
func bomAwareReader(reader io.Reader) io.Reader {
	transformer := unicode.BOMOverride(encoding.Nop.NewDecoder())
	return transform.NewReader(reader, transformer)
}
