package gtfs

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"turnstile/internal/etl"
	"turnstile/internal/etl/gtfscsv"
)

// FormatID is the registry identifier for GTFS static feeds.
const FormatID = "gtfs"

// tableOrder lists the GTFS tables in canonical load order. Missing tables
// are skipped; order within the archive is irrelevant.
var tableOrder = []string{
	"agency",
	"calendar",
	"calendar_dates",
	"stops",
	"routes",
	"shapes",
	"trips",
	"stop_times",
}

// Processor parses GTFS static archives.
type Processor struct{}

// New constructs a GTFS processor.
func New() *Processor { return &Processor{} }

// Format returns the registry identifier.
func (*Processor) Format() string { return FormatID }

// Extract opens the zip archive and yields one raw record per table row.
func (*Processor) Extract(ctx context.Context, path string) (etl.RecordIterator, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, etl.Wrap(etl.ErrSourceUnavailable, "gtfs", "open archive", path, err)
	}

	byName := make(map[string]*zip.File, len(reader.File))
	for _, file := range reader.File {
		byName[file.Name] = file
	}

	var tables []*zip.File
	for _, table := range tableOrder {
		if file, ok := byName[table+".txt"]; ok {
			tables = append(tables, file)
		}
	}
	if len(tables) == 0 {
		reader.Close()
		return nil, etl.Wrap(etl.ErrExtract, "gtfs", "open archive",
			fmt.Sprintf("%s contains no GTFS tables", path), nil)
	}

	return &iterator{ctx: ctx, archive: reader, tables: tables}, nil
}

// iterator streams records across the archive's tables lazily.
type iterator struct {
	ctx     context.Context
	archive *zip.ReadCloser
	tables  []*zip.File
	current *gtfscsv.File
	record  etl.RawRecord
	err     error
}

func (it *iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if err := it.ctx.Err(); err != nil {
			it.err = err
			return false
		}
		if it.current == nil {
			if len(it.tables) == 0 {
				return false
			}
			file := it.tables[0]
			it.tables = it.tables[1:]
			rc, err := file.Open()
			if err != nil {
				it.err = etl.Wrap(etl.ErrExtract, "gtfs", "open table", file.Name, err)
				return false
			}
			table := tableName(file.Name)
			csvFile, err := gtfscsv.New(table, rc)
			if err != nil {
				it.err = etl.Wrap(etl.ErrExtract, "gtfs", "parse table", file.Name, err)
				return false
			}
			it.current = csvFile
		}

		if it.current.Next() {
			it.record = etl.RawRecord{
				Table:  it.current.Table(),
				Row:    it.current.Row(),
				Values: it.current.Values(),
				Raw:    it.current.Raw(),
			}
			return true
		}

		closeErr := it.current.Close()
		table := it.current.Table()
		it.current = nil
		if closeErr != nil {
			it.err = etl.Wrap(etl.ErrExtract, "gtfs", "read table", table, closeErr)
			return false
		}
	}
}

func (it *iterator) Record() etl.RawRecord { return it.record }

func (it *iterator) Err() error { return it.err }

func (it *iterator) Close() error {
	if it.current != nil {
		_ = it.current.Close()
		it.current = nil
	}
	return it.archive.Close()
}

func tableName(fileName string) string {
	const suffix = ".txt"
	if len(fileName) > len(suffix) && fileName[len(fileName)-len(suffix):] == suffix {
		return fileName[:len(fileName)-len(suffix)]
	}
	return fileName
}

var _ io.Closer = (*iterator)(nil)
