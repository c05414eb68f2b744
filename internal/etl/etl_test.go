package etl_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"turnstile/internal/etl"
)

type fakeProcessor struct{ format string }

func (p fakeProcessor) Format() string { return p.format }

func (p fakeProcessor) Extract(context.Context, string) (etl.RecordIterator, error) {
	return nil, nil
}

func (p fakeProcessor) Transform(etl.RawRecord) etl.TransformResult {
	return etl.Skipped()
}

func TestRegistryResolve(t *testing.T) {
	registry := etl.NewRegistry()
	registry.Register(fakeProcessor{format: "gtfs"})
	registry.Register(fakeProcessor{format: "netex"})

	p, err := registry.Resolve("gtfs")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Format() != "gtfs" {
		t.Fatalf("format = %q", p.Format())
	}
}

func TestRegistryResolveUnknownFormat(t *testing.T) {
	registry := etl.NewRegistry()
	registry.Register(fakeProcessor{format: "gtfs"})

	_, err := registry.Resolve("siri")
	if !errors.Is(err, etl.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRegistryFormatsSorted(t *testing.T) {
	registry := etl.NewRegistry()
	registry.Register(fakeProcessor{format: "netex"})
	registry.Register(fakeProcessor{format: "gtfs"})

	formats := registry.Formats()
	if len(formats) != 2 || formats[0] != "gtfs" || formats[1] != "netex" {
		t.Fatalf("formats = %v", formats)
	}
}

func TestRawRecordGetIsVerbatim(t *testing.T) {
	record := etl.RawRecord{Values: map[string]string{"stop_name": " Central "}}
	if got := record.Get("stop_name"); got != " Central " {
		t.Fatalf("Get = %q, want field untouched", got)
	}
	if got := record.Get("stop_desc"); got != "" {
		t.Fatalf("Get of absent field = %q", got)
	}
}

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	err := etl.Wrap(etl.ErrSourceUnavailable, "source", "download", "https://feeds.example/gtfs.zip", io.ErrUnexpectedEOF)

	if !errors.Is(err, etl.ErrSourceUnavailable) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("cause lost: %v", err)
	}
	want := "source unavailable: source: download: https://feeds.example/gtfs.zip: unexpected EOF"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"source unavailable", etl.Wrap(etl.ErrSourceUnavailable, "source", "download", "timeout", nil), true},
		{"extract", etl.Wrap(etl.ErrExtract, "gtfs", "read table", "corrupt zip", nil), false},
		{"load", etl.Wrap(etl.ErrLoadTransaction, "store", "load", "constraint", nil), false},
		{"configuration", etl.Wrap(etl.ErrConfiguration, "feeds", "parse", "bad yaml", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := etl.Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable = %v, want %v", got, tc.want)
			}
		})
	}
}
