package feeds_test

import (
	"errors"
	"path/filepath"
	"testing"

	"turnstile/internal/etl"
	"turnstile/internal/feeds"
	"turnstile/internal/testsupport"
)

const sampleCatalog = `feeds:
  - name: metro
    type: gtfs
    source: https://feeds.example/metro.zip
    schedule: daily
  - name: regional-rail
    type: netex
    source: /var/feeds/regional.xml
    enabled: false
    description: regional rail export
`

func TestParseCatalog(t *testing.T) {
	catalog, err := feeds.Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(catalog.Feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(catalog.Feeds))
	}

	metro, ok := catalog.ByName("metro")
	if !ok {
		t.Fatal("metro not found")
	}
	if metro.Type != "gtfs" || !metro.IsEnabled() {
		t.Fatalf("unexpected metro descriptor: %+v", metro)
	}

	rail, ok := catalog.ByName("regional-rail")
	if !ok {
		t.Fatal("regional-rail not found")
	}
	if rail.IsEnabled() {
		t.Fatal("regional-rail should be disabled")
	}

	enabled := catalog.Enabled()
	if len(enabled) != 1 || enabled[0].Name != "metro" {
		t.Fatalf("unexpected enabled set: %+v", enabled)
	}
}

func TestParseRejectsMissingSource(t *testing.T) {
	_, err := feeds.Parse([]byte("feeds:\n  - name: metro\n    type: gtfs\n"))
	if !errors.Is(err, etl.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	doc := "feeds:\n" +
		"  - name: metro\n    type: gtfs\n    source: a.zip\n" +
		"  - name: metro\n    type: netex\n    source: b.xml\n"
	_, err := feeds.Parse([]byte(doc))
	if !errors.Is(err, etl.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := feeds.Parse([]byte("feeds: [\n"))
	if !errors.Is(err, etl.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	catalog, err := feeds.Parse([]byte("feeds:\n  - name: ' metro '\n    type: ' gtfs '\n    source: ' a.zip '\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := catalog.Feeds[0]
	if d.Name != "metro" || d.Type != "gtfs" || d.Source != "a.zip" {
		t.Fatalf("whitespace not trimmed: %+v", d)
	}
}

func TestLoadMissingFileIsConfigurationError(t *testing.T) {
	_, err := feeds.Load(filepath.Join(t.TempDir(), "feeds.yml"))
	if !errors.Is(err, etl.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yml")
	testsupport.WriteFeedsFile(t, path, sampleCatalog)

	catalog, err := feeds.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(catalog.Feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(catalog.Feeds))
	}
}
