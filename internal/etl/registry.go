package etl

import (
	"sort"
)

// Registry maps format identifiers to processors. Resolution is by exact
// string match against a feed descriptor's declared type.
type Registry struct {
	processors map[string]Processor
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[string]Processor)}
}

// Register adds a processor under its declared format identifier. The last
// registration for an identifier wins; startup wiring keeps identifiers
// unique in practice.
func (r *Registry) Register(p Processor) {
	if p == nil {
		return
	}
	r.processors[p.Format()] = p
}

// Resolve returns the processor for a declared feed type, or an
// ErrUnknownFormat tagged error when no processor is registered. The caller
// skips the feed and reports it; an unknown type never aborts the run.
func (r *Registry) Resolve(format string) (Processor, error) {
	p, ok := r.processors[format]
	if !ok {
		return nil, Wrap(ErrUnknownFormat, "registry", "resolve", format, nil)
	}
	return p, nil
}

// Formats returns the registered format identifiers in sorted order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.processors))
	for format := range r.processors {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}
