package parsers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"dataframe-gateway/internal/provider"
)

// Factory creates a parser instance
type Factory func() ResponseParser

// Registry maps parser identifiers to factories
type Registry struct {
	parsers map[string]Factory
	mutex   sync.RWMutex
}

// NewRegistry creates a registry holding the built-in parsers
func NewRegistry() *Registry {
	registry := &Registry{
		parsers: make(map[string]Factory),
	}

	registry.registerParsers()

	return registry
}

// registerParsers registers all built-in parsers
func (r *Registry) registerParsers() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.register(ParserJSON, func() ResponseParser {
		return NewJSONParser()
	})
	r.register(ParserJSONLines, func() ResponseParser {
		return NewJSONLinesParser()
	})
	r.register(ParserCSV, func() ResponseParser {
		return NewCSVParser(nil)
	})
	r.register(ParserAvro, func() ResponseParser {
		return NewAvroParser()
	})
	r.register(ParserParquet, func() ResponseParser {
		return NewParquetParser()
	})
}

// register stores a factory; callers hold the lock
func (r *Registry) register(name string, factory Factory) {
	r.parsers[normalizeName(name)] = factory
}

// Register adds an externally supplied parser. Names are case-insensitive
// and may not shadow an existing registration.
func (r *Registry) Register(name string, factory Factory) error {
	key := normalizeName(name)
	if key == "" {
		return fmt.Errorf("parser name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("parser %q has no factory", name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.parsers[key]; exists {
		return fmt.Errorf("parser %q is already registered", name)
	}
	r.register(key, factory)
	return nil
}

// Get creates the parser registered under name
func (r *Registry) Get(name string) (ResponseParser, error) {
	r.mutex.RLock()
	factory, exists := r.parsers[normalizeName(name)]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", provider.ErrParserNotFound, name)
	}

	return factory(), nil
}

// IsSupported checks if a parser is registered under name
func (r *Registry) IsSupported(name string) bool {
	r.mutex.RLock()
	_, exists := r.parsers[normalizeName(name)]
	r.mutex.RUnlock()

	return exists
}

// List returns all registered parser identifiers, sorted
func (r *Registry) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
