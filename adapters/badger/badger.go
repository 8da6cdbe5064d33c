// Package badger backs the event store and the kv port with BadgerDB, an
// embedded transactional key-value store. Appends run inside a Badger
// transaction, so the optimistic version check and the insert are atomic
// without any external coordinator.
package badger

import (
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marcusPrado02/consist-go/core/es"
)

type Config struct {
	// Path is the data directory. Ignored with InMemory.
	Path string
	// InMemory keeps everything in RAM; used by tests and local runs.
	InMemory bool
}

// Open opens a Badger database with Badger's own logging silenced in favor
// of the adapters' slog instrumentation.
func Open(cfg Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	return badger.Open(opts)
}

type (
	options struct {
		log     *slog.Logger
		metrics es.ESMetrics
	}

	// Option configures the Badger-backed stores.
	Option interface {
		apply(*options)
	}

	LogOption     struct{ l *slog.Logger }
	MetricsOption struct{ m es.ESMetrics }
)

func WithLog(l *slog.Logger) LogOption { return LogOption{l: l} }

func WithMetrics(m es.ESMetrics) MetricsOption { return MetricsOption{m: m} }

func (o LogOption) apply(oo *options)     { oo.log = o.l }
func (o MetricsOption) apply(oo *options) { oo.metrics = o.m }

func newOptions(opts ...Option) options {
	oo := options{
		log:     slog.Default(),
		metrics: es.NopESMetrics(),
	}
	for _, opt := range opts {
		opt.apply(&oo)
	}
	return oo
}
