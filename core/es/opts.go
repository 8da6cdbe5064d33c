package es

import "log/slog"

type (
	storeOptions struct {
		log     *slog.Logger
		metrics ESMetrics
	}

	repoOptions struct {
		log          *slog.Logger
		metrics      ESMetrics
		metadataFunc MetadataFunc
	}

	// StoreOption configures store constructors.
	StoreOption interface {
		applyToStore(*storeOptions)
	}

	// RepositoryOption configures NewRepository.
	RepositoryOption interface {
		applyToRepository(*repoOptions)
	}

	LogOption struct{ l *slog.Logger }

	MetadataFuncOption struct{ f MetadataFunc }
)

func WithLog(l *slog.Logger) LogOption { return LogOption{l: l} }

// WithMetadataFunc sets the factory producing StoredEvent.Metadata for each
// persisted domain event (correlation ids, tenant ids, ...).
func WithMetadataFunc(f MetadataFunc) MetadataFuncOption { return MetadataFuncOption{f: f} }

func (o LogOption) applyToStore(s *storeOptions)              { s.log = o.l }
func (o LogOption) applyToRepository(r *repoOptions)          { r.log = o.l }
func (o MetadataFuncOption) applyToRepository(r *repoOptions) { r.metadataFunc = o.f }

func newStoreOptions(opts ...StoreOption) storeOptions {
	options := storeOptions{log: slog.Default(), metrics: NopESMetrics()}
	for _, opt := range opts {
		opt.applyToStore(&options)
	}
	return options
}

func newRepoOptions(opts ...RepositoryOption) repoOptions {
	options := repoOptions{
		log:          slog.Default(),
		metrics:      NopESMetrics(),
		metadataFunc: func(any) map[string]any { return nil },
	}
	for _, opt := range opts {
		opt.applyToRepository(&options)
	}
	return options
}
