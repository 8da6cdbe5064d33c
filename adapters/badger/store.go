package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marcusPrado02/consist-go/core/es"
)

// EventStore is a durable es.EventStore on Badger.
//
// Per stream it keeps a length key and one key per event, version encoded
// big-endian so the natural key order is the version order:
//
//	es/<stream>/len          -> uint64 stream length
//	es/<stream>/v/<version>  -> StoredEvent JSON
//
// Append reads the length and writes the batch in one transaction. Badger's
// SSI detects a concurrent writer of the same stream and fails the commit,
// which Append reports as a concurrency conflict.
type EventStore struct {
	db      *badger.DB
	log     *slog.Logger
	metrics es.ESMetrics
}

func NewEventStore(db *badger.DB, opts ...Option) *EventStore {
	options := newOptions(opts...)
	return &EventStore{
		db:      db,
		log:     options.log.With(slog.String("store", "badger")),
		metrics: options.metrics,
	}
}

func (s *EventStore) Append(_ context.Context, streamID string, events []es.StoredEvent, expected es.Version) error {
	if len(events) == 0 {
		return es.ErrNoEvents
	}

	defer s.metrics.StoreAppendDuration().ObserveDuration()

	err := s.db.Update(func(txn *badger.Txn) error {
		actual, err := streamLength(txn, streamID)
		if err != nil {
			return err
		}
		if actual != expected {
			return &es.ConcurrencyError{StreamID: streamID, Expected: expected, Actual: actual}
		}
		if err := es.ValidateBatch(streamID, events, expected); err != nil {
			return err
		}

		for _, e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("serialize event %d: %w", e.Version, err)
			}
			if err := txn.Set(eventKey(streamID, e.Version), data); err != nil {
				return err
			}
		}
		return txn.Set(lenKey(streamID), encodeVersion(expected+es.Version(len(events))))
	})

	if errors.Is(err, badger.ErrConflict) {
		// A concurrent append won the race. Re-read the length so the
		// caller sees the real stream position.
		s.metrics.ConcurrencyConflict()
		return &es.ConcurrencyError{
			StreamID: streamID,
			Expected: expected,
			Actual:   s.currentLength(streamID),
		}
	}
	if err != nil {
		var conflict *es.ConcurrencyError
		if errors.As(err, &conflict) {
			s.metrics.ConcurrencyConflict()
		}
		return err
	}

	s.metrics.EventsAppended(len(events))
	s.log.Debug(
		"append",
		slog.String("stream", streamID),
		slog.Int("num_events", len(events)),
		(expected + es.Version(len(events))).SlogAttr(),
	)
	return nil
}

func (s *EventStore) Load(_ context.Context, streamID string, opts ...es.LoadOption) ([]es.StoredEvent, error) {
	defer s.metrics.StoreLoadDuration().ObserveDuration()

	from := es.NewLoadOptions(opts...).FromVersion()

	out := make([]es.StoredEvent, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := eventPrefix(streamID)

		iopts := badger.DefaultIteratorOptions
		iopts.Prefix = prefix

		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Seek(eventKey(streamID, from+1)); it.ValidForPrefix(prefix); it.Next() {
			var e es.StoredEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EventStore) currentLength(streamID string) es.Version {
	var v es.Version
	_ = s.db.View(func(txn *badger.Txn) error {
		var err error
		v, err = streamLength(txn, streamID)
		return err
	})
	return v
}

func streamLength(txn *badger.Txn, streamID string) (es.Version, error) {
	item, err := txn.Get(lenKey(streamID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var v es.Version
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt length key for stream %s", streamID)
		}
		v = es.Version(binary.BigEndian.Uint64(val))
		return nil
	})
	return v, err
}

func lenKey(streamID string) []byte {
	return []byte("es/" + streamID + "/len")
}

func eventPrefix(streamID string) []byte {
	return []byte("es/" + streamID + "/v/")
}

func eventKey(streamID string, v es.Version) []byte {
	return append(eventPrefix(streamID), encodeVersion(v)...)
}

func encodeVersion(v es.Version) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v.Uint64())
	return buf[:]
}

var _ es.EventStore = (*EventStore)(nil)
