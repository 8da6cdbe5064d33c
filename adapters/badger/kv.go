package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marcusPrado02/consist-go/ports/kv"
)

// KV implements the kv port on Badger. Entries are stored as JSON so the
// Meta annotations round-trip; TTL maps to Badger's native per-key expiry.
type KV struct {
	db *badger.DB
}

func NewKV(db *badger.DB) *KV {
	return &KV{db: db}
}

func (k *KV) Put(_ context.Context, key string, entry kv.Entry, opts kv.PutOptions) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize entry %s: %w", key, err)
	}
	return k.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if opts.TTL > 0 {
			e = e.WithTTL(opts.TTL)
		}
		return txn.SetEntry(e)
	})
}

func (k *KV) Get(_ context.Context, key string) (kv.Entry, error) {
	var entry kv.Entry
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return kv.Entry{}, kv.ErrNotFound
	}
	if err != nil {
		return kv.Entry{}, err
	}
	return entry, nil
}

func (k *KV) Delete(_ context.Context, key string) error {
	return k.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

var _ kv.Store = (*KV)(nil)
