package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/marcusPrado02/consist-go/ports/kv"
)

type KVConfig struct {
	// Connect is used to create the underlying NATS connection. If nil,
	// ConnectDefault() is used.
	Connect Connector
	Bucket  string
	// TTL expires bucket entries. JetStream KV has no per-key expiry, so
	// kv.PutOptions.TTL is ignored in favor of this bucket-wide setting.
	TTL time.Duration
}

// KV implements the kv port on a JetStream key-value bucket.
type KV struct {
	kv jetstream.KeyValue
}

func NewKV(cfg KVConfig) (*KV, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, _, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	bucket, err := js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket:  cfg.Bucket,
		Storage: jetstream.FileStorage,
		TTL:     cfg.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}

	return &KV{kv: bucket}, nil
}

func (k *KV) Put(ctx context.Context, key string, entry kv.Entry, _ kv.PutOptions) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize entry %s: %w", key, err)
	}
	if _, err := k.kv.Put(ctx, key, data); err != nil {
		return err
	}
	return nil
}

func (k *KV) Get(ctx context.Context, key string) (kv.Entry, error) {
	v, err := k.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Entry{}, kv.ErrNotFound
		}
		return kv.Entry{}, err
	}

	var entry kv.Entry
	if err := json.Unmarshal(v.Value(), &entry); err != nil {
		return kv.Entry{}, fmt.Errorf("decode entry %s: %w", key, err)
	}
	return entry, nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	return k.kv.Delete(ctx, key)
}

var _ kv.Store = (*KV)(nil)
