package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/marcusPrado02/consist-go/core/es"
)

const defaultSubjectPrefix = "consist.es"

type EventStoreConfig struct {
	// Connect is used to create the underlying NATS connection. If nil,
	// ConnectDefault() is used.
	Connect Connector
	Log     *slog.Logger
	// StreamName is upper-cased; default CONSIST_ES.
	StreamName string
	// SubjectPrefix scopes event subjects; default "consist.es".
	SubjectPrefix string
}

// EventStore is a durable es.EventStore on a JetStream stream. Each
// aggregate stream maps to one subject under the prefix, so the last message
// of a subject carries the stream's current version.
//
// Append publishes each event with an expected-last-sequence-per-subject
// precondition, so a racing writer fails server-side instead of interleaving
// versions. Batches are not transactional: a conflict mid-batch leaves the
// earlier events committed; the consecutive-version check makes this visible
// on the next append.
type EventStore struct {
	nc            *natsgo.Conn
	closeNc       closeFunc
	js            jetstream.JetStream
	stream        jetstream.Stream
	log           *slog.Logger
	subjectPrefix string
	streamName    string
}

func NewEventStore(cfg EventStoreConfig) (*EventStore, error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, closeNatsCon, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	streamName := strings.ToUpper(cfg.StreamName)
	if streamName == "" {
		streamName = "CONSIST_ES"
	}

	subjectPrefix := cfg.SubjectPrefix
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	log = log.With(
		slog.String("store", "nats_js"),
		slog.String("stream", streamName),
		slog.String("subject_prefix", subjectPrefix),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*natsgo.DefaultTimeout)
	defer cancel()

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
		Storage:  jetstream.FileStorage,
		FirstSeq: 1,
	})
	if err != nil {
		closeNatsCon()
		return nil, fmt.Errorf("ensure stream %s: %w", streamName, err)
	}
	log.Debug("ensured stream")

	return &EventStore{
		nc:            nc,
		closeNc:       closeNatsCon,
		js:            js,
		stream:        stream,
		log:           log,
		subjectPrefix: subjectPrefix,
		streamName:    streamName,
	}, nil
}

func (e *EventStore) Close() error {
	e.js.CleanupPublisher()
	e.closeNc()
	e.log.Debug("closed event store")
	return nil
}

func (e *EventStore) Append(ctx context.Context, streamID string, events []es.StoredEvent, expected es.Version) error {
	if len(events) == 0 {
		return es.ErrNoEvents
	}
	if err := es.ValidateBatch(streamID, events, expected); err != nil {
		return err
	}

	subject := e.subjectFor(streamID)

	last, err := e.lastEvent(ctx, streamID)
	if err != nil {
		return err
	}

	var actual es.Version
	var lastSeq uint64
	if last != nil {
		actual = last.event.Version
		lastSeq = last.seq
	}
	if actual != expected {
		return &es.ConcurrencyError{StreamID: streamID, Expected: expected, Actual: actual}
	}

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("serialize event %d: %w", ev.Version, err)
		}

		msg := natsgo.NewMsg(subject)
		msg.Header.Set("x-event-type", ev.EventType)
		msg.Header.Set("x-stream-id", streamID)
		msg.Data = data

		ackF, err := e.js.PublishMsgAsync(
			msg,
			jetstream.WithExpectLastSequencePerSubject(lastSeq),
		)
		if err != nil {
			return fmt.Errorf("append to subject %s: %w", subject, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ack := <-ackF.Ok():
			lastSeq = ack.Sequence
		case err := <-ackF.Err():
			if isWrongLastSequence(err) {
				return e.conflict(ctx, streamID, expected)
			}
			return fmt.Errorf("append to subject %s: %w", subject, err)
		}
	}

	e.log.Debug(
		"append",
		slog.String("stream", streamID),
		slog.Int("num_events", len(events)),
		(expected + es.Version(len(events))).SlogAttr(),
	)
	return nil
}

func (e *EventStore) Load(ctx context.Context, streamID string, opts ...es.LoadOption) ([]es.StoredEvent, error) {
	from := es.NewLoadOptions(opts...).FromVersion()

	out := make([]es.StoredEvent, 0)

	// The subject's last message bounds the read; without one the stream
	// is empty.
	last, err := e.lastEvent(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return out, nil
	}

	consumer, err := e.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		DeliverPolicy:  jetstream.DeliverAllPolicy,
		FilterSubjects: []string{e.subjectFor(streamID)},
	})
	if err != nil {
		return nil, err
	}

outer:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mb, err := consumer.FetchNoWait(100)
		if err != nil {
			return nil, err
		}
		if mb.Error() != nil {
			return nil, mb.Error()
		}

		empty := true
		for msg := range mb.Messages() {
			empty = false

			ev, seq, err := decodeMsg(msg)
			if err != nil {
				return nil, err
			}
			if ev.Version > from {
				out = append(out, *ev)
			}
			if seq >= last.seq {
				break outer
			}
		}
		if empty {
			break
		}
	}

	return out, nil
}

// conflict rebuilds a ConcurrencyError after a server-side sequence
// precondition failed, re-reading the stream for the real version.
func (e *EventStore) conflict(ctx context.Context, streamID string, expected es.Version) error {
	var actual es.Version
	if last, err := e.lastEvent(ctx, streamID); err == nil && last != nil {
		actual = last.event.Version
	}
	return &es.ConcurrencyError{StreamID: streamID, Expected: expected, Actual: actual}
}

type lastEvent struct {
	event es.StoredEvent
	seq   uint64
}

func (e *EventStore) lastEvent(ctx context.Context, streamID string) (*lastEvent, error) {
	subject := e.subjectFor(streamID)

	lm, err := e.stream.GetLastMsgForSubject(ctx, subject)
	if errors.Is(err, jetstream.ErrMsgNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last message for subject %q: %w", subject, err)
	}

	var ev es.StoredEvent
	if err := json.Unmarshal(lm.Data, &ev); err != nil {
		return nil, fmt.Errorf("decode last message for subject %q: %w", subject, err)
	}
	return &lastEvent{event: ev, seq: lm.Sequence}, nil
}

func decodeMsg(msg jetstream.Msg) (*es.StoredEvent, uint64, error) {
	md, err := msg.Metadata()
	if err != nil {
		return nil, 0, err
	}

	var ev es.StoredEvent
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		return nil, 0, err
	}
	return &ev, md.Sequence.Stream, nil
}

// subjectFor maps a stream id to a single subject token under the prefix.
func (e *EventStore) subjectFor(streamID string) string {
	return e.subjectPrefix + "." + sanitizeToken(streamID)
}

// sanitizeToken replaces the characters NATS assigns structural meaning.
func sanitizeToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ':
			return '_'
		}
		return r
	}, s)
}

func isWrongLastSequence(err error) bool {
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
	}
	return false
}

var _ es.EventStore = (*EventStore)(nil)
