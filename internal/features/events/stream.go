package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/events/models"

	"github.com/redis/go-redis/v9"
)

const streamPayloadField = "payload"

// StreamSink appends events to a Redis stream so every service instance
// (and any external consumer) sees them.
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *StreamSink) Name() string { return "redis_stream" }

func (s *StreamSink) Send(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":             string(event.Type),
			streamPayloadField: payload,
		},
	}).Err()
}

// StreamWorker tails the event stream and forwards new entries to a sink,
// typically the local websocket Hub.
type StreamWorker struct {
	client *redis.Client
	stream string
	target Sink
	block  time.Duration
}

func NewStreamWorker(client *redis.Client, stream string, target Sink) *StreamWorker {
	return &StreamWorker{client: client, stream: stream, target: target, block: 5 * time.Second}
}

// Start reads entries appended after the call until ctx is done.
func (w *StreamWorker) Start(ctx context.Context) {
	lastID := w.tailID(ctx)
	logger.Info().Str("stream", w.stream).Str("from", lastID).Msg("Starting event stream worker")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping event stream worker")
			return
		default:
		}

		streams, err := w.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{w.stream, lastID},
			Count:   100,
			Block:   w.block,
		}).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("Error reading event stream")
				time.Sleep(time.Second)
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				w.process(ctx, msg.Values)
			}
		}
	}
}

func (w *StreamWorker) process(ctx context.Context, values map[string]interface{}) {
	raw, ok := values[streamPayloadField].(string)
	if !ok {
		logger.Warn().Interface("values", values).Msg("Stream entry without payload")
		return
	}

	var event models.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		logger.Warn().Err(err).Msg("Invalid event payload")
		return
	}

	if err := w.target.Send(ctx, event); err != nil {
		logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to forward event")
	}
}

// tailID returns the id of the newest entry so that reading resumes exactly
// after it. A literal "$" would skip entries added between two reads.
func (w *StreamWorker) tailID(ctx context.Context) string {
	msgs, err := w.client.XRevRangeN(ctx, w.stream, "+", "-", 1).Result()
	if err != nil || len(msgs) == 0 {
		return "0-0"
	}
	return msgs[0].ID
}
