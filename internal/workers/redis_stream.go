package workers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lottery-miniapp-backend/internal/features/balance/provider"
)

const (
	EventWalletConnected    = "wallet_connected"
	EventWalletDisconnected = "wallet_disconnected"

	defaultConsumerName = "lottery_worker_1"
	readBlock           = 5 * time.Second
)

// errBadEvent marks a message that can never be processed; it is acknowledged and dropped.
var errBadEvent = errors.New("bad wallet event")

// Wallets is the part of the balance registry the worker drives.
type Wallets interface {
	BindWallet(ctx context.Context, userID int64, address string)
	UnbindWallet(userID int64)
}

// WalletEventsWorker applies wallet connect/disconnect events the bot pushes to a Redis stream.
type WalletEventsWorker struct {
	rdb      go_redis.Cmdable
	wallets  Wallets
	stream   string
	group    string
	consumer string
	log      zerolog.Logger
}

func NewWalletEventsWorker(rdb go_redis.Cmdable, wallets Wallets, stream, group string, log zerolog.Logger) *WalletEventsWorker {
	return &WalletEventsWorker{
		rdb:      rdb,
		wallets:  wallets,
		stream:   stream,
		group:    group,
		consumer: defaultConsumerName,
		log:      log,
	}
}

// Start blocks reading the stream until ctx is cancelled.
func (w *WalletEventsWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, w.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Str("stream", w.stream).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.stream).Str("group", w.group).Msg("Starting wallet events worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping wallet events worker")
			return
		default:
			if err := w.poll(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.log.Error().Err(err).Msg("Error reading from stream")
				// backoff on error
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// poll reads one batch and acknowledges every message it handled.
func (w *WalletEventsWorker) poll(ctx context.Context) error {
	entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
		Group:    w.group,
		Consumer: w.consumer,
		Streams:  []string{w.stream, ">"},
		Count:    10,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, go_redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range entries {
		for _, msg := range stream.Messages {
			if err := w.processMessage(ctx, msg.Values); err != nil {
				w.log.Warn().Err(err).Str("message_id", msg.ID).Interface("values", msg.Values).Msg("Dropping wallet event")
			}
			if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
				w.log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to ack wallet event")
			}
		}
	}
	return nil
}

func (w *WalletEventsWorker) processMessage(ctx context.Context, values map[string]interface{}) error {
	eventType, _ := values["type"].(string)
	userIDStr, _ := values["user_id"].(string)
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID == 0 {
		return fmt.Errorf("%w: user_id %q", errBadEvent, userIDStr)
	}

	switch eventType {
	case EventWalletConnected:
		raw, _ := values["address"].(string)
		addr, err := provider.NormalizeAddress(raw)
		if err != nil {
			return fmt.Errorf("%w: address %q: %v", errBadEvent, raw, err)
		}
		w.log.Info().Int64("user_id", userID).Str("address", addr).Msg("Processing wallet_connected event")
		w.wallets.BindWallet(ctx, userID, addr)
	case EventWalletDisconnected:
		w.log.Info().Int64("user_id", userID).Msg("Processing wallet_disconnected event")
		w.wallets.UnbindWallet(userID)
	default:
		return fmt.Errorf("%w: type %q", errBadEvent, eventType)
	}
	return nil
}
