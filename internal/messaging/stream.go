package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

// Stream entry fields. Every other field is a message property.
const (
	FieldBody          = "body"
	FieldCorrelationID = "correlation_id"
	FieldError         = "error"
)

const (
	DefaultGroup        = "kie-redirect"
	DefaultBlock        = 5 * time.Second
	DefaultClaimIdle    = time.Minute
	DefaultRecoverEvery = 30 * time.Second
	defaultCount        = 16
	retryBackoff        = time.Second
)

// StreamClient is the part of the redis client the relay uses. *redis.Client implements it.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// RelayOptions name the streams and the consumer group.
type RelayOptions struct {
	In           string
	Out          string
	DeadLetter   string // optional
	Group        string
	Consumer     string
	Block        time.Duration
	Count        int64
	ClaimIdle    time.Duration // pending entries of other consumers idle this long are claimed
	RecoverEvery time.Duration // how often unacknowledged entries are retried
}

// Relay consumes command messages from one Redis stream, runs them through the
// interceptor and publishes the result on another.
type Relay struct {
	client      StreamClient
	interceptor *Interceptor
	opts        RelayOptions
	logger      logger.Logger
	stopCh      chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	started     bool
}

func NewRelay(client StreamClient, interceptor *Interceptor, opts RelayOptions, log logger.Logger) (*Relay, error) {
	if opts.In == "" || opts.Out == "" {
		return nil, fmt.Errorf("relay needs both an input and an output stream")
	}
	if opts.In == opts.Out {
		return nil, fmt.Errorf("relay input and output stream must differ: %s", opts.In)
	}
	if opts.Group == "" {
		opts.Group = DefaultGroup
	}
	if opts.Consumer == "" {
		opts.Consumer = "relay"
	}
	if opts.Block <= 0 {
		opts.Block = DefaultBlock
	}
	if opts.Count <= 0 {
		opts.Count = defaultCount
	}
	if opts.ClaimIdle <= 0 {
		opts.ClaimIdle = DefaultClaimIdle
	}
	if opts.RecoverEvery <= 0 {
		opts.RecoverEvery = DefaultRecoverEvery
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Relay{
		client:      client,
		interceptor: interceptor,
		opts:        opts,
		logger:      log,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start ensures the consumer group exists and begins consuming in the background.
// Entries left unacknowledged by an earlier run are retried first.
func (r *Relay) Start(ctx context.Context) error {
	err := r.client.XGroupCreateMkStream(ctx, r.opts.In, r.opts.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", r.opts.Group, r.opts.In, err)
	}

	r.logger.Info("message relay started",
		logger.String("in", r.opts.In),
		logger.String("out", r.opts.Out),
		logger.String("dead_letter", r.opts.DeadLetter),
		logger.String("group", r.opts.Group),
		logger.String("consumer", r.opts.Consumer))

	r.started = true
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		defer close(r.done)
		defer cancel()
		var lastRecover time.Time
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if time.Since(lastRecover) >= r.opts.RecoverEvery {
				lastRecover = time.Now()
				if n, err := r.Recover(ctx); err != nil && ctx.Err() == nil {
					r.logger.Error("message relay recovery failed", logger.Error(err))
				} else if n > 0 {
					r.logger.Info("message relay recovered pending entries", logger.Int("count", n))
				}
			}

			if err := r.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("message relay poll failed", logger.Error(err))
				timer := time.NewTimer(retryBackoff)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return
				}
			}
		}
	}()
	return nil
}

// Stop ends the consume loop and waits for the in-flight batch.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	if r.started {
		<-r.done
	}
}

// Poll reads one batch of new entries and handles every entry in it. An entry
// that fails stays pending for Recover; the rest of the batch is still handled.
func (r *Relay) Poll(ctx context.Context) error {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.opts.Group,
		Consumer: r.opts.Consumer,
		Streams:  []string{r.opts.In, ">"},
		Count:    r.opts.Count,
		Block:    r.opts.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", r.opts.In, err)
	}

	var failed int
	for _, s := range streams {
		for _, entry := range s.Messages {
			if !r.handleLogged(ctx, entry) {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d entries of %s left pending", failed, r.opts.In)
	}
	return nil
}

// Recover retries the entries this consumer read but never acknowledged, then
// claims the ones other consumers left idle for ClaimIdle. It returns how many
// entries were handled successfully.
func (r *Relay) Recover(ctx context.Context) (int, error) {
	handled := 0

	// Own pending entries, walked by id so failures are not read twice.
	cursor := "0"
	for {
		streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    r.opts.Group,
			Consumer: r.opts.Consumer,
			Streams:  []string{r.opts.In, cursor},
			Count:    r.opts.Count,
		}).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return handled, fmt.Errorf("read pending %s: %w", r.opts.In, err)
		}
		n := 0
		for _, s := range streams {
			for _, entry := range s.Messages {
				n++
				cursor = entry.ID
				if r.handleLogged(ctx, entry) {
					handled++
				}
			}
		}
		if n == 0 {
			break
		}
	}

	// Entries stuck with consumers that went away.
	start := "0-0"
	for {
		entries, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.opts.In,
			Group:    r.opts.Group,
			Consumer: r.opts.Consumer,
			MinIdle:  r.opts.ClaimIdle,
			Start:    start,
			Count:    r.opts.Count,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return handled, fmt.Errorf("claim idle %s: %w", r.opts.In, err)
		}
		for _, entry := range entries {
			if r.handleLogged(ctx, entry) {
				handled++
			}
		}
		if next == "" || next == "0-0" || next == start {
			break
		}
		start = next
	}
	return handled, nil
}

func (r *Relay) handleLogged(ctx context.Context, entry redis.XMessage) bool {
	if err := r.Handle(ctx, entry); err != nil {
		r.logger.Error("message relay entry failed, left pending",
			logger.String("entry_id", entry.ID),
			logger.Error(err))
		return false
	}
	return true
}

// Handle forwards one entry and acknowledges it. Transport errors go to the
// dead-letter stream when one is configured. Any other failure returns an error
// and leaves the entry pending, to be retried by Recover.
func (r *Relay) Handle(ctx context.Context, entry redis.XMessage) error {
	// Pending entries trimmed from the stream come back without values.
	if len(entry.Values) == 0 {
		return r.ack(ctx, entry.ID)
	}

	msg := DecodeEntry(entry.Values)

	out, err := r.interceptor.Intercept(ctx, msg)
	switch {
	case err == nil:
		if err := r.client.XAdd(ctx, &redis.XAddArgs{Stream: r.opts.Out, Values: EncodeEntry(out)}).Err(); err != nil {
			return fmt.Errorf("publish %s to %s: %w", entry.ID, r.opts.Out, err)
		}
	case errors.Is(err, ErrTransport):
		if r.opts.DeadLetter != "" {
			values := EncodeEntry(msg)
			values[FieldError] = err.Error()
			if err := r.client.XAdd(ctx, &redis.XAddArgs{Stream: r.opts.DeadLetter, Values: values}).Err(); err != nil {
				return fmt.Errorf("dead-letter %s to %s: %w", entry.ID, r.opts.DeadLetter, err)
			}
		}
		r.logger.Warn("message dropped",
			logger.String("entry_id", entry.ID),
			logger.String("dead_letter", r.opts.DeadLetter),
			logger.Error(err))
	default:
		return err
	}

	return r.ack(ctx, entry.ID)
}

func (r *Relay) ack(ctx context.Context, id string) error {
	if err := r.client.XAck(ctx, r.opts.In, r.opts.Group, id).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}

// DecodeEntry maps stream fields onto a Message.
func DecodeEntry(values map[string]interface{}) Message {
	msg := Message{Properties: make(map[string]string, len(values))}
	for k, v := range values {
		s := fmt.Sprint(v)
		switch k {
		case FieldBody:
			msg.Body = []byte(s)
		case FieldCorrelationID:
			msg.CorrelationID = s
		default:
			msg.Properties[k] = s
		}
	}
	return msg
}

// EncodeEntry is the inverse of DecodeEntry.
func EncodeEntry(msg Message) map[string]interface{} {
	values := make(map[string]interface{}, len(msg.Properties)+2)
	for k, v := range msg.Properties {
		values[k] = v
	}
	if msg.CorrelationID != "" {
		values[FieldCorrelationID] = msg.CorrelationID
	}
	values[FieldBody] = string(msg.Body)
	return values
}
