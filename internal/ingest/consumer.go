package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/internal/validation"
	errs "automated-identity-matching/pkg/errors"
	"automated-identity-matching/pkg/logging"
	"automated-identity-matching/pkg/metrics"
)

// ConsumerConfig holds broker connection settings.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// Consumer pulls claim records from Kafka and feeds the worker pool.
// Record values are base64-encoded JSON claims; plain JSON is accepted
// too since some producers skip the encoding step.
type Consumer struct {
	client *kgo.Client
	pool   *Pool
	log    *logging.ComponentLogger

	mConsumed  *metrics.Counter
	mMalformed *metrics.Counter

	pollMu   sync.Mutex
	lastPoll time.Time
}

func NewConsumer(cfg ConsumerConfig, pool *Pool, log *logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errs.NewValidation("ingest.NewConsumer", "no kafka brokers configured", nil)
	}
	if cfg.Topic == "" {
		return nil, errs.NewValidation("ingest.NewConsumer", "no kafka topic configured", nil)
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
	}
	if cfg.Group != "" {
		opts = append(opts, kgo.ConsumerGroup(cfg.Group))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, errs.NewExternal("ingest.NewConsumer", "kafka", "create client", err)
	}

	c := &Consumer{
		client:     client,
		pool:       pool,
		mConsumed:  metrics.Default.Counter("claims_consumed_total", "Claim records pulled from the broker"),
		mMalformed: metrics.Default.Counter("claims_malformed_total", "Claim records dropped as undecodable or invalid"),
	}
	if log != nil {
		c.log = log.WithComponent("ingest.consumer")
	}
	return c, nil
}

// Run polls until ctx is cancelled. Malformed records are logged and
// skipped; the loop never aborts on a single bad record.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		c.pollMu.Lock()
		c.lastPoll = time.Now()
		c.pollMu.Unlock()

		fetches.EachError(func(topic string, partition int32, err error) {
			if c.log != nil {
				c.log.Error("fetch error", err,
					logging.String("topic", topic),
					logging.Int("partition", int(partition)))
			}
		})

		fetches.EachRecord(func(rec *kgo.Record) {
			c.mConsumed.Inc(1)
			c.handleRecord(ctx, rec)
		})
	}
}

// Close shuts down the broker client.
func (c *Consumer) Close() {
	c.client.Close()
}

// LastPoll reports when the consumer last completed a poll, for
// liveness checks.
func (c *Consumer) LastPoll() time.Time {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()
	return c.lastPoll
}

func (c *Consumer) handleRecord(ctx context.Context, rec *kgo.Record) {
	claim, err := decodeClaim(rec.Value)
	if err != nil {
		c.mMalformed.Inc(1)
		if c.log != nil {
			c.log.Warn("dropping undecodable record",
				logging.String("topic", rec.Topic),
				logging.Int64("offset", rec.Offset),
				logging.String("reason", err.Error()))
		}
		return
	}

	if err := validation.ValidateClaim(claim); err != nil {
		c.mMalformed.Inc(1)
		if c.log != nil {
			c.log.Warn("dropping invalid claim",
				logging.String("user_id", claim.UserID),
				logging.Int64("offset", rec.Offset),
				logging.String("reason", err.Error()))
		}
		return
	}

	job := ClaimJob{
		Claim:     claim,
		RequestID: uuid.NewString(),
		Received:  time.Now(),
	}
	if err := c.pool.Submit(ctx, job); err != nil {
		if c.log != nil {
			c.log.Error("submit claim failed", err,
				logging.String("user_id", claim.UserID))
		}
	}
}

// decodeClaim turns a record value into a claim. The upstream producer
// base64-encodes the JSON payload, so try that first and fall back to
// treating the value as raw JSON.
func decodeClaim(value []byte) (models.IdentityClaim, error) {
	var claim models.IdentityClaim

	raw := value
	if decoded, err := base64.StdEncoding.DecodeString(string(value)); err == nil {
		raw = decoded
	}
	if err := json.Unmarshal(raw, &claim); err != nil {
		return claim, fmt.Errorf("decode claim payload: %w", err)
	}
	return claim, nil
}
