package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Transport names accepted by NewTransport.
const (
	TransportLog   = "log"
	TransportNATS  = "nats"
	TransportRedis = "redis"
	TransportKafka = "kafka"
)

// Options selects and configures a transport.
type Options struct {
	Kind string
	// Subject is the NATS subject, Redis channel or Kafka topic.
	Subject      string
	NATS         *nats.Conn
	Redis        *redis.Client
	KafkaBrokers []string
}

// NewTransport builds the transport named by opts.Kind.
func NewTransport(opts Options, logger zerolog.Logger) (Transport, error) {
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		subject = "gema.push"
	}

	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", TransportLog:
		return NewLogTransport(logger), nil
	case TransportNATS:
		if opts.NATS == nil {
			return nil, fmt.Errorf("nats transport requires a connection")
		}
		return NewNATSTransport(opts.NATS, subject), nil
	case TransportRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis transport requires a client")
		}
		return NewRedisTransport(opts.Redis, subject), nil
	case TransportKafka:
		if len(opts.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka transport requires brokers")
		}
		return NewKafkaTransport(opts.KafkaBrokers, subject), nil
	default:
		return nil, fmt.Errorf("unsupported push transport %q", opts.Kind)
	}
}

func encode(envelope Envelope) ([]byte, error) {
	if strings.TrimSpace(envelope.Token) == "" {
		return nil, ErrEmptyToken
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push envelope: %w", err)
	}
	return data, nil
}

// LogTransport writes envelopes to the log. Used in development and by the
// one-shot sweeper when no broker is configured.
type LogTransport struct {
	logger zerolog.Logger
}

func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With().Str("component", "push_log").Logger()}
}

func (t *LogTransport) Name() string { return TransportLog }

func (t *LogTransport) Deliver(_ context.Context, envelope Envelope) error {
	if strings.TrimSpace(envelope.Token) == "" {
		return ErrEmptyToken
	}
	t.logger.Info().
		Str("envelope_id", envelope.ID).
		Str("title", envelope.Message.Title).
		Str("body", envelope.Message.Body).
		Interface("data", envelope.Message.Data).
		Msg("push message")
	return nil
}

// NATSTransport publishes envelopes on a NATS subject.
type NATSTransport struct {
	conn    *nats.Conn
	subject string
}

func NewNATSTransport(conn *nats.Conn, subject string) *NATSTransport {
	return &NATSTransport{conn: conn, subject: subject}
}

func (t *NATSTransport) Name() string { return TransportNATS }

func (t *NATSTransport) Deliver(_ context.Context, envelope Envelope) error {
	payload, err := encode(envelope)
	if err != nil {
		return err
	}
	return t.conn.Publish(t.subject, payload)
}

// RedisTransport publishes envelopes on a Redis pub/sub channel.
type RedisTransport struct {
	client  *redis.Client
	channel string
}

func NewRedisTransport(client *redis.Client, channel string) *RedisTransport {
	return &RedisTransport{client: client, channel: channel}
}

func (t *RedisTransport) Name() string { return TransportRedis }

func (t *RedisTransport) Deliver(ctx context.Context, envelope Envelope) error {
	payload, err := encode(envelope)
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, t.channel, payload).Err()
}

// KafkaTransport writes envelopes to a Kafka topic keyed by device token.
type KafkaTransport struct {
	writer *kafka.Writer
}

func NewKafkaTransport(brokers []string, topic string) *KafkaTransport {
	return &KafkaTransport{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

func (t *KafkaTransport) Name() string { return TransportKafka }

func (t *KafkaTransport) Deliver(ctx context.Context, envelope Envelope) error {
	payload, err := encode(envelope)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(envelope.Token),
		Value: payload,
		Time:  time.Now(),
	}
	if err := t.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write push envelope: %w", err)
	}
	return nil
}

// Close flushes the writer.
func (t *KafkaTransport) Close() error {
	return t.writer.Close()
}
