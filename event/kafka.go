// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/z5labs/items"
	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/z5labs/items/event"

// DefaultTopic is used when ITEMS_KAFKA_TOPIC is not set.
const DefaultTopic = "items.events"

// Config configures the Kafka [Publisher].
type Config struct {
	// Brokers is the seed broker list. When unset events are discarded.
	Brokers config.Reader[[]string]

	// Topic defaults to [DefaultTopic].
	Topic config.Reader[string]

	// Partitions and ReplicationFactor are only used when the topic does
	// not exist yet. -1 lets the broker decide.
	Partitions        config.Reader[int32]
	ReplicationFactor config.Reader[int16]
}

// ConfigFromEnv reads a [Config] from ITEMS_KAFKA_BROKERS (comma
// separated), ITEMS_KAFKA_TOPIC, ITEMS_KAFKA_PARTITIONS and
// ITEMS_KAFKA_REPLICATION_FACTOR.
func ConfigFromEnv() Config {
	return Config{
		Brokers:           config.Split(",", config.Env("ITEMS_KAFKA_BROKERS")),
		Topic:             config.Env("ITEMS_KAFKA_TOPIC"),
		Partitions:        config.Int32FromString(config.Env("ITEMS_KAFKA_PARTITIONS")),
		ReplicationFactor: config.Int16FromString(config.Env("ITEMS_KAFKA_REPLICATION_FACTOR")),
	}
}

// Build returns a [Discard] publisher when no brokers are configured and
// a [KafkaPublisher] otherwise. The topic is created if it is missing.
func Build(cfg Config) app.Builder[Publisher] {
	return app.BuilderFunc[Publisher](func(ctx context.Context) (Publisher, error) {
		brokers, err := config.Read(ctx, cfg.Brokers)
		if errors.Is(err, config.ErrValueNotSet) {
			items.Logger(instrumentationName).InfoContext(ctx, "no kafka brokers configured, discarding events")
			return Discard{}, nil
		}
		if err != nil {
			return nil, err
		}

		partitions, err := readOr(ctx, -1, cfg.Partitions)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka partition count: %w", err)
		}

		replicationFactor, err := readOr(ctx, -1, cfg.ReplicationFactor)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka replication factor: %w", err)
		}

		pub, err := NewKafkaPublisher(
			ctx,
			brokers,
			config.MustOr(ctx, DefaultTopic, cfg.Topic),
			partitions,
			replicationFactor,
		)
		if err != nil {
			return nil, err
		}
		return pub, nil
	})
}

func readOr[T any](ctx context.Context, def T, r config.Reader[T]) (T, error) {
	v, err := config.Read(ctx, r)
	if errors.Is(err, config.ErrValueNotSet) {
		return def, nil
	}
	return v, err
}

// KafkaPublisher produces events as JSON records keyed by item id, so
// every change to one item lands on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger

	published metric.Int64Counter
}

// NewKafkaPublisher connects to brokers and ensures topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, partitions int32, replicationFactor int16) (*KafkaPublisher, error) {
	log := items.Logger(instrumentationName)

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.WithLogger(kslog.New(items.Logger("github.com/twmb/franz-go/pkg/kgo"))),
		kgo.WithHooks(
			kotel.NewTracer(
				kotel.TracerProvider(otel.GetTracerProvider()),
				kotel.TracerPropagator(otel.GetTextMapPropagator()),
				kotel.LinkSpans(),
			),
			kotel.NewMeter(
				kotel.MeterProvider(otel.GetMeterProvider()),
				kotel.WithMergedConnectsMeter(),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	err = ensureTopic(ctx, kadm.NewClient(client), topic, partitions, replicationFactor)
	if err != nil {
		client.Close()
		return nil, err
	}

	published, err := otel.GetMeterProvider().Meter(instrumentationName).Int64Counter(
		"items.events.published",
		metric.WithDescription("Total number of item events handed to Kafka"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		client.Close()
		return nil, err
	}

	log.InfoContext(ctx, "publishing item events to kafka", slog.String("topic", topic))

	return &KafkaPublisher{
		client:    client,
		topic:     topic,
		log:       log,
		published: published,
	}, nil
}

func ensureTopic(ctx context.Context, admin *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	for _, topicResp := range resp {
		if topicResp.Err == nil || errors.Is(topicResp.Err, kerr.TopicAlreadyExists) {
			continue
		}
		return fmt.Errorf("failed to create topic %s: %w", topicResp.Topic, topicResp.Err)
	}
	return nil
}

// Publish implements the [Publisher] interface. The record is produced
// asynchronously; delivery failures are logged and counted.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(e.ItemID, 10)),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}

	// the request context is cancelled as soon as the response is written
	produceCtx := context.WithoutCancel(ctx)
	p.client.Produce(produceCtx, record, func(r *kgo.Record, err error) {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			p.log.ErrorContext(
				produceCtx,
				"failed to publish item event",
				slog.String("event_id", e.ID.String()),
				slog.String("event_type", string(e.Type)),
				slog.Any("error", err),
			)
		}

		p.published.Add(produceCtx, 1, metric.WithAttributes(
			attribute.String("type", string(e.Type)),
			attribute.String("outcome", outcome),
		))
	})
	return nil
}

// Healthy implements the [Publisher] interface by pinging the cluster.
func (p *KafkaPublisher) Healthy(ctx context.Context) (bool, error) {
	err := p.client.Ping(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close implements the [Publisher] interface.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	defer p.client.Close()

	err := p.client.Flush(ctx)
	if err != nil {
		return fmt.Errorf("failed to flush item events: %w", err)
	}
	return nil
}
