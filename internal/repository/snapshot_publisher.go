package repository

import (
	"context"
	"errors"
	"fmt"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/domain/repository"
)

// Publisher is the slice of the Kafka producer the snapshot publisher needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSnapshotPublisher writes each sector snapshot to one topic, keyed by snapshot ID.
type KafkaSnapshotPublisher struct {
	producer Publisher
	topic    string
}

func NewKafkaSnapshotPublisher(p Publisher, topic string) repository.SnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: p, topic: topic}
}

func (k *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, s *models.SectorSnapshot) error {
	if s == nil {
		return errors.New("nil snapshot")
	}
	if err := k.producer.Publish(ctx, k.topic, []byte(s.ID), s); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", s.ID, err)
	}
	return nil
}

func (k *KafkaSnapshotPublisher) Close() error {
	return k.producer.Close()
}

// NopSnapshotPublisher is used when Kafka is disabled.
type NopSnapshotPublisher struct{}

func (NopSnapshotPublisher) PublishSnapshot(context.Context, *models.SectorSnapshot) error { return nil }
func (NopSnapshotPublisher) Close() error                                                  { return nil }
