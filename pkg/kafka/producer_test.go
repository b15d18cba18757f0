package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"a": 1})
	if err != nil || string(b) != `{"a":1}` {
		t.Fatalf("unexpected encoding %s err=%v", b, err)
	}
	b, _ = encodeValue("raw")
	if string(b) != "raw" {
		t.Fatalf("strings pass through, got %s", b)
	}
	if _, err := encodeValue(func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestParseCompression(t *testing.T) {
	if parseCompression("zstd") != kafka.Zstd || parseCompression("unknown") != kafka.Gzip {
		t.Fatalf("unexpected compression mapping")
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithHashByKey(true))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer")
	}
	_ = p.Close()
}

func TestGroupedOptionsKeepDefaultsForZeroValues(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithDelivery(0, 0, ""),
		WithBatching(10, 0, 0),
		WithTimeouts(0, time.Second),
		WithAutoCreateTopics(true),
	)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()
	w := p.writer
	if w.RequiredAcks != kafka.RequireAll || w.MaxAttempts != 3 {
		t.Fatalf("delivery defaults lost: acks=%v attempts=%d", w.RequiredAcks, w.MaxAttempts)
	}
	if w.BatchSize != 10 || w.BatchBytes != 1048576 || w.BatchTimeout != 200*time.Millisecond {
		t.Fatalf("unexpected batching %d %d %v", w.BatchSize, w.BatchBytes, w.BatchTimeout)
	}
	if w.WriteTimeout != 10*time.Second || w.ReadTimeout != time.Second {
		t.Fatalf("unexpected timeouts %v %v", w.WriteTimeout, w.ReadTimeout)
	}
	if !w.AllowAutoTopicCreation {
		t.Fatalf("auto topic creation not applied")
	}
}
