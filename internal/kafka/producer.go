package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Producer is a thin topic-agnostic publisher. Typed event producers wrap it.
// Safe for concurrent use: Publish runs on every request handler goroutine.
type Producer struct {
	Brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		Brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

func (p *Producer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: p.Brokers,
		Topic:   topic,
	})
	p.writers[topic] = w
	return w
}

// Publish writes a single keyed message to the topic.
func (p *Producer) Publish(topic string, key string, value []byte) error {
	err := p.writer(topic).WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: value,
		},
	)
	if err != nil {
		return fmt.Errorf("kafka publish to %s failed: %w", topic, err)
	}
	return nil
}

// Close shuts down all topic writers.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	if firstErr != nil {
		log.Printf("kafka producer close error: %v", firstErr)
	}
	return firstErr
}
