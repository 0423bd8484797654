package kafka

import (
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every request handler goroutine publishes through the same Producer, so the
// first use of a topic can happen on many goroutines at once.
func TestWriterSharedAcrossGoroutines(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	defer p.Close()

	const workers = 8
	got := make([]*kafka.Writer, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = p.writer("gym.booking.events")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, got[0], got[i], "all goroutines must share one writer per topic")
	}
}

func TestWriterPerTopic(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	defer p.Close()

	a := p.writer("gym.booking.events")
	b := p.writer("gym.session.events")
	require.NotSame(t, a, b)
	assert.Same(t, a, p.writer("gym.booking.events"))
}

func TestCloseDropsWriters(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	p.writer("gym.booking.events")
	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}
