package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaReader is the subset of *kafka.Reader the consumer needs.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig describes one consumer group subscription.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// MinBytes and MaxBytes bound fetch batch sizes; zero uses 10KB and 10MB.
	MinBytes int
	MaxBytes int
}

// KafkaConsumer reads a topic into a channel and commits offsets manually.
type KafkaConsumer struct {
	reader      KafkaReader
	doneChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	messageChan chan kafka.Message
	backoff     time.Duration
}

func newConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
		backoff:     time.Second,
	}
}

// NewKafkaConsumer creates a consumer for cfg. Auto-commit is disabled.
func NewKafkaConsumer(cfg ConsumerConfig) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafkaclient: brokers and topic are required")
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 10e3
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		CommitInterval: 0,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
	})
	return newConsumer(reader), nil
}

func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	log.Printf("Committing offset for topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the message loop in a separate goroutine. The
// message channel is closed when the loop ends.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		log.Println("Starting Kafka consumer loop...")

		for {
			select {
			case <-ctx.Done():
				log.Println("Context canceled, stopping consumer loop.")
				return
			case <-kc.doneChan:
				log.Println("Shutdown signal received, stopping consumer loop.")
				return
			default:
			}

			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Println("Kafka reader closed, stopping consumer loop.")
					return
				}
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error reading message: %v", err)
				select {
				case <-time.After(kc.backoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messageChan <- msg:
				log.Printf("Message received: topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)
			case <-ctx.Done():
				log.Println("Context canceled, stopping consumer before sending message.")
				return
			case <-kc.doneChan:
				log.Println("Shutdown signal received, stopping consumer before sending message.")
				return
			}
		}
	}()
}

// Stop shuts the consumer down and closes the reader. It is safe to call
// more than once.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		log.Println("Attempting to stop Kafka consumer...")
		close(kc.doneChan)
		kc.wg.Wait()
		if err := kc.reader.Close(); err != nil {
			log.Printf("Failed to close Kafka reader: %v", err)
		}
		log.Println("Kafka consumer stopped gracefully.")
	})
}
