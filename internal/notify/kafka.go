package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier publishes events to a Kafka topic through a buffered inbox
// drained by a single background goroutine. Messages are hash-balanced by
// entity id so events for one entity stay in one partition, in order.
type KafkaNotifier struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	done    chan struct{}
	drained chan struct{}
	once    sync.Once
	logger  *zap.Logger
	onError func()
}

// KafkaOptions configures a KafkaNotifier.
type KafkaOptions struct {
	Brokers []string
	Topic   string
	Buffer  int

	// OnError is invoked once per failed delivery, after logging. Optional;
	// used to feed the notification-failure metric.
	OnError func()
}

// NewKafkaNotifier creates a KafkaNotifier and starts its drain goroutine.
func NewKafkaNotifier(opts KafkaOptions, logger *zap.Logger) *KafkaNotifier {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	n := &KafkaNotifier{
		w: &kafka.Writer{
			Addr:         kafka.TCP(opts.Brokers...),
			Topic:        opts.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, opts.Buffer),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
		logger:  logger,
		onError: opts.OnError,
	}
	go n.drain()
	return n
}

// Publish enqueues the event without blocking on delivery. A full inbox
// counts as a delivery failure so a slow broker cannot stall transitions,
// and so does publishing after Close.
func (n *KafkaNotifier) Publish(_ context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
		Time:  event.OccurredAt,
	}

	select {
	case <-n.done:
		n.deliveryFailed(event.EventID, fmt.Errorf("notifier closed"))
		return nil
	default:
	}

	select {
	case n.inbox <- msg:
		return nil
	default:
		n.deliveryFailed(event.EventID, fmt.Errorf("notifier inbox full"))
		return nil
	}
}

func (n *KafkaNotifier) drain() {
	defer close(n.drained)
	for {
		select {
		case msg := <-n.inbox:
			n.write(msg)
		case <-n.done:
			// Flush whatever was buffered before Close.
			for {
				select {
				case msg := <-n.inbox:
					n.write(msg)
				default:
					_ = n.w.Close()
					return
				}
			}
		}
	}
}

func (n *KafkaNotifier) write(msg kafka.Message) {
	if err := n.w.WriteMessages(context.Background(), msg); err != nil {
		n.deliveryFailed(string(msg.Key), err)
	}
}

func (n *KafkaNotifier) deliveryFailed(ref string, err error) {
	n.logger.Warn("notification delivery failed",
		zap.String("ref", ref),
		zap.Error(err),
	)
	if n.onError != nil {
		n.onError()
	}
}

// Close stops accepting events, flushes the remaining inbox, and waits for
// the drain goroutine to exit. Close is idempotent, and a late Publish after
// Close drops the event instead of panicking.
func (n *KafkaNotifier) Close() {
	n.once.Do(func() { close(n.done) })
	<-n.drained
}
