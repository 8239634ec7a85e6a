package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

const (
	ExchangeName = "portal.events"
	prefetch     = 10
)

// AMQP subscribes through a broker. The backend publishes each event on
// ExchangeName with the event name as routing key.
type AMQP struct {
	url    string
	logger ports.Logger
	now    func() time.Time
}

func NewAMQP(url string, logger ports.Logger) *AMQP {
	return &AMQP{url: url, logger: logger, now: time.Now}
}

func (a *AMQP) Subscribe(ctx context.Context, _ string, names []string) (ports.Subscription, error) {
	if len(names) == 0 {
		return nil, errors.New("live: amqp subscription needs at least one event name")
	}
	ctx, cancel := context.WithCancel(ctx)

	var conn *amqp.Connection
	err := dial(ctx, a.logger, "amqp", func() error {
		c, err := amqp.Dial(a.url)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("live: subscribe amqp: %w", err)
	}

	ch, deliveries, err := declare(conn, names)
	if err != nil {
		cancel()
		conn.Close()
		return nil, fmt.Errorf("live: subscribe amqp: %w", err)
	}

	st := newStream(cancel, func() error {
		ch.Close()
		return conn.Close()
	})
	go func() {
		defer st.finish()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					if ctx.Err() == nil {
						a.logger.Warn(ctx, "live stream ended", "transport", "amqp")
					}
					return
				}
				if !st.emit(ctx, deliveryEvent(d, a.now())) {
					return
				}
			}
		}
	}()
	return st, nil
}

// declare sets up a private queue bound to every requested event name.
func declare(conn *amqp.Connection, names []string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("channel: %w", err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("qos: %w", err)
	}
	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range bindings(names) {
		if err := ch.QueueBind(q.Name, key, ExchangeName, false, nil); err != nil {
			ch.Close()
			return nil, nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag (auto-generated)
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("consume: %w", err)
	}
	return ch, deliveries, nil
}

// bindings drops duplicates and blanks, keeping order.
func bindings(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func deliveryEvent(d amqp.Delivery, now time.Time) domain.Event {
	name := d.RoutingKey
	if d.Type != "" {
		name = d.Type
	}
	at := now
	if !d.Timestamp.IsZero() {
		at = d.Timestamp
	}
	return domain.Event{Name: name, Data: d.Body, ReceivedAt: at}
}
