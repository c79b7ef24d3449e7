package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// Publisher sends persistent JSON messages to durable queues.  It dials
// per batch, so it holds no connection between checkouts; publishing is
// rare compared to cart traffic.
type Publisher struct {
    url string
}

// NewPublisher returns a publisher for the broker at url.  It does not dial.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Ping dials the broker once to check that it is reachable.
func (p *Publisher) Ping() error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return err
    }
    return conn.Close()
}

// Notify publishes one message per notice to the low stock queue.
func (p *Publisher) Notify(ctx context.Context, notices []model.LowStockNotice) error {
    now := time.Now().UTC().Format(time.RFC3339)
    bodies := make([]interface{}, 0, len(notices))
    for _, n := range notices {
        bodies = append(bodies, LowStockEvent{
            RecipientEmail:   n.RecipientEmail,
            EventID:          n.EventID,
            TierID:           n.TierID,
            TicketsAvailable: n.TicketsAvailable,
            DetectedAt:       now,
        })
    }
    return p.publish(ctx, LowStockQueue, bodies...)
}

// PublishOrderClosed publishes an OrderClosedEvent for the order.
func (p *Publisher) PublishOrderClosed(ctx context.Context, order model.Order) error {
    return p.publish(ctx, OrderClosedQueue, NewOrderClosedEvent(order))
}

func (p *Publisher) publish(ctx context.Context, queue string, bodies ...interface{}) error {
    if len(bodies) == 0 {
        return nil
    }
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if err := declare(ch, queue); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    for _, v := range bodies {
        body, err := json.Marshal(v)
        if err != nil {
            log.Printf("rabbitmq: marshal %s message failed: %v", queue, err)
            return err
        }
        pub := amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            MessageId:    uuid.NewString(),
            Timestamp:    time.Now().UTC(),
            Body:         body,
        }
        if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
            log.Printf("rabbitmq: publish to %s failed: %v", queue, err)
            return err
        }
    }
    return nil
}

func declare(ch *amqp.Channel, queue string) error {
    _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    )
    return err
}

// LogPublisher stands in for Publisher when no broker is reachable.  It
// only logs what would have been published.
type LogPublisher struct{}

func (LogPublisher) Notify(_ context.Context, notices []model.LowStockNotice) error {
    for _, n := range notices {
        log.Printf("lowstock: (no broker) notify %s: event=%s tier=%s left=%d",
            n.RecipientEmail, n.EventID, n.TierID, n.TicketsAvailable)
    }
    return nil
}

func (LogPublisher) PublishOrderClosed(_ context.Context, order model.Order) error {
    log.Printf("orders: (no broker) order %s closed, total=%d", order.ID, order.FinalPrice)
    return nil
}
