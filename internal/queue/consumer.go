package queue

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery.  A non-nil error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, d amqp.Delivery) error

// StartConsumers runs one consumer per queue in the background until ctx is
// cancelled.  Each consumer reconnects with exponential backoff when the
// broker goes away, so the server keeps working while RabbitMQ is down.
func StartConsumers(ctx context.Context, url string, handlers map[string]Handler) {
    for queue, h := range handlers {
        go runConsumer(ctx, url, queue, h)
    }
}

func runConsumer(ctx context.Context, url, queue string, h Handler) {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("%s consumer: failed to dial broker: %v; retrying in %s", queue, err, backoff)
            if !sleep(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, queue, h)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        log.Printf("%s consumer: consume loop ended: %v; reconnecting", queue, err)
        if !sleep(ctx, 2*time.Second) {
            return
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, h Handler) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("%s consumer: set QoS failed: %v", queue, err)
    }
    if err := declare(ch, queue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := h(ctx, d); err != nil {
                log.Printf("%s consumer: handle message %s failed: %v", queue, d.MessageId, err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}
