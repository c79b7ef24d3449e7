package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/mail"
)

// LowStockHandler mails low stock notices.  When Redis is available each
// message id is claimed with SETNX before sending so a redelivered message
// is not mailed twice; the claim is released if sending fails.
type LowStockHandler struct {
    Mailer   mail.Mailer
    Redis    *redis.Client // optional
    DedupTTL time.Duration
}

func (h *LowStockHandler) dedupKey(d amqp.Delivery, ev LowStockEvent) string {
    id := d.MessageId
    if id == "" {
        id = strings.Join([]string{ev.RecipientEmail, ev.EventID, ev.TierID}, "|")
    }
    return "notify:lowstock:" + id
}

// Handle implements Handler.
func (h *LowStockHandler) Handle(ctx context.Context, d amqp.Delivery) error {
    var ev LowStockEvent
    if err := json.Unmarshal(d.Body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.RecipientEmail == "" {
        return errors.New("missing recipient_email")
    }

    key := h.dedupKey(d, ev)
    claimed := false
    if h.Redis != nil {
        ok, err := h.Redis.SetNX(ctx, key, 1, h.DedupTTL).Result()
        switch {
        case err != nil:
            log.Printf("lowstock-consumer: dedup check failed, sending anyway: %v", err)
        case !ok:
            log.Printf("lowstock-consumer: message %s already handled", d.MessageId)
            return nil
        default:
            claimed = true
        }
    }

    subject, text, html, err := mail.RenderLowStock(ev.Notice())
    if err == nil {
        err = h.Mailer.Send(ctx, ev.RecipientEmail, subject, text, html)
    }
    if err != nil {
        if claimed {
            if derr := h.Redis.Del(ctx, key).Err(); derr != nil {
                log.Printf("lowstock-consumer: release dedup key failed: %v", derr)
            }
        }
        return err
    }
    return nil
}

// OrderLogHandler appends one line per closed order to Dir/orders.log.
type OrderLogHandler struct {
    Dir string
}

// Handle implements Handler.
func (h *OrderLogHandler) Handle(_ context.Context, d amqp.Delivery) error {
    var ev OrderClosedEvent
    if err := json.Unmarshal(d.Body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    dir := h.Dir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "orders.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    tickets := make([]string, 0, len(ev.Tickets))
    for _, t := range ev.Tickets {
        tickets = append(tickets, fmt.Sprintf("%s x%d %d %s", t.TierID, t.TicketsToBuy, t.FinalPrice, t.Currency))
    }
    line := fmt.Sprintf("[%s] Order closed | order_id=%s | user_id=%s | total=%d | tickets=[%s]\n",
        ev.ClosedAt, ev.OrderID, ev.UserID, ev.FinalPrice, strings.Join(tickets, ","))
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
