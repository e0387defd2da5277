// Package queue contains the background consumer that listens to the
// guest.activity queue and writes one line per event to
// logs/guest-activity.log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    log "github.com/sirupsen/logrus"
)

// ActivityLogFile is the file name written under the log directory.
const ActivityLogFile = "guest-activity.log"

// StartActivityConsumer connects to RabbitMQ, declares the activity queue
// (durable), and consumes messages until ctx is cancelled.  Each message is
// appended to <logDir>/guest-activity.log.  Broker failures trigger a
// reconnect with exponential backoff; malformed messages are rejected
// without requeue so the consumer never spins on them.
func StartActivityConsumer(ctx context.Context, url, logDir string) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).WithField("retry_in", backoff.String()).Warn("activity-consumer: failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logDir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("activity-consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("activity-consumer: set QoS failed")
    }

    if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.ConsumeWithContext(ctx, ActivityQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := HandleMessage(d.Body, logDir); err != nil {
            log.WithError(err).Error("activity-consumer: handle message failed")
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends its log line.
func HandleMessage(body []byte, logDir string) error {
    var ev GuestEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.GuestID == "" {
        return errors.New("event without type or guest id")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, ActivityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as a single human-friendly log line.
func FormatLine(ev GuestEvent) string {
    line := fmt.Sprintf("[%s] %s | guest_id=%s | guest=%q", ev.OccurredAt, describe(ev.Type), ev.GuestID, ev.GuestName)
    if ev.Status != "" {
        line += " | status=" + ev.Status
    }
    line += fmt.Sprintf(" | companions=%d", ev.Companions)
    if ev.TableID != "" {
        line += fmt.Sprintf(" | table_id=%s | table=%q", ev.TableID, ev.TableName)
    }
    if ev.Method != "" {
        line += " | method=" + ev.Method
    }
    return line + "\n"
}

func describe(typ string) string {
    switch typ {
    case EventInvitationSent:
        return "Invitation sent"
    case EventRSVPUpdated:
        return "RSVP updated"
    case EventGuestSeated:
        return "Guest seated"
    case EventGuestUnseated:
        return "Guest unseated"
    }
    return typ
}
