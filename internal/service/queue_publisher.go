package service

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    log "github.com/sirupsen/logrus"

    q "github.com/larslemos/ninho-do-amor-sub000/internal/queue"
)

// Publisher sends guest events to the broker.
type Publisher interface {
    Publish(ctx context.Context, event q.GuestEvent) error
}

// AMQPPublisher publishes GuestEvents to the durable activity queue.  It
// keeps one connection and channel open and re-dials lazily after the
// broker drops them.  Safe for concurrent use.
type AMQPPublisher struct {
    url string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for url.  No connection is made until
// the first Publish.
func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{url: url}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.ActivityQueue, // name
        true,            // durable
        false,           // autoDelete
        false,           // exclusive
        false,           // noWait
        nil,             // args
    ); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

// Publish sends event as a persistent JSON message.  Errors are returned
// so callers can log them; the connection is reset on failure.
func (p *AMQPPublisher) Publish(ctx context.Context, event q.GuestEvent) error {
    body, err := json.Marshal(event)
    if err != nil {
        return err
    }
    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         event.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",              // default exchange
        q.ActivityQueue, // routing key = queue name
        false,           // mandatory
        false,           // immediate
        pub,
    ); err != nil {
        p.reset()
        return err
    }
    return nil
}

// Close releases the connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, q.GuestEvent) error { return nil }

var errNoPublisher = errors.New("no publisher configured")

// publish sends an event after a commit.  Delivery is best effort: it is
// bounded by a short timeout, detached from request cancellation and only
// logged on failure.
func publish(ctx context.Context, p Publisher, ev q.GuestEvent) {
    if p == nil {
        log.WithError(errNoPublisher).WithField("event", ev.Type).Debug("event dropped")
        return
    }
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
    defer cancel()
    if err := p.Publish(pctx, ev); err != nil {
        log.WithError(err).WithFields(log.Fields{"event": ev.Type, "guest_id": ev.GuestID}).Warn("publish event failed")
    }
}
