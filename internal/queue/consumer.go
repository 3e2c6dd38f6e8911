package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditFile is the file, under the audit directory, that receives one
// line per consumed event.
const AuditFile = "payments.log"

// StartAuditConsumer connects to RabbitMQ, declares both event queues and
// appends every delivery to dir/payments.log. It reconnects with backoff
// until ctx is cancelled, then returns ctx.Err(). A message that cannot
// be handled is rejected without requeue so it cannot loop.
func StartAuditConsumer(ctx context.Context, url, dir string, logger *slog.Logger) error {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "audit-consumer")

	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("failed to dial broker", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, dir, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", "error", err)
	}

	payments, err := declareAndConsume(ch, PaymentCompletedQueue)
	if err != nil {
		return err
	}
	closes, err := declareAndConsume(ch, BillClosedQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-payments:
		case d, ok = <-closes:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := HandleMessage(dir, d.RoutingKey, d.Body); err != nil {
			log.Error("handle message failed", "queue", d.RoutingKey, "error", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

func declareAndConsume(ch *amqp.Channel, name string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", name, err)
	}
	msgs, err := ch.Consume(name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", name, err)
	}
	return msgs, nil
}

// HandleMessage formats one event body from queueName and appends it to
// dir/payments.log.
func HandleMessage(dir, queueName string, body []byte) error {
	line, err := FormatAuditLine(queueName, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders an event as a single human-readable line.
func FormatAuditLine(queueName string, body []byte) (string, error) {
	switch queueName {
	case PaymentCompletedQueue:
		var ev PaymentCompletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queueName, err)
		}
		payer := ev.CustomerName
		if payer == "" {
			payer = "guest"
		}
		ids := make([]string, 0, len(ev.ItemIDs))
		for _, id := range ev.ItemIDs {
			ids = append(ids, fmt.Sprint(id))
		}
		return fmt.Sprintf("[%s] Payment completed | txn=%s | bill=%s | table=%d | payer=%q | method=%s | amount=%s | items=[%s] | bill_status=%s\n",
			ev.PaidAt, ev.TransactionID, ev.BillNumber, ev.TableNumber, payer, ev.Method,
			ev.Amount.Format(), strings.Join(ids, ","), ev.BillStatus), nil
	case BillClosedQueue:
		var ev BillClosedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queueName, err)
		}
		return fmt.Sprintf("[%s] Bill closed | bill=%s | table=%d | total=%s\n",
			ev.ClosedAt, ev.BillNumber, ev.TableNumber, ev.TotalAmount.Format()), nil
	}
	return "", fmt.Errorf("unknown queue %q", queueName)
}
