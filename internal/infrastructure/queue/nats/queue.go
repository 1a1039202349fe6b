package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/resilience"
)

const (
	defaultQueueGroup = "packhealth-workers"
	drainFlushTimeout = 5 * time.Second
)

type Queue struct {
	conn         *nats.Conn
	subject      string
	eventSubject string
	queueGroup   string
	executor     *resilience.Executor
}

// rescoreRequest is the wire payload on the rescore subject.
type rescoreRequest struct {
	ProfileID   string    `json:"profile_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	EventSubject         string
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	queueGroup := options.QueueGroup
	if queueGroup == "" {
		queueGroup = defaultQueueGroup
	}

	conn, err := nats.Connect(
		url,
		nats.Name("proofpack-health"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:         conn,
		subject:      subject,
		eventSubject: options.EventSubject,
		queueGroup:   queueGroup,
		executor:     options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishRescoreRequested(ctx context.Context, profileID string) error {
	payload, err := json.Marshal(rescoreRequest{ProfileID: profileID, RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode rescore request: %w", err)
	}
	return q.publish(ctx, "nats.publish.rescore", q.subject, payload)
}

// PublishEligibilityChanged is a no-op when no event subject is configured.
func (q *Queue) PublishEligibilityChanged(ctx context.Context, event domain.EligibilityChanged) error {
	if q.eventSubject == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode eligibility event: %w", err)
	}
	return q.publish(ctx, "nats.publish.eligibility", q.eventSubject, payload)
}

func (q *Queue) publish(ctx context.Context, operation, subject string, payload []byte) error {
	err := q.executor.Execute(ctx, operation, func(context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

func (q *Queue) SubscribeRescoreRequested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		profileID, err := decodeRescoreRequest(msg.Data)
		if err != nil {
			slog.Warn("rescore_request_invalid", "subject", msg.Subject, "error", err.Error())
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, profileID); err != nil {
			slog.Error("rescore_failed", "profile_id", profileID, "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(drainFlushTimeout); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// decodeRescoreRequest accepts the JSON payload and, for manual publishing
// with the nats CLI, a bare profile id.
func decodeRescoreRequest(data []byte) (string, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", errors.New("empty rescore payload")
	}
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}
	var req rescoreRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return "", fmt.Errorf("decode rescore payload: %w", err)
	}
	if strings.TrimSpace(req.ProfileID) == "" {
		return "", errors.New("rescore payload has no profile_id")
	}
	return req.ProfileID, nil
}
