package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/wneessen/go-mail"

	"wallet_admin/internal/config"
	"wallet_admin/internal/domain"
)

// SMTPTransport delivers mail over SMTP with bounded connection, greeting and
// socket timeouts.
type SMTPTransport struct {
	client   *mail.Client
	deadline time.Duration
}

// NewSMTPTransport builds a transport from cfg. It performs no network I/O.
func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.ConnectionTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPTransport{
		client: client,
		// dial + greeting + one socket window for the whole session
		deadline: cfg.ConnectionTimeout + cfg.GreetingTimeout + cfg.SocketTimeout,
	}, nil
}

func (s *SMTPTransport) Send(ctx context.Context, env Envelope) (string, error) {
	m := mail.NewMsg()
	if err := m.From(env.From); err != nil {
		return "", fmt.Errorf("from address: %w", err)
	}
	if err := m.To(env.To); err != nil {
		return "", fmt.Errorf("to address: %w", err)
	}
	id := uuid.NewString() + "@wallet-admin"
	m.SetMessageIDWithValue(id)
	m.Subject(env.Subject)
	m.SetBodyString(mail.TypeTextHTML, env.HTML)

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return "", err
	}
	return id, nil
}

// BreakerTransport fails fast while the wrapped transport keeps failing.
type BreakerTransport struct {
	next    Transport
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerTransport wraps next with a circuit breaker that opens after
// consecutiveFailures failed sends and retries after cooldown.
func NewBreakerTransport(next Transport, consecutiveFailures uint32, cooldown time.Duration, log logrus.FieldLogger) *BreakerTransport {
	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("Mail transport circuit breaker changed state")
		},
	}
	return &BreakerTransport{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerTransport) Send(ctx context.Context, env Envelope) (string, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Send(ctx, env)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err)
		}
		return "", err
	}
	return res.(string), nil
}

// SetupTransport performs the one-time transport initialization: it returns
// nil when credentials are absent, which callers pass to Dispatcher.Init to
// enter the disabled state.
func SetupTransport(cfg config.MailConfig, log logrus.FieldLogger) Transport {
	if !cfg.Enabled() {
		return nil
	}
	smtp, err := NewSMTPTransport(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to configure SMTP transport, emails will be simulated")
		return nil
	}
	return NewBreakerTransport(smtp, 3, 30*time.Second, log)
}
