package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wallet_admin/internal/domain"
)

// Status is the per-recipient delivery result.
type Status string

const (
	Delivered Status = "delivered"
	Simulated Status = "simulated"
	Failed    Status = "failed"
)

// Outcome records what happened to one email.
type Outcome struct {
	Recipient string `json:"email"`
	Status    Status `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Reason    string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"` // Set for simulated sends
}

// OK is true for delivered and simulated sends.
func (o Outcome) OK() bool { return o.Status != Failed }

// Envelope is a rendered email addressed to one recipient.
type Envelope struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport sends a single email. Implementations must honour ctx.
type Transport interface {
	Send(ctx context.Context, env Envelope) (messageID string, err error)
}

// State of the dispatcher's transport handle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateDisabled      State = "disabled"
	StateReady         State = "ready"
)

// Dispatcher renders templates and hands them to the configured transport.
// Without a transport every send is simulated.
type Dispatcher struct {
	renderer *Renderer
	from     string
	timeout  time.Duration
	log      logrus.FieldLogger

	mu        sync.RWMutex
	transport Transport
	state     State
}

// NewDispatcher creates a dispatcher in the uninitialized state. timeout
// bounds every Send; zero means no extra bound beyond the transport's own.
func NewDispatcher(renderer *Renderer, from string, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		from:     from,
		timeout:  timeout,
		log:      log,
		state:    StateUninitialized,
	}
}

// Init installs t as the transport. A nil t puts the dispatcher in the
// permanent disabled state. Calling Init again replaces the handle.
func (d *Dispatcher) Init(t Transport) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.transport = t
	if t == nil {
		d.state = StateDisabled
		d.log.Warn("No email service configured. Set SMTP_USER and SMTP_PASS for emails.")
	} else {
		d.state = StateReady
		d.log.Info("Email transport configured")
	}
	return d.state
}

// State reports the transport lifecycle state.
func (d *Dispatcher) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Render exposes the template renderer.
func (d *Dispatcher) Render(kind Kind, p Payload) (Message, error) {
	return d.renderer.Render(kind, p)
}

// Send renders kind for recipient and delivers it. It never returns an error:
// every failure is reported as a Failed outcome.
func (d *Dispatcher) Send(ctx context.Context, recipient string, kind Kind, p Payload) Outcome {
	out := Outcome{Recipient: recipient}
	fields := logrus.Fields{"template": kind.String(), "to": recipient}

	msg, err := d.renderer.Render(kind, p)
	if err != nil {
		out.Status, out.Reason = Failed, err.Error()
		d.log.WithFields(fields).WithError(err).Error("Email rendering failed")
		return out
	}

	d.mu.RLock()
	t := d.transport
	d.mu.RUnlock()

	if t == nil {
		out.Status = Simulated
		out.Message = "Email service not configured, message logged instead of sent"
		d.log.WithFields(fields).WithField("subject", msg.Subject).Info("[Email Simulated]")
		return out
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	id, err := t.Send(ctx, Envelope{From: d.from, To: recipient, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		out.Status, out.Reason = Failed, deliveryError(err).Error()
		d.log.WithFields(fields).WithError(err).Error("Email sending failed")
		return out
	}
	out.Status, out.MessageID = Delivered, id
	d.log.WithFields(fields).WithField("message_id", id).Info("Email sent")
	return out
}

func deliveryError(err error) error {
	if errors.Is(err, domain.ErrDeliveryFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
}
