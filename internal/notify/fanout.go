package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"wallet_admin/internal/domain"
	"wallet_admin/internal/repository"
)

// Sender is the part of Dispatcher the fan-out depends on.
type Sender interface {
	Send(ctx context.Context, recipient string, kind Kind, p Payload) Outcome
}

// Report is the batch result of a fan-out. Success is true when recipients
// were resolved; individual delivery failures live in Outcomes.
type Report struct {
	Template string    `json:"template"`
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Outcomes []Outcome `json:"results,omitempty"`
}

// Failed counts outcomes with status Failed.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// AdminNotifier delivers one notification to every administrator.
type AdminNotifier struct {
	accounts    repository.AccountDirectory
	sender      Sender
	log         logrus.FieldLogger
	concurrency int
}

// NewAdminNotifier builds a fan-out over the admins found in accounts.
func NewAdminNotifier(accounts repository.AccountDirectory, sender Sender, log logrus.FieldLogger) *AdminNotifier {
	return &AdminNotifier{accounts: accounts, sender: sender, log: log, concurrency: 4}
}

// Recipients returns the email address of every admin account.
// An empty result is reported as domain.ErrNoAdminsConfigured.
func (n *AdminNotifier) Recipients(ctx context.Context) ([]string, error) {
	admins, err := n.accounts.Find(ctx, repository.AccountQuery{Role: domain.RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("get admin emails: %w", err)
	}
	emails := make([]string, 0, len(admins))
	for _, a := range admins {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	if len(emails) == 0 {
		return nil, domain.ErrNoAdminsConfigured
	}
	return emails, nil
}

// NotifyAdmins sends kind to every admin. A failing recipient never stops the
// others; the report carries one outcome per recipient in resolution order.
func (n *AdminNotifier) NotifyAdmins(ctx context.Context, kind Kind, p Payload) Report {
	report := Report{Template: kind.String()}

	recipients, err := n.Recipients(ctx)
	if err != nil {
		report.Error = err.Error()
		n.log.WithField("template", kind.String()).WithError(err).Warn("Admin notification skipped")
		return report
	}

	report.Success = true
	report.Outcomes = make([]Outcome, len(recipients))

	sem := make(chan struct{}, n.concurrency)
	var wg sync.WaitGroup
	for i, to := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, to string) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Outcomes[i] = n.send(ctx, to, kind, p)
		}(i, to)
	}
	wg.Wait()

	n.log.WithFields(logrus.Fields{
		"template":   kind.String(),
		"recipients": len(recipients),
		"failed":     report.Failed(),
	}).Info("Admin notification dispatched")
	return report
}

// send isolates a panicking sender to its own outcome.
func (n *AdminNotifier) send(ctx context.Context, to string, kind Kind, p Payload) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Recipient: to, Status: Failed, Reason: fmt.Sprintf("%v: %v", domain.ErrDeliveryFailed, r)}
		}
	}()
	return n.sender.Send(ctx, to, kind, p)
}
