package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_admin/internal/domain"
	"wallet_admin/internal/repository"
)

type fakeTransport struct {
	mu    sync.Mutex
	fail  map[string]error
	delay time.Duration
	sent  []Envelope
}

func (f *fakeTransport) Send(ctx context.Context, env Envelope) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[env.To]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, env)
	return "id-" + env.To, nil
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func depositPayload() Payload {
	tx := &domain.Transaction{
		ID:        "tx-1",
		Amount:    decimal.NewFromInt(20),
		Currency:  "btc",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		TxHash:    "0xabc",
	}
	return Payload{
		User:        UserView{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Transaction: NewTransactionView(tx),
	}
}

func TestRenderTransactionTemplates(t *testing.T) {
	r := NewRenderer("https://console.example.com/admin/")

	msg, err := r.Render(DepositRequest, depositPayload())
	require.NoError(t, err)
	assert.Equal(t, "💰 New Deposit Request - $20 btc", msg.Subject)
	assert.Contains(t, msg.HTML, "Ada Lovelace (ada@example.com)")
	assert.Contains(t, msg.HTML, "BTC")
	assert.Contains(t, msg.HTML, "0xabc")
	assert.Contains(t, msg.HTML, "https://console.example.com/admin/transactions/deposits/pending")

	p := depositPayload()
	p.Transaction.Metadata = map[string]any{domain.MetaNewBalance: "170"}
	msg, err = r.Render(DepositConfirmed, p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.Subject, "✅ Deposit Confirmed"))
	assert.Contains(t, msg.HTML, "$170")

	msg, err = r.Render(WithdrawalProcessed, depositPayload())
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "N/A")
}

func TestRenderLinkedWallet(t *testing.T) {
	r := NewRenderer("http://localhost:3000/admin")
	msg, err := r.Render(LinkedWalletAdded, Payload{
		User:         UserView{ID: 7, FirstName: "Ada", Email: "ada@example.com"},
		LinkedWallet: &LinkedWalletView{WalletName: "Ledger", IsActive: true, Phrase: "alpha <beta>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "🔗 New Wallet Linked - Ledger", msg.Subject)
	assert.Contains(t, msg.HTML, "Not specified")
	assert.Contains(t, msg.HTML, "alpha &lt;beta&gt;")
}

func TestRenderUnknownAndMismatchedPayload(t *testing.T) {
	r := NewRenderer("")
	_, err := r.Render(Kind(99), depositPayload())
	assert.ErrorIs(t, err, domain.ErrUnknownTemplate)

	_, err = r.Render(LinkedWalletAdded, depositPayload())
	assert.Error(t, err)

	_, err = ParseKind("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownTemplate)

	k, err := ParseKind("withdrawalRequest")
	require.NoError(t, err)
	assert.Equal(t, WithdrawalRequest, k)
}

func TestDispatcherDisabledSimulates(t *testing.T) {
	d := NewDispatcher(NewRenderer(""), "noreply@example.com", time.Second, quietLogger())
	assert.Equal(t, StateUninitialized, d.State())
	assert.Equal(t, StateDisabled, d.Init(nil))

	out := d.Send(context.Background(), "admin@example.com", DepositRequest, depositPayload())
	assert.Equal(t, Simulated, out.Status)
	assert.True(t, out.OK())
	assert.Empty(t, out.Reason)
	assert.NotEmpty(t, out.Message)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"error"`)
	assert.Contains(t, string(raw), `"status":"simulated"`)
}

func TestDispatcherDeliversAndFails(t *testing.T) {
	ft := &fakeTransport{fail: map[string]error{"bad@example.com": errors.New("550 mailbox unavailable")}}
	d := NewDispatcher(NewRenderer(""), "noreply@example.com", time.Second, quietLogger())
	assert.Equal(t, StateReady, d.Init(ft))

	ok := d.Send(context.Background(), "good@example.com", DepositRequest, depositPayload())
	assert.Equal(t, Delivered, ok.Status)
	assert.Equal(t, "id-good@example.com", ok.MessageID)
	require.Len(t, ft.sent, 1)
	assert.Equal(t, "noreply@example.com", ft.sent[0].From)

	bad := d.Send(context.Background(), "bad@example.com", DepositRequest, depositPayload())
	assert.Equal(t, Failed, bad.Status)
	assert.Contains(t, bad.Reason, "550 mailbox unavailable")

	unknown := d.Send(context.Background(), "good@example.com", Kind(42), depositPayload())
	assert.Equal(t, Failed, unknown.Status)
}

func TestDispatcherBoundsSlowTransport(t *testing.T) {
	d := NewDispatcher(NewRenderer(""), "noreply@example.com", 20*time.Millisecond, quietLogger())
	d.Init(&fakeTransport{delay: 5 * time.Second})

	start := time.Now()
	out := d.Send(context.Background(), "slow@example.com", DepositRequest, depositPayload())
	assert.Equal(t, Failed, out.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ft := &fakeTransport{fail: map[string]error{"x@example.com": errors.New("connection refused")}}
	b := NewBreakerTransport(ft, 2, time.Minute, quietLogger())
	env := Envelope{To: "x@example.com"}

	for i := 0; i < 2; i++ {
		_, err := b.Send(context.Background(), env)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTransportUnavailable)
	}
	_, err := b.Send(context.Background(), env)
	assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
}

func seedAdmins(t *testing.T, store *repository.Memory, emails ...string) {
	t.Helper()
	for _, e := range emails {
		require.NoError(t, store.Create(context.Background(), &domain.Account{Email: e, Role: domain.RoleAdmin, IsActive: true}))
	}
}

func TestNotifyAdminsNoAdmins(t *testing.T) {
	store := repository.NewMemory()
	require.NoError(t, store.Create(context.Background(), &domain.Account{Email: "user@example.com", Role: domain.RoleUser}))
	d := NewDispatcher(NewRenderer(""), "noreply@example.com", time.Second, quietLogger())
	d.Init(nil)

	report := NewAdminNotifier(store, d, quietLogger()).NotifyAdmins(context.Background(), DepositRequest, depositPayload())
	assert.False(t, report.Success)
	assert.Equal(t, domain.ErrNoAdminsConfigured.Error(), report.Error)
	assert.Empty(t, report.Outcomes)
}

func TestNotifyAdminsPartialFailure(t *testing.T) {
	store := repository.NewMemory()
	seedAdmins(t, store, "a1@example.com", "a2@example.com", "a3@example.com")
	ft := &fakeTransport{fail: map[string]error{"a2@example.com": errors.New("timeout")}}
	d := NewDispatcher(NewRenderer(""), "noreply@example.com", time.Second, quietLogger())
	d.Init(ft)

	report := NewAdminNotifier(store, d, quietLogger()).NotifyAdmins(context.Background(), WithdrawalRequest, depositPayload())
	assert.True(t, report.Success)
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, 1, report.Failed())

	byRecipient := map[string]Status{}
	for _, o := range report.Outcomes {
		byRecipient[o.Recipient] = o.Status
	}
	assert.Equal(t, Failed, byRecipient["a2@example.com"])
	assert.Equal(t, Delivered, byRecipient["a1@example.com"])
	assert.Equal(t, Delivered, byRecipient["a3@example.com"])
}

type panicSender struct{}

func (panicSender) Send(context.Context, string, Kind, Payload) Outcome { panic("boom") }

func TestNotifyAdminsContainsPanics(t *testing.T) {
	store := repository.NewMemory()
	seedAdmins(t, store, "a1@example.com")

	report := NewAdminNotifier(store, panicSender{}, quietLogger()).NotifyAdmins(context.Background(), DepositRequest, depositPayload())
	assert.True(t, report.Success)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, Failed, report.Outcomes[0].Status)
}
