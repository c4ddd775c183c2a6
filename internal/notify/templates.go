// Package notify renders admin email templates, sends them through a mail
// transport and fans a notification out to every administrator.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"wallet_admin/internal/domain"
)

// Kind is the closed set of email templates.
type Kind int

const (
	DepositRequest Kind = iota + 1
	WithdrawalRequest
	DepositConfirmed
	WithdrawalProcessed
	LinkedWalletAdded
	TransactionRejected
)

var kindNames = map[Kind]string{
	DepositRequest:      "depositRequest",
	WithdrawalRequest:   "withdrawalRequest",
	DepositConfirmed:    "depositConfirmed",
	WithdrawalProcessed: "withdrawalProcessed",
	LinkedWalletAdded:   "linkedWalletAdded",
	TransactionRejected: "transactionRejected",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a template identifier to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnknownTemplate, name)
}

// UserView is the account part of every payload.
type UserView struct {
	ID        uint   `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// TransactionView is the transaction part of a payload.
type TransactionView struct {
	Amount         string         `json:"amount"`
	Cryptocurrency string         `json:"cryptocurrency"`
	TransactionID  string         `json:"transactionId"`
	CreatedAt      time.Time      `json:"createdAt"`
	ToAddress      string         `json:"toAddress,omitempty"`
	TxHash         string         `json:"txHash,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// LinkedWalletView is the linked wallet part of a payload.
type LinkedWalletView struct {
	WalletName string    `json:"walletName"`
	WalletType string    `json:"walletType,omitempty"`
	IsActive   bool      `json:"isActive"`
	LinkedAt   time.Time `json:"linkedAt"`
	Phrase     string    `json:"phrase"`
}

// Payload is the data a template renders against.
type Payload struct {
	User         UserView          `json:"user"`
	Transaction  *TransactionView  `json:"transaction,omitempty"`
	LinkedWallet *LinkedWalletView `json:"linkedWallet,omitempty"`
}

// NewUserView projects an account into a payload user.
func NewUserView(a *domain.Account) UserView {
	return UserView{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email}
}

// NewTransactionView projects a transaction into a payload transaction.
func NewTransactionView(tx *domain.Transaction) *TransactionView {
	return &TransactionView{
		Amount:         tx.Amount.String(),
		Cryptocurrency: tx.Currency,
		TransactionID:  tx.ID,
		CreatedAt:      tx.CreatedAt,
		ToAddress:      tx.ToAddress,
		TxHash:         tx.TxHash,
		Metadata:       tx.Metadata,
	}
}

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
}

// Renderer turns a Kind and payload into a Message. It performs no I/O.
type Renderer struct {
	adminURL string
	now      func() time.Time
}

// NewRenderer builds a Renderer whose links point at adminURL.
func NewRenderer(adminURL string) *Renderer {
	return &Renderer{adminURL: strings.TrimRight(adminURL, "/"), now: time.Now}
}

// Render produces the subject and body for kind.
func (r *Renderer) Render(kind Kind, p Payload) (Message, error) {
	var (
		subject string
		tmpl    *template.Template
	)
	switch kind {
	case DepositRequest, WithdrawalRequest, DepositConfirmed, WithdrawalProcessed, TransactionRejected:
		if p.Transaction == nil {
			return Message{}, fmt.Errorf("%s: payload has no transaction", kind)
		}
		subject = transactionSubject(kind, p.Transaction)
		tmpl = transactionTmpl
	case LinkedWalletAdded:
		if p.LinkedWallet == nil {
			return Message{}, fmt.Errorf("%s: payload has no linked wallet", kind)
		}
		subject = "🔗 New Wallet Linked - " + p.LinkedWallet.WalletName
		tmpl = linkedWalletTmpl
	default:
		return Message{}, fmt.Errorf("%w: %s", domain.ErrUnknownTemplate, kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.view(kind, p)); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Message{Subject: subject, HTML: buf.String()}, nil
}

func transactionSubject(kind Kind, tx *TransactionView) string {
	amount := "$" + tx.Amount + " " + tx.Cryptocurrency
	switch kind {
	case DepositRequest:
		return "💰 New Deposit Request - " + amount
	case WithdrawalRequest:
		return "💸 New Withdrawal Request - " + amount
	case DepositConfirmed:
		return "✅ Deposit Confirmed - " + amount
	case WithdrawalProcessed:
		return "✅ Withdrawal Processed - " + amount
	default:
		return "❌ Transaction Rejected - " + amount
	}
}

// view is the template data, with per-kind wording resolved up front.
type view struct {
	Payload
	Heading    string
	Intro      string
	Notice     string
	ActionURL  string
	ActionText string
	Currency   string
	StampLabel string
	Stamp      string
	NewBalance string
	ShowNewBal bool
	Footer     string
}

func (r *Renderer) view(kind Kind, p Payload) view {
	v := view{Payload: p, Footer: "Do not reply to this email."}
	now := r.now().Format(time.RFC1123)
	if tx := p.Transaction; tx != nil {
		v.Currency = strings.ToUpper(tx.Cryptocurrency)
		v.StampLabel, v.Stamp = "Time", tx.CreatedAt.Format(time.RFC1123)
		v.NewBalance = "N/A"
		if nb, ok := tx.Metadata[domain.MetaNewBalance]; ok {
			v.NewBalance = fmt.Sprint(nb)
		}
	}
	switch kind {
	case DepositRequest:
		v.Heading, v.Intro = "New Deposit Request", "A user has requested a new deposit:"
		v.Notice = "Please review and confirm this deposit in the admin dashboard."
		v.ActionURL, v.ActionText = r.adminURL+"/transactions/deposits/pending", "Review Pending Deposits"
	case WithdrawalRequest:
		v.Heading, v.Intro = "New Withdrawal Request", "A user has requested a withdrawal:"
		v.Notice = "Action Required: Balance has been deducted. Approve to send funds or reject to refund balance."
		v.ActionURL, v.ActionText = r.adminURL+"/transactions/withdrawals/pending", "Review Pending Withdrawals"
	case DepositConfirmed:
		v.Heading, v.Intro = "Deposit Confirmed", "You have confirmed a deposit:"
		v.StampLabel, v.Stamp, v.ShowNewBal = "Confirmed At", now, true
	case WithdrawalProcessed:
		v.Heading, v.Intro = "Withdrawal Processed", "You have processed a withdrawal:"
		v.StampLabel, v.Stamp, v.ShowNewBal = "Processed At", now, true
	case TransactionRejected:
		v.Heading, v.Intro = "Transaction Rejected", "A transaction has been rejected:"
		v.StampLabel, v.Stamp, v.ShowNewBal = "Rejected At", now, true
	case LinkedWalletAdded:
		v.Heading, v.Intro = "New Wallet Linked", "A user has linked a new external wallet:"
		v.ActionURL, v.ActionText = r.adminURL+"/wallets/linked", "View Linked Wallets"
		v.Footer = "Store recovery phrases securely. Do not share this email."
		if p.LinkedWallet != nil {
			v.StampLabel, v.Stamp = "Linked At", p.LinkedWallet.LinkedAt.Format(time.RFC1123)
		}
	}
	return v
}

const layoutHead = `<!DOCTYPE html>
<html><head><style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.details { background: white; padding: 15px; border-left: 4px solid #4CAF50; margin: 15px 0; }
.footer { margin-top: 20px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #777; }
</style></head>
<body><div class="container">
<h1>QFS Wallet System</h1><h2>{{.Heading}}</h2>
<p>Hello Admin,</p><p>{{.Intro}}</p>`

const layoutFoot = `{{if .Notice}}<p><strong>{{.Notice}}</strong></p>{{end}}
{{if .ActionURL}}<a href="{{.ActionURL}}">{{.ActionText}}</a>{{end}}
<div class="footer"><p>This is an automated notification from QFS Wallet System.</p><p>{{.Footer}}</p></div>
</div></body></html>`

var transactionTmpl = template.Must(template.New("transaction").Parse(layoutHead + `
<div class="details">
<h3>Transaction Details:</h3>
<p><strong>User:</strong> {{.User.FirstName}} {{.User.LastName}} ({{.User.Email}})</p>
<p><strong>Amount:</strong> ${{.Transaction.Amount}} {{.Currency}}</p>
{{if .Transaction.ToAddress}}<p><strong>To Address:</strong> {{.Transaction.ToAddress}}</p>{{end}}
<p><strong>Transaction ID:</strong> {{.Transaction.TransactionID}}</p>
<p><strong>{{.StampLabel}}:</strong> {{.Stamp}}</p>
{{if .Transaction.TxHash}}<p><strong>Transaction Hash:</strong> {{.Transaction.TxHash}}</p>{{end}}
{{if .ShowNewBal}}<p><strong>New Balance:</strong> ${{.NewBalance}}</p>{{end}}
</div>` + layoutFoot))

var linkedWalletTmpl = template.Must(template.New("linkedWallet").Parse(layoutHead + `
<div class="details">
<h3>User Details:</h3>
<p><strong>Name:</strong> {{.User.FirstName}} {{.User.LastName}}</p>
<p><strong>Email:</strong> {{.User.Email}}</p>
<p><strong>User ID:</strong> {{.User.ID}}</p>
<p><strong>{{.StampLabel}}:</strong> {{.Stamp}}</p>
<h3>Wallet Details:</h3>
<p><strong>Wallet Name:</strong> {{.LinkedWallet.WalletName}}</p>
<p><strong>Wallet Type:</strong> {{if .LinkedWallet.WalletType}}{{.LinkedWallet.WalletType}}{{else}}Not specified{{end}}</p>
<p><strong>Status:</strong> {{if .LinkedWallet.IsActive}}Active{{else}}Inactive{{end}}</p>
<h4>Recovery Phrase:</h4>
<pre>{{.LinkedWallet.Phrase}}</pre>
</div>` + layoutFoot))
