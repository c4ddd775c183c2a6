package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_admin/internal/domain"
)

func TestNewSelectsImplementation(t *testing.T) {
	_, isNoop := New(nil, "topic").(Noop)
	assert.True(t, isNoop)

	p := New([]string{"localhost:9092"}, "wallet.transactions")
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "wallet.transactions", kp.writer.Topic)
	assert.NoError(t, p.Close())
}

func TestTransactionEventJSON(t *testing.T) {
	tx := &domain.Transaction{
		ID:        "tx-9",
		AccountID: 3,
		Kind:      domain.KindWithdrawal,
		Amount:    decimal.RequireFromString("12.5"),
		Currency:  "eth",
		Status:    domain.StatusRejected,
	}
	ev := NewTransactionEvent(TransactionRejected, tx)
	assert.NotEmpty(t, ev.ID)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "transaction.rejected", decoded["type"])
	assert.Equal(t, "12.5", decoded["amount"])
	assert.Equal(t, "withdrawal", decoded["kind"])
}
