package amqp

import (
	"encoding/json"
	"time"

	"caixa/internal/core"
	"caixa/internal/report"
)

// Events carried by SummaryMessage.
const (
	EventTransactionAdded   = "transaction_added"
	EventTransactionDeleted = "transaction_deleted"
	EventDebtorUpdated      = "debtor_updated"
	EventSaleRecorded       = "sale_recorded"
)

// SummaryMessage is published after every committed ledger change. It
// carries the headline aggregates so consumers never need the full state.
type SummaryMessage struct {
	Event            string     `json:"event"`
	Balance          core.Money `json:"balance"`
	TotalReceivable  core.Money `json:"totalReceivable"`
	EstimatedProfit  core.Money `json:"estimatedProfit"`
	TransactionCount int        `json:"transactionCount"`
	Timestamp        time.Time  `json:"timestamp"`
}

// NewSummaryMessage builds the message for event from a dashboard summary.
func NewSummaryMessage(event string, s report.Summary) *SummaryMessage {
	return &SummaryMessage{
		Event:            event,
		Balance:          s.Balance,
		TotalReceivable:  s.TotalReceivable,
		EstimatedProfit:  s.EstimatedProfit,
		TransactionCount: s.TransactionCount,
		Timestamp:        time.Now(),
	}
}

func (m *SummaryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SummaryMessageFromJSON(data []byte) (*SummaryMessage, error) {
	var msg SummaryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
