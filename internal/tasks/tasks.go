// Package tasks holds background jobs processed by the asynq worker.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// TypeInvoiceDeliver renders an invoice and emails it to the recipient.
	TypeInvoiceDeliver = "invoice:deliver"
	// QueueDefault is the only queue the worker consumes.
	QueueDefault = "default"
)

// DeliverPayload identifies the invoice to deliver and where to send it.
type DeliverPayload struct {
	InvoiceID string `json:"invoice_id"`
	OwnerID   string `json:"owner_id"`
	To        string `json:"to"`
}

// NewDeliverTask encodes p as an asynq task.
func NewDeliverTask(p DeliverPayload, opts ...asynq.Option) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode deliver payload: %w", err)
	}
	return asynq.NewTask(TypeInvoiceDeliver, raw, opts...), nil
}

// NewServeMux routes task types to their handlers.
func NewServeMux(d *Deliverer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvoiceDeliver, d.HandleDeliver)
	return mux
}
