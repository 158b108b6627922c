package events

import (
	"time"

	"github.com/google/uuid"
)

type QuoteRequestPayload struct {
	QuoteRequestID uuid.UUID   `json:"quoteRequestId"`
	QuoteNumber    string      `json:"quoteNumber"`
	CustomerID     uuid.UUID   `json:"customerId"`
	BroadcastToAll bool        `json:"broadcastToAll"`
	Recipients     []uuid.UUID `json:"recipients,omitempty"`
	RequiredBy     time.Time   `json:"requiredBy"`
	Reason         string      `json:"reason,omitempty"`
}

type QuoteResponsePayload struct {
	QuoteResponseID uuid.UUID `json:"quoteResponseId"`
	ResponseNumber  string    `json:"responseNumber"`
	QuoteRequestID  uuid.UUID `json:"quoteRequestId"`
	SupplierID      uuid.UUID `json:"supplierId"`
	TotalAmount     float64   `json:"totalAmount"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
}

type OrderPayload struct {
	OrderID        uuid.UUID  `json:"orderId"`
	OrderNumber    string     `json:"orderNumber"`
	CustomerID     uuid.UUID  `json:"customerId"`
	SupplierID     uuid.UUID  `json:"supplierId"`
	TotalAmount    float64    `json:"totalAmount"`
	OrderStatus    string     `json:"orderStatus"`
	QuoteReference *uuid.UUID `json:"quoteReference,omitempty"`
}

// ExpirySweepPayload reports a batch of requests closed by the deadline sweep
type ExpirySweepPayload struct {
	Expired int64     `json:"expired"`
	SweptAt time.Time `json:"sweptAt"`
}
