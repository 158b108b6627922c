package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

// DeliveryLocationDTO is the delivery address of a quote request or order
type DeliveryLocationDTO struct {
	Address    string   `json:"address"`
	City       string   `json:"city,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type QuoteRequestItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	Position    int        `json:"position"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	Description string     `json:"description,omitempty"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
}

type QuoteRequestDTO struct {
	ID                 uuid.UUID             `json:"id"`
	QuoteNumber        string                `json:"quoteNumber"`
	CustomerID         uuid.UUID             `json:"customerId"`
	Items              []QuoteRequestItemDTO `json:"items"`
	DeliveryLocation   DeliveryLocationDTO   `json:"deliveryLocation"`
	RequiredBy         string                `json:"requiredBy"` // ISO 8601
	AdditionalNotes    string                `json:"additionalNotes,omitempty"`
	TargetSuppliers    []uuid.UUID           `json:"targetSuppliers"`
	BroadcastToAll     bool                  `json:"broadcastToAll"`
	Status             QuoteRequestStatus    `json:"status"`
	ResponseCount      int                   `json:"responseCount"`
	AcceptedResponseID *uuid.UUID            `json:"acceptedResponseId,omitempty"`
	AcceptedAt         *string               `json:"acceptedAt,omitempty"`
	CancelledAt        *string               `json:"cancelledAt,omitempty"`
	CancellationReason string                `json:"cancellationReason,omitempty"`
	CreatedAt          string                `json:"createdAt"`
	UpdatedAt          string                `json:"updatedAt"`
}

// SupplierQuoteRequestDTO is a quote request as seen in a supplier's actionable listing
type SupplierQuoteRequestDTO struct {
	QuoteRequestDTO
	HasResponded bool `json:"hasResponded"`
}

// QuoteRequestDetailDTO is a customer's view of a request with every response, cheapest first
type QuoteRequestDetailDTO struct {
	QuoteRequestDTO
	Responses []QuoteResponseDTO `json:"responses"`
}

type QuoteResponseItemDTO struct {
	ID         uuid.UUID  `json:"id"`
	Position   int        `json:"position"`
	ProductID  *uuid.UUID `json:"productId,omitempty"`
	Name       string     `json:"name"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	UnitPrice  float64    `json:"unitPrice"`
	TotalPrice float64    `json:"totalPrice"`
}

type QuoteResponseDTO struct {
	ID                    uuid.UUID              `json:"id"`
	ResponseNumber        string                 `json:"responseNumber"`
	QuoteRequestID        uuid.UUID              `json:"quoteRequestId"`
	QuoteNumber           string                 `json:"quoteNumber,omitempty"`
	SupplierID            uuid.UUID              `json:"supplierId"`
	Items                 []QuoteResponseItemDTO `json:"items"`
	TotalAmount           float64                `json:"totalAmount"`
	DeliveryCharges       float64                `json:"deliveryCharges"`
	EstimatedDeliveryDays int                    `json:"estimatedDeliveryDays"`
	ValidUntil            string                 `json:"validUntil"`
	Terms                 string                 `json:"terms,omitempty"`
	PaymentTerms          PaymentTerms           `json:"paymentTerms"`
	Status                QuoteResponseStatus    `json:"status"`
	IsExpired             bool                   `json:"isExpired"`
	AcceptedAt            *string                `json:"acceptedAt,omitempty"`
	RejectedAt            *string                `json:"rejectedAt,omitempty"`
	RejectionReason       string                 `json:"rejectionReason,omitempty"`
	WithdrawnAt           *string                `json:"withdrawnAt,omitempty"`
	WithdrawalReason      string                 `json:"withdrawalReason,omitempty"`
	CreatedAt             string                 `json:"createdAt"`
	UpdatedAt             string                 `json:"updatedAt"`
}

// OrderSummaryDTO is the lightweight order view returned from an acceptance
type OrderSummaryDTO struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	TotalAmount float64     `json:"totalAmount"`
	OrderStatus OrderStatus `json:"orderStatus"`
}

// AcceptQuoteResultDTO is returned when a customer accepts a quote response
type AcceptQuoteResultDTO struct {
	QuoteRequest  QuoteRequestDTO  `json:"quoteRequest"`
	QuoteResponse QuoteResponseDTO `json:"quoteResponse"`
	Order         OrderSummaryDTO  `json:"order"`
}

type ProductSnapshotDTO struct {
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Unit       string    `json:"unit"`
	SupplierID uuid.UUID `json:"supplierId"`
}

type OrderItemDTO struct {
	ID              uuid.UUID          `json:"id"`
	ProductID       *uuid.UUID         `json:"productId,omitempty"`
	Quantity        float64            `json:"quantity"`
	Total           float64            `json:"total"`
	ProductSnapshot ProductSnapshotDTO `json:"productSnapshot"`
}

type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"orderNumber"`
	CustomerID       uuid.UUID           `json:"customerId"`
	SupplierID       uuid.UUID           `json:"supplierId"`
	Items            []OrderItemDTO      `json:"items"`
	Subtotal         float64             `json:"subtotal"`
	DeliveryFee      float64             `json:"deliveryFee"`
	Tax              float64             `json:"tax"`
	TotalAmount      float64             `json:"totalAmount"`
	DeliveryLocation DeliveryLocationDTO `json:"deliveryLocation"`
	DeliverySlot     string              `json:"deliverySlot"`
	PaymentMethod    PaymentMethod       `json:"paymentMethod"`
	PaymentStatus    PaymentStatus       `json:"paymentStatus"`
	OrderStatus      OrderStatus         `json:"orderStatus"`
	QuoteReference   *uuid.UUID          `json:"quoteReference,omitempty"`
	IsFromQuote      bool                `json:"isFromQuote"`
	CustomerNotes    string              `json:"customerNotes,omitempty"`
	SupplierNotes    string              `json:"supplierNotes,omitempty"`
	CancelledAt      *string             `json:"cancelledAt,omitempty"`
	DeliveredAt      *string             `json:"deliveredAt,omitempty"`
	CreatedAt        string              `json:"createdAt"`
	UpdatedAt        string              `json:"updatedAt"`
}

type NotificationDTO struct {
	ID              uuid.UUID            `json:"id"`
	Type            NotificationType     `json:"type"`
	Event           string               `json:"event"`
	Title           string               `json:"title"`
	Message         string               `json:"message"`
	QuoteRequestID  *uuid.UUID           `json:"quoteRequestId,omitempty"`
	QuoteResponseID *uuid.UUID           `json:"quoteResponseId,omitempty"`
	OrderID         *uuid.UUID           `json:"orderId,omitempty"`
	ActionURL       string               `json:"actionUrl,omitempty"`
	Icon            string               `json:"icon,omitempty"`
	Color           string               `json:"color,omitempty"`
	Priority        NotificationPriority `json:"priority"`
	Read            bool                 `json:"read"`
	ReadAt          *string              `json:"readAt,omitempty"`
	ExpiresAt       *string              `json:"expiresAt,omitempty"`
	CreatedAt       string               `json:"createdAt"` // ISO 8601
}

// UnreadCountDTO represents the count of unread notifications
type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

// AuthUserDTO describes the authenticated caller
type AuthUserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CompanyName string    `json:"companyName,omitempty"`
	Role        UserRole  `json:"role"`
	IsActive    bool      `json:"isActive"`
	// Registered is false when the token is valid but no account row exists yet
	Registered bool `json:"registered"`
}

// Pagination describes the page returned alongside a list
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for a result set
func NewPagination(page, limit int, total int64) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// APIResponse is the envelope for every response body
type APIResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Code       string            `json:"code,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Request DTOs

type DeliveryLocationInput struct {
	Address    string   `json:"address" validate:"max=500"`
	City       string   `json:"city,omitempty" validate:"max=100"`
	PostalCode string   `json:"postalCode,omitempty" validate:"max=20"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

type QuoteRequestItemInput struct {
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Quantity    float64    `json:"quantity" validate:"gt=0"`
	Unit        string     `json:"unit" validate:"required,max=30"`
}

// CreateQuoteRequestRequest is the body of POST /api/quotes/request
type CreateQuoteRequestRequest struct {
	Items            []QuoteRequestItemInput `json:"items" validate:"dive"`
	DeliveryLocation DeliveryLocationInput   `json:"deliveryLocation"`
	RequiredBy       time.Time               `json:"requiredBy"`
	AdditionalNotes  string                  `json:"additionalNotes,omitempty" validate:"max=2000"`
	TargetSuppliers  []uuid.UUID             `json:"targetSuppliers,omitempty"`
	BroadcastToAll   bool                    `json:"broadcastToAll"`
}

type QuoteResponseItemInput struct {
	ProductID  *uuid.UUID `json:"productId,omitempty"`
	Name       string     `json:"name" validate:"required,max=200"`
	Quantity   float64    `json:"quantity" validate:"gt=0"`
	Unit       string     `json:"unit" validate:"required,max=30"`
	UnitPrice  float64    `json:"unitPrice" validate:"gte=0"`
	TotalPrice float64    `json:"totalPrice,omitempty" validate:"gte=0"`
}

// SubmitQuoteResponseRequest is the body of POST /api/quotes/response
type SubmitQuoteResponseRequest struct {
	QuoteRequestID        uuid.UUID                `json:"quoteRequestId" validate:"required"`
	Items                 []QuoteResponseItemInput `json:"items" validate:"dive"`
	TotalAmount           float64                  `json:"totalAmount" validate:"gt=0"`
	DeliveryCharges       float64                  `json:"deliveryCharges" validate:"gte=0"`
	EstimatedDeliveryDays int                      `json:"estimatedDeliveryDays" validate:"gte=0,lte=365"`
	ValidUntil            time.Time                `json:"validUntil"`
	Terms                 string                   `json:"terms,omitempty" validate:"max=2000"`
	PaymentTerms          PaymentTerms             `json:"paymentTerms" validate:"required,oneof=cod advance partial_advance credit"`
}

// ReasonRequest carries the free-text reason for a cancellation or withdrawal
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateOrderStatusRequest struct {
	Status        OrderStatus `json:"status" validate:"required,oneof=processing shipped delivered refunded"`
	SupplierNotes string      `json:"supplierNotes,omitempty" validate:"max=2000"`
}

// Filter types

// QuoteRequestFilters narrows a quote request listing
type QuoteRequestFilters struct {
	Status *QuoteRequestStatus
}

// QuoteResponseFilters narrows a quote response listing
type QuoteResponseFilters struct {
	Status *QuoteResponseStatus
}

// OrderFilters narrows an order listing
type OrderFilters struct {
	Status *OrderStatus
}

// NotificationFilters narrows a notification inbox listing
type NotificationFilters struct {
	UnreadOnly bool
	Type       *NotificationType
}
