package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a new UUID when none has been set
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole represents the marketplace role of an account
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleSupplier UserRole = "supplier"
	RoleAdmin    UserRole = "admin"
)

// IsValid checks if the role is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// User is a marketplace account. Accounts are provisioned by the external
// identity service; this API only reads them.
type User struct {
	BaseModel
	Email       string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName string   `gorm:"type:varchar(200);not null;column:name"`
	CompanyName string   `gorm:"type:varchar(200);column:company_name"`
	Phone       string   `gorm:"type:varchar(50)"`
	Role        UserRole `gorm:"type:varchar(20);not null;index"`
	IsActive    bool     `gorm:"not null;default:true;column:is_active"`
}

// Product is the catalog entry referenced by quote and order lines.
// Only stock is mutated by this service.
type Product struct {
	BaseModel
	Name       string    `gorm:"type:varchar(200);not null"`
	SKU        string    `gorm:"type:varchar(100);uniqueIndex;column:sku"`
	Unit       string    `gorm:"type:varchar(30);not null"`
	Price      float64   `gorm:"type:decimal(15,2);not null;default:0"`
	Stock      float64   `gorm:"type:decimal(15,3);not null;default:0"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index;column:supplier_id"`
}

// QuoteRequestStatus represents the lifecycle state of a quote request
type QuoteRequestStatus string

const (
	QuoteRequestStatusPending   QuoteRequestStatus = "pending"
	QuoteRequestStatusQuoted    QuoteRequestStatus = "quoted"
	QuoteRequestStatusAccepted  QuoteRequestStatus = "accepted"
	QuoteRequestStatusCancelled QuoteRequestStatus = "cancelled"
	QuoteRequestStatusExpired   QuoteRequestStatus = "expired"
)

// IsValid checks if the status is a known quote request status
func (s QuoteRequestStatus) IsValid() bool {
	switch s {
	case QuoteRequestStatusPending, QuoteRequestStatusQuoted, QuoteRequestStatusAccepted,
		QuoteRequestStatusCancelled, QuoteRequestStatusExpired:
		return true
	}
	return false
}

// IsOpen reports whether suppliers may still respond and the customer may still act
func (s QuoteRequestStatus) IsOpen() bool {
	return s == QuoteRequestStatusPending || s == QuoteRequestStatusQuoted
}

// OpenQuoteRequestStatuses are the statuses in which a request is actionable
var OpenQuoteRequestStatuses = []QuoteRequestStatus{QuoteRequestStatusPending, QuoteRequestStatusQuoted}

// QuoteRequest is a customer's solicitation for pricing on a list of items
type QuoteRequest struct {
	BaseModel
	QuoteNumber        string               `gorm:"type:varchar(50);not null;uniqueIndex;column:quote_number"`
	CustomerID         uuid.UUID            `gorm:"type:uuid;not null;index;column:customer_id"`
	Items              []QuoteRequestItem   `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`
	DeliveryAddress    string               `gorm:"type:varchar(500);not null;column:delivery_address"`
	DeliveryCity       string               `gorm:"type:varchar(100);column:delivery_city"`
	DeliveryPostalCode string               `gorm:"type:varchar(20);column:delivery_postal_code"`
	DeliveryLatitude   *float64             `gorm:"column:delivery_latitude"`
	DeliveryLongitude  *float64             `gorm:"column:delivery_longitude"`
	RequiredBy         time.Time            `gorm:"not null;index;column:required_by"`
	AdditionalNotes    string               `gorm:"type:text;column:additional_notes"`
	BroadcastToAll     bool                 `gorm:"not null;default:false;index;column:broadcast_to_all"`
	Targets            []QuoteRequestTarget `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`
	Status             QuoteRequestStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	ResponseCount      int                  `gorm:"not null;default:0;column:response_count"`
	AcceptedResponseID *uuid.UUID           `gorm:"type:uuid;column:accepted_response_id"`
	AcceptedAt         *time.Time           `gorm:"column:accepted_at"`
	CancelledAt        *time.Time           `gorm:"column:cancelled_at"`
	CancellationReason string               `gorm:"type:varchar(500);column:cancellation_reason"`
	ExpiredAt          *time.Time           `gorm:"column:expired_at"`
}

// TargetSupplierIDs returns the explicitly targeted supplier ids
func (q *QuoteRequest) TargetSupplierIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(q.Targets))
	for i, t := range q.Targets {
		ids[i] = t.SupplierID
	}
	return ids
}

// IsVisibleTo reports whether the supplier was targeted or the request was broadcast
func (q *QuoteRequest) IsVisibleTo(supplierID uuid.UUID) bool {
	if q.BroadcastToAll {
		return true
	}
	for _, t := range q.Targets {
		if t.SupplierID == supplierID {
			return true
		}
	}
	return false
}

// IsPastDeadline reports whether requiredBy has elapsed at the given instant
func (q *QuoteRequest) IsPastDeadline(now time.Time) bool {
	return !q.RequiredBy.After(now)
}

// QuoteRequestItem is one requested line; either a product reference or an ad-hoc description
type QuoteRequestItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	QuoteRequestID uuid.UUID  `gorm:"type:uuid;not null;index;column:quote_request_id"`
	Position       int        `gorm:"not null;default:0"`
	ProductID      *uuid.UUID `gorm:"type:uuid;column:product_id"`
	Description    string     `gorm:"type:varchar(500)"`
	Quantity       float64    `gorm:"type:decimal(15,3);not null"`
	Unit           string     `gorm:"type:varchar(30);not null"`
}

// BeforeCreate assigns a new UUID when none has been set
func (i *QuoteRequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// QuoteRequestTarget links a quote request to an explicitly targeted supplier
type QuoteRequestTarget struct {
	QuoteRequestID uuid.UUID `gorm:"type:uuid;primaryKey;column:quote_request_id"`
	SupplierID     uuid.UUID `gorm:"type:uuid;primaryKey;index;column:supplier_id"`
}

// QuoteResponseStatus represents the lifecycle state of a supplier's quote
type QuoteResponseStatus string

const (
	QuoteResponseStatusPending   QuoteResponseStatus = "pending"
	QuoteResponseStatusAccepted  QuoteResponseStatus = "accepted"
	QuoteResponseStatusRejected  QuoteResponseStatus = "rejected"
	QuoteResponseStatusWithdrawn QuoteResponseStatus = "withdrawn"
)

// IsValid checks if the status is a known quote response status
func (s QuoteResponseStatus) IsValid() bool {
	switch s {
	case QuoteResponseStatusPending, QuoteResponseStatusAccepted,
		QuoteResponseStatusRejected, QuoteResponseStatusWithdrawn:
		return true
	}
	return false
}

// PaymentTerms are the settlement terms offered by a supplier
type PaymentTerms string

const (
	PaymentTermsCOD     PaymentTerms = "cod"
	PaymentTermsAdvance PaymentTerms = "advance"
	PaymentTermsPartial PaymentTerms = "partial_advance"
	PaymentTermsCredit  PaymentTerms = "credit"
)

// RejectionReasonSiblingAccepted is recorded on every sibling response rejected by an acceptance
const RejectionReasonSiblingAccepted = "customer accepted another quote"

// QuoteResponse is a supplier's priced offer against a quote request
type QuoteResponse struct {
	BaseModel
	ResponseNumber        string              `gorm:"type:varchar(50);not null;uniqueIndex;column:response_number"`
	QuoteRequestID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_quote_responses_request_supplier;column:quote_request_id"`
	QuoteRequest          *QuoteRequest       `gorm:"foreignKey:QuoteRequestID"`
	SupplierID            uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_quote_responses_request_supplier;index;column:supplier_id"`
	Items                 []QuoteResponseItem `gorm:"foreignKey:QuoteResponseID;constraint:OnDelete:CASCADE"`
	TotalAmount           float64             `gorm:"type:decimal(15,2);not null;column:total_amount"`
	DeliveryCharges       float64             `gorm:"type:decimal(15,2);not null;default:0;column:delivery_charges"`
	EstimatedDeliveryDays int                 `gorm:"not null;default:0;column:estimated_delivery_days"`
	ValidUntil            time.Time           `gorm:"not null;column:valid_until"`
	Terms                 string              `gorm:"type:text"`
	PaymentTerms          PaymentTerms        `gorm:"type:varchar(30);not null;column:payment_terms"`
	Status                QuoteResponseStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	AcceptedAt            *time.Time          `gorm:"column:accepted_at"`
	RejectedAt            *time.Time          `gorm:"column:rejected_at"`
	RejectionReason       string              `gorm:"type:varchar(500);column:rejection_reason"`
	WithdrawnAt           *time.Time          `gorm:"column:withdrawn_at"`
	WithdrawalReason      string              `gorm:"type:varchar(500);column:withdrawal_reason"`
}

// IsExpired reports whether validUntil has elapsed at the given instant
func (r *QuoteResponse) IsExpired(now time.Time) bool {
	return !r.ValidUntil.After(now)
}

// QuoteResponseItem is a priced line mirroring one requested line
type QuoteResponseItem struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	QuoteResponseID uuid.UUID  `gorm:"type:uuid;not null;index;column:quote_response_id"`
	Position        int        `gorm:"not null;default:0"`
	ProductID       *uuid.UUID `gorm:"type:uuid;column:product_id"`
	Name            string     `gorm:"type:varchar(200);not null"`
	Quantity        float64    `gorm:"type:decimal(15,3);not null"`
	Unit            string     `gorm:"type:varchar(30);not null"`
	UnitPrice       float64    `gorm:"type:decimal(15,2);not null;column:unit_price"`
	TotalPrice      float64    `gorm:"type:decimal(15,2);not null;column:total_price"`
}

// BeforeCreate assigns a new UUID when none has been set
func (i *QuoteResponseItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid checks if the status is a known order status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how an order is settled
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodAdvance        PaymentMethod = "advance_payment"
)

// PaymentStatus is the settlement state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is an immutable snapshot of an accepted quote (or a direct checkout)
type Order struct {
	BaseModel
	OrderNumber       string        `gorm:"type:varchar(50);not null;uniqueIndex;column:order_number"`
	CustomerID        uuid.UUID     `gorm:"type:uuid;not null;index;column:customer_id"`
	SupplierID        uuid.UUID     `gorm:"type:uuid;not null;index;column:supplier_id"`
	Items             []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	Subtotal          float64       `gorm:"type:decimal(15,2);not null"`
	DeliveryFee       float64       `gorm:"type:decimal(15,2);not null;default:0;column:delivery_fee"`
	Tax               float64       `gorm:"type:decimal(15,2);not null;default:0"`
	TotalAmount       float64       `gorm:"type:decimal(15,2);not null;column:total_amount"`
	DeliveryAddress   string        `gorm:"type:varchar(500);not null;column:delivery_address"`
	DeliveryCity      string        `gorm:"type:varchar(100);column:delivery_city"`
	DeliveryLatitude  *float64      `gorm:"column:delivery_latitude"`
	DeliveryLongitude *float64      `gorm:"column:delivery_longitude"`
	DeliverySlot      time.Time     `gorm:"not null;column:delivery_slot"`
	PaymentMethod     PaymentMethod `gorm:"type:varchar(30);not null;column:payment_method"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';column:payment_status"`
	OrderStatus       OrderStatus   `gorm:"type:varchar(20);not null;default:'pending';index;column:order_status"`
	QuoteReference    *uuid.UUID    `gorm:"type:uuid;uniqueIndex;column:quote_reference"`
	IsFromQuote       bool          `gorm:"not null;default:false;column:is_from_quote"`
	CustomerNotes     string        `gorm:"type:text;column:customer_notes"`
	SupplierNotes     string        `gorm:"type:text;column:supplier_notes"`
	CancelledAt       *time.Time    `gorm:"column:cancelled_at"`
	CancellationNote  string        `gorm:"type:varchar(500);column:cancellation_note"`
	DeliveredAt       *time.Time    `gorm:"column:delivered_at"`
}

// ProductSnapshot freezes catalog data at the time an order was placed
type ProductSnapshot struct {
	Name       string    `gorm:"type:varchar(200);not null"`
	Price      float64   `gorm:"type:decimal(15,2);not null"`
	Unit       string    `gorm:"type:varchar(30);not null"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index;column:order_id"`
	Position  int             `gorm:"not null;default:0"`
	ProductID *uuid.UUID      `gorm:"type:uuid;column:product_id"`
	Quantity  float64         `gorm:"type:decimal(15,3);not null"`
	Total     float64         `gorm:"type:decimal(15,2);not null"`
	Snapshot  ProductSnapshot `gorm:"embedded;embeddedPrefix:snapshot_"`
}

// BeforeCreate assigns a new UUID when none has been set
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// NotificationType represents the category of a notification
type NotificationType string

const (
	NotificationTypeOrder    NotificationType = "order"
	NotificationTypeQuote    NotificationType = "quote"
	NotificationTypePayment  NotificationType = "payment"
	NotificationTypeDelivery NotificationType = "delivery"
	NotificationTypeReview   NotificationType = "review"
	NotificationTypeSystem   NotificationType = "system"
)

// IsValid checks if the notification type is known
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeOrder, NotificationTypeQuote, NotificationTypePayment,
		NotificationTypeDelivery, NotificationTypeReview, NotificationTypeSystem:
		return true
	}
	return false
}

// NotificationPriority controls how prominently a notification is displayed
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is a side record informing a user about a state change
type Notification struct {
	BaseModel
	UserID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	Type            NotificationType     `gorm:"type:varchar(20);not null"`
	Event           string               `gorm:"type:varchar(50);not null"`
	Title           string               `gorm:"type:varchar(200);not null"`
	Message         string               `gorm:"type:varchar(1000);not null"`
	QuoteRequestID  *uuid.UUID           `gorm:"type:uuid;column:quote_request_id"`
	QuoteResponseID *uuid.UUID           `gorm:"type:uuid;column:quote_response_id"`
	OrderID         *uuid.UUID           `gorm:"type:uuid;column:order_id"`
	ActionURL       string               `gorm:"type:varchar(500);column:action_url"`
	Icon            string               `gorm:"type:varchar(50)"`
	Color           string               `gorm:"type:varchar(20)"`
	Priority        NotificationPriority `gorm:"type:varchar(20);not null;default:'normal'"`
	Read            bool                 `gorm:"column:read;not null;default:false;index"`
	ReadAt          *time.Time
	ExpiresAt       *time.Time `gorm:"column:expires_at"`
}

// NumberSequence tracks the last issued sequence per prefix and year
type NumberSequence struct {
	Prefix       string    `gorm:"type:varchar(10);primaryKey"`
	Year         int       `gorm:"primaryKey"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
