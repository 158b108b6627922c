package mapper

import (
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToQuoteRequestDTO converts QuoteRequest to QuoteRequestDTO
func ToQuoteRequestDTO(request *domain.QuoteRequest) domain.QuoteRequestDTO {
	items := make([]domain.QuoteRequestItemDTO, len(request.Items))
	for i, item := range request.Items {
		items[i] = domain.QuoteRequestItemDTO{
			ID:          item.ID,
			Position:    item.Position,
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		}
	}

	return domain.QuoteRequestDTO{
		ID:          request.ID,
		QuoteNumber: request.QuoteNumber,
		CustomerID:  request.CustomerID,
		Items:       items,
		DeliveryLocation: domain.DeliveryLocationDTO{
			Address:    request.DeliveryAddress,
			City:       request.DeliveryCity,
			PostalCode: request.DeliveryPostalCode,
			Latitude:   request.DeliveryLatitude,
			Longitude:  request.DeliveryLongitude,
		},
		RequiredBy:         formatTime(request.RequiredBy),
		AdditionalNotes:    request.AdditionalNotes,
		TargetSuppliers:    request.TargetSupplierIDs(),
		BroadcastToAll:     request.BroadcastToAll,
		Status:             request.Status,
		ResponseCount:      request.ResponseCount,
		AcceptedResponseID: request.AcceptedResponseID,
		AcceptedAt:         formatTimePtr(request.AcceptedAt),
		CancelledAt:        formatTimePtr(request.CancelledAt),
		CancellationReason: request.CancellationReason,
		CreatedAt:          formatTime(request.CreatedAt),
		UpdatedAt:          formatTime(request.UpdatedAt),
	}
}

// ToQuoteResponseDTO converts QuoteResponse to QuoteResponseDTO. now decides the isExpired flag.
func ToQuoteResponseDTO(response *domain.QuoteResponse, now time.Time) domain.QuoteResponseDTO {
	items := make([]domain.QuoteResponseItemDTO, len(response.Items))
	for i, item := range response.Items {
		items[i] = domain.QuoteResponseItemDTO{
			ID:         item.ID,
			Position:   item.Position,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Unit:       item.Unit,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
	}

	dto := domain.QuoteResponseDTO{
		ID:                    response.ID,
		ResponseNumber:        response.ResponseNumber,
		QuoteRequestID:        response.QuoteRequestID,
		SupplierID:            response.SupplierID,
		Items:                 items,
		TotalAmount:           response.TotalAmount,
		DeliveryCharges:       response.DeliveryCharges,
		EstimatedDeliveryDays: response.EstimatedDeliveryDays,
		ValidUntil:            formatTime(response.ValidUntil),
		Terms:                 response.Terms,
		PaymentTerms:          response.PaymentTerms,
		Status:                response.Status,
		IsExpired:             response.Status == domain.QuoteResponseStatusPending && response.IsExpired(now),
		AcceptedAt:            formatTimePtr(response.AcceptedAt),
		RejectedAt:            formatTimePtr(response.RejectedAt),
		RejectionReason:       response.RejectionReason,
		WithdrawnAt:           formatTimePtr(response.WithdrawnAt),
		WithdrawalReason:      response.WithdrawalReason,
		CreatedAt:             formatTime(response.CreatedAt),
		UpdatedAt:             formatTime(response.UpdatedAt),
	}
	if response.QuoteRequest != nil {
		dto.QuoteNumber = response.QuoteRequest.QuoteNumber
	}
	return dto
}

// ToOrderDTO converts Order to OrderDTO
func ToOrderDTO(order *domain.Order) domain.OrderDTO {
	items := make([]domain.OrderItemDTO, len(order.Items))
	for i, item := range order.Items {
		items[i] = domain.OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Total:     item.Total,
			ProductSnapshot: domain.ProductSnapshotDTO{
				Name:       item.Snapshot.Name,
				Price:      item.Snapshot.Price,
				Unit:       item.Snapshot.Unit,
				SupplierID: item.Snapshot.SupplierID,
			},
		}
	}

	return domain.OrderDTO{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		SupplierID:  order.SupplierID,
		Items:       items,
		Subtotal:    order.Subtotal,
		DeliveryFee: order.DeliveryFee,
		Tax:         order.Tax,
		TotalAmount: order.TotalAmount,
		DeliveryLocation: domain.DeliveryLocationDTO{
			Address:   order.DeliveryAddress,
			City:      order.DeliveryCity,
			Latitude:  order.DeliveryLatitude,
			Longitude: order.DeliveryLongitude,
		},
		DeliverySlot:   formatTime(order.DeliverySlot),
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  order.PaymentStatus,
		OrderStatus:    order.OrderStatus,
		QuoteReference: order.QuoteReference,
		IsFromQuote:    order.IsFromQuote,
		CustomerNotes:  order.CustomerNotes,
		SupplierNotes:  order.SupplierNotes,
		CancelledAt:    formatTimePtr(order.CancelledAt),
		DeliveredAt:    formatTimePtr(order.DeliveredAt),
		CreatedAt:      formatTime(order.CreatedAt),
		UpdatedAt:      formatTime(order.UpdatedAt),
	}
}

// ToOrderSummaryDTO converts Order to the lightweight summary returned on acceptance
func ToOrderSummaryDTO(order *domain.Order) domain.OrderSummaryDTO {
	return domain.OrderSummaryDTO{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		OrderStatus: order.OrderStatus,
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:              notification.ID,
		Type:            notification.Type,
		Event:           notification.Event,
		Title:           notification.Title,
		Message:         notification.Message,
		QuoteRequestID:  notification.QuoteRequestID,
		QuoteResponseID: notification.QuoteResponseID,
		OrderID:         notification.OrderID,
		ActionURL:       notification.ActionURL,
		Icon:            notification.Icon,
		Color:           notification.Color,
		Priority:        notification.Priority,
		Read:            notification.Read,
		ReadAt:          formatTimePtr(notification.ReadAt),
		ExpiresAt:       formatTimePtr(notification.ExpiresAt),
		CreatedAt:       formatTime(notification.CreatedAt),
	}
}
