package service

import (
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(moneyPlaces)
}

// LineTotal returns unitPrice x quantity rounded to cents
func LineTotal(unitPrice, quantity float64) float64 {
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromFloat(quantity)).
		Round(moneyPlaces).
		InexactFloat64()
}

// PaymentMethodFor maps quoted payment terms onto an order payment method
func PaymentMethodFor(terms domain.PaymentTerms) domain.PaymentMethod {
	if terms == domain.PaymentTermsCOD {
		return domain.PaymentMethodCashOnDelivery
	}
	return domain.PaymentMethodAdvance
}

// MaterializeOrder builds the order for an accepted response. Line snapshots
// come from the quoted lines, never from live catalog records, and the order
// total equals the quoted total exactly. It does not touch persistence.
func MaterializeOrder(request *domain.QuoteRequest, response *domain.QuoteResponse, orderNumber string) *domain.Order {
	total := money(response.TotalAmount)
	deliveryFee := money(response.DeliveryCharges)
	subtotal := total.Sub(deliveryFee)

	items := make([]domain.OrderItem, len(response.Items))
	for i, line := range response.Items {
		items[i] = domain.OrderItem{
			Position:  line.Position,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Total:     money(line.TotalPrice).InexactFloat64(),
			Snapshot: domain.ProductSnapshot{
				Name:       line.Name,
				Price:      money(line.UnitPrice).InexactFloat64(),
				Unit:       line.Unit,
				SupplierID: response.SupplierID,
			},
		}
	}

	quoteReference := response.ID

	return &domain.Order{
		OrderNumber:       orderNumber,
		CustomerID:        request.CustomerID,
		SupplierID:        response.SupplierID,
		Items:             items,
		Subtotal:          subtotal.InexactFloat64(),
		DeliveryFee:       deliveryFee.InexactFloat64(),
		Tax:               0,
		TotalAmount:       total.InexactFloat64(),
		DeliveryAddress:   request.DeliveryAddress,
		DeliveryCity:      request.DeliveryCity,
		DeliveryLatitude:  request.DeliveryLatitude,
		DeliveryLongitude: request.DeliveryLongitude,
		DeliverySlot:      request.RequiredBy.UTC(),
		PaymentMethod:     PaymentMethodFor(response.PaymentTerms),
		PaymentStatus:     domain.PaymentStatusPending,
		OrderStatus:       domain.OrderStatusPending,
		QuoteReference:    &quoteReference,
		IsFromQuote:       true,
		CustomerNotes:     request.AdditionalNotes,
		SupplierNotes:     response.Terms,
	}
}
