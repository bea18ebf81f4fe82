package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"card":          PaymentMethodStripe,
		"credit-card":   PaymentMethodStripe,
		"debit-card":    PaymentMethodStripe,
		"stripe":        PaymentMethodStripe,
		"upi":           PaymentMethodRazorpay,
		"wallet":        PaymentMethodRazorpay,
		"netbanking":    PaymentMethodRazorpay,
		"emi":           PaymentMethodRazorpay,
		"bank-transfer": PaymentMethodRazorpay,
		"razorpay":      PaymentMethodRazorpay,
		"cod":           PaymentMethodCOD,
		"cash":          PaymentMethodCOD,
	}

	for alias, want := range cases {
		got, ok := NormalizePaymentMethod(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, want, got, alias)
	}
}

func TestNormalizePaymentMethodRejectsUnknown(t *testing.T) {
	for _, alias := range []string{"", "chèque", "CARD", "bitcoin"} {
		_, ok := NormalizePaymentMethod(alias)
		assert.False(t, ok, alias)
	}
}

func TestOrderStatusFlow(t *testing.T) {
	allowed := [][2]string{
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransitionOrderStatus(tc[0], tc[1]), "%s → %s", tc[0], tc[1])
	}

	forbidden := [][2]string{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusProcessing},
		{OrderStatusProcessing, OrderStatusPending},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransitionOrderStatus(tc[0], tc[1]), "%s → %s", tc[0], tc[1])
	}
}

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, 80.0, Product{Price: 100, DiscountPrice: 80}.EffectivePrice())
	assert.Equal(t, 100.0, Product{Price: 100}.EffectivePrice())
	assert.Equal(t, 100.0, Product{Price: 100, DiscountPrice: 120}.EffectivePrice(),
		"un prix remisé supérieur au prix catalogue est ignoré")
}

func TestCartTotal(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{Price: 100, Quantity: 2},
		{Price: 49.5, Quantity: 1},
	}}
	assert.Equal(t, 249.5, cart.Total())
	assert.Equal(t, 0.0, Cart{}.Total())
}
