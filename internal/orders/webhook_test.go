package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"nexicart_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "test_secret" // retombe sur KeySecret dans la fixture

func webhookBody(t *testing.T, event, paymentID, status string, orderID gocql.UUID, extra map[string]string) []byte {
	t.Helper()

	entity := map[string]interface{}{
		"id":       paymentID,
		"order_id": "order_gw_1",
		"amount":   205000,
		"currency": "INR",
		"status":   status,
		"method":   "upi",
		"notes":    map[string]string{"order_id": orderID.String()},
	}
	for k, v := range extra {
		entity[k] = v
	}

	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{"entity": entity},
		},
	})
	require.NoError(t, err)
	return body
}

func TestHandleWebhookRejectsInvalidSignature(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	body := webhookBody(t, "payment.captured", "pay_1", "captured", order.ID, nil)

	err := svc.HandleWebhook(context.Background(), body, "signature-forgée")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.False(t, store.orders[order.ID].IsPaid, "un payload non authentifié ne mute rien")
}

func TestHandleWebhookCapturedMarksOrderPaid(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	body := webhookBody(t, "payment.captured", "pay_1", "captured", order.ID, nil)
	sig := utils.ComputeWebhookSignature(body, webhookSecret)

	require.NoError(t, svc.HandleWebhook(context.Background(), body, sig))

	stored := store.orders[order.ID]
	assert.True(t, stored.IsPaid)
	require.NotNil(t, stored.PaymentResult)
	assert.Equal(t, "pay_1", stored.PaymentResult.PaymentID)
	assert.Equal(t, int64(205000), stored.PaymentResult.Amount)
}

func TestHandleWebhookDuplicateDeliveryIsNoOp(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	body := webhookBody(t, "payment.captured", "pay_1", "captured", order.ID, nil)
	sig := utils.ComputeWebhookSignature(body, webhookSecret)

	require.NoError(t, svc.HandleWebhook(context.Background(), body, sig))
	paidAt := store.orders[order.ID].PaidAt

	// Livraison au-moins-une-fois : la rediffusion est acquittée sans réécriture
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sig))

	assert.Equal(t, paidAt, store.orders[order.ID].PaidAt)
	assert.Equal(t, "pay_1", store.orders[order.ID].PaymentResult.PaymentID)
}

func TestHandleWebhookFailedAnnotatesOrder(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	body := webhookBody(t, "payment.failed", "pay_ko", "failed", order.ID, map[string]string{
		"error_code":        "BAD_UPI",
		"error_description": "VPA inconnu",
	})
	sig := utils.ComputeWebhookSignature(body, webhookSecret)

	require.NoError(t, svc.HandleWebhook(context.Background(), body, sig))

	stored := store.orders[order.ID]
	assert.False(t, stored.IsPaid)
	require.NotNil(t, stored.PaymentResult)
	assert.Equal(t, "BAD_UPI", stored.PaymentResult.ErrorCode)
}

func TestHandleWebhookUnknownEventIsAcknowledged(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	body := webhookBody(t, "invoice.generated", "pay_1", "captured", order.ID, nil)
	sig := utils.ComputeWebhookSignature(body, webhookSecret)

	assert.NoError(t, svc.HandleWebhook(context.Background(), body, sig))
	assert.False(t, store.orders[order.ID].IsPaid)
}

func TestHandleWebhookSignedGarbageIsAcknowledged(t *testing.T) {
	_, _, svc, _, _ := newPaymentFixture(t)

	body := []byte("pas du json")
	sig := utils.ComputeWebhookSignature(body, webhookSecret)

	// Authentifié mais illisible : on acquitte pour stopper les re-livraisons
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, sig))
}

func TestHandleWebhookMissingOrderNoteIsIgnored(t *testing.T) {
	_, _, svc, _, _ := newPaymentFixture(t)

	body, err := json.Marshal(map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id": "pay_1", "status": "captured",
					// notes sérialisées en [] quand le prestataire n'en a pas
					"notes": []string{},
				},
			},
		},
	})
	require.NoError(t, err)

	sig := utils.ComputeWebhookSignature(body, webhookSecret)
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, sig))
}

func TestWebhookEventNamesAreDotted(t *testing.T) {
	// Garde-fou contre une régression de nommage des événements
	for _, name := range []string{webhookPaymentCaptured, webhookPaymentFailed, webhookPaymentAuthorized, webhookRefundCreated} {
		assert.Contains(t, name, ".", fmt.Sprintf("%s doit suivre la convention pointée", name))
	}
}
