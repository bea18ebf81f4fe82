package orders

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway : passerelle contrôlable pour vérifier que les montants
// viennent du prestataire et jamais du client
type fakeGateway struct {
	session    gateway.Session
	details    gateway.PaymentDetails
	fetchCalls int32
}

func (f *fakeGateway) CreateSession(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (gateway.Session, error) {
	s := f.session
	s.Amount = amountMinor
	s.Currency = currency
	return s, nil
}

func (f *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (gateway.PaymentDetails, error) {
	atomic.AddInt32(&f.fetchCalls, 1)
	return f.details, nil
}

func newPaymentFixture(t *testing.T) (*fakeStore, *fakeGateway, *Service, gocql.UUID, models.Order) {
	t.Helper()

	store := newFakeStore()
	pid := store.addProduct("casque", 2000, 0, 10, true)

	gw := &fakeGateway{
		session: gateway.Session{ID: "order_gw_1", KeyID: "rzp_test_key"},
		details: gateway.PaymentDetails{
			ID: "pay_1", SessionID: "order_gw_1", Status: "captured",
			Method: "upi", Amount: 205000, Currency: "INR",
		},
	}

	svc := NewService(store, gw, gateway.Unconfigured{Name: "stripe"}, Config{KeySecret: "test_secret"})

	userID := gocql.TimeUUID()
	input := validInput(pid, 1)
	input.TaxPrice = 50
	order, err := svc.PlaceOrder(context.Background(), userID, input)
	require.NoError(t, err)

	return store, gw, svc, userID, order
}

func TestCreateGatewayOrderConvertsToMinorUnits(t *testing.T) {
	_, _, svc, userID, order := newPaymentFixture(t)

	session, err := svc.CreateGatewayOrder(context.Background(), order.ID, userID)
	require.NoError(t, err)

	// 2000 + 50 de taxe + 40 de port = 2090.00 → 209000 paise
	assert.Equal(t, int64(209000), session.Amount)
	assert.Equal(t, "INR", session.Currency)
	assert.Equal(t, "order_gw_1", session.ID)
}

func TestCreateGatewayOrderRefusesCOD(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)
	userID := gocql.TimeUUID()

	input := validInput(pid, 1)
	input.PaymentMethod = "cod"
	order, err := svc.PlaceOrder(context.Background(), userID, input)
	require.NoError(t, err)

	_, err = svc.CreateGatewayOrder(context.Background(), order.ID, userID)
	assert.ErrorIs(t, err, ErrNoGatewayForMethod)
}

func TestCreateGatewayOrderUnconfiguredGateway(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store) // les deux passerelles sont Unconfigured
	userID := gocql.TimeUUID()

	order, err := svc.PlaceOrder(context.Background(), userID, validInput(pid, 1))
	require.NoError(t, err)

	_, err = svc.CreateGatewayOrder(context.Background(), order.ID, userID)
	assert.ErrorIs(t, err, gateway.ErrNotConfigured)
}

func TestVerifyPaymentBadSignatureNeverMutates(t *testing.T) {
	store, gw, svc, userID, order := newPaymentFixture(t)

	_, err := svc.VerifyPayment(context.Background(), order.ID, userID,
		"order_gw_1", "pay_1", "signature-forgée")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Zero(t, atomic.LoadInt32(&gw.fetchCalls), "le prestataire ne doit pas être consulté sur signature invalide")

	stored := store.orders[order.ID]
	assert.False(t, stored.IsPaid)
	assert.Nil(t, stored.PaymentResult)
	assert.Equal(t, models.OrderStatusPending, stored.OrderStatus)
}

func TestVerifyPaymentMarksOrderPaid(t *testing.T) {
	store, _, svc, userID, order := newPaymentFixture(t)

	sig := utils.ComputePaymentSignature("order_gw_1", "pay_1", "test_secret")
	paid, err := svc.VerifyPayment(context.Background(), order.ID, userID, "order_gw_1", "pay_1", sig)
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "pay_1", paid.PaymentResult.PaymentID)
	assert.Equal(t, int64(205000), paid.PaymentResult.Amount, "le montant vient du prestataire")
	assert.Equal(t, models.OrderStatusProcessing, paid.OrderStatus)

	assert.True(t, store.orders[order.ID].IsPaid)
}

func TestVerifyPaymentRequiresOwnership(t *testing.T) {
	_, _, svc, _, order := newPaymentFixture(t)

	sig := utils.ComputePaymentSignature("order_gw_1", "pay_1", "test_secret")
	_, err := svc.VerifyPayment(context.Background(), order.ID, gocql.TimeUUID(), "order_gw_1", "pay_1", sig)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestVerifyPaymentAfterWebhookCaptureIsNoOp(t *testing.T) {
	store, _, svc, userID, order := newPaymentFixture(t)

	// Le webhook arrive avant la confirmation synchrone du client
	body := webhookBody(t, "payment.captured", "pay_1", "captured", order.ID, nil)
	require.NoError(t, svc.HandleWebhook(context.Background(), body,
		utils.ComputeWebhookSignature(body, webhookSecret)))

	paidAt := store.orders[order.ID].PaidAt
	require.NotNil(t, paidAt)

	// La vérification synchrone qui suit réussit sans rien réécrire
	sig := utils.ComputePaymentSignature("order_gw_1", "pay_1", "test_secret")
	paid, err := svc.VerifyPayment(context.Background(), order.ID, userID, "order_gw_1", "pay_1", sig)
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	assert.Equal(t, paidAt, store.orders[order.ID].PaidAt, "le paid_at du webhook gagnant est conservé")
	assert.Equal(t, "pay_1", store.orders[order.ID].PaymentResult.PaymentID)
}

func TestApplyCaptureIsIdempotent(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	var hookCalls int32
	svc.SetPaidHook(func(models.Order) {
		atomic.AddInt32(&hookCalls, 1)
	})

	first := models.PaymentResult{PaymentID: "pay_1", Amount: 205000, UpdatedAt: time.Now()}
	require.NoError(t, svc.ApplyCapture(context.Background(), order.ID, first))

	paidAt := store.orders[order.ID].PaidAt
	require.NotNil(t, paidAt)

	// La rediffusion (webhook après confirmation synchrone) est un no-op
	duplicate := models.PaymentResult{PaymentID: "pay_dup", Amount: 999999, UpdatedAt: time.Now()}
	require.NoError(t, svc.ApplyCapture(context.Background(), order.ID, duplicate))

	stored := store.orders[order.ID]
	assert.Equal(t, "pay_1", stored.PaymentResult.PaymentID, "le reçu du premier paiement n'est pas réécrit")
	assert.Equal(t, paidAt, stored.PaidAt)

	// Le hook post-paiement tourne en goroutine : on lui laisse le temps
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls), "les effets de bord ne partent qu'une fois")
}

func TestApplyFailureNeverOverwritesCapture(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	capture := models.PaymentResult{PaymentID: "pay_1", Status: "captured"}
	require.NoError(t, svc.ApplyCapture(context.Background(), order.ID, capture))

	failure := models.PaymentResult{PaymentID: "pay_2", Status: "failed", ErrorCode: "BAD_CARD"}
	require.NoError(t, svc.ApplyFailure(context.Background(), order.ID, failure))

	stored := store.orders[order.ID]
	assert.True(t, stored.IsPaid)
	assert.Equal(t, "pay_1", stored.PaymentResult.PaymentID)
}

func TestApplyFailureAnnotatesUnpaidOrder(t *testing.T) {
	store, _, svc, _, order := newPaymentFixture(t)

	failure := models.PaymentResult{PaymentID: "pay_ko", Status: "failed", ErrorCode: "BAD_CARD",
		ErrorDescription: "Carte refusée"}
	require.NoError(t, svc.ApplyFailure(context.Background(), order.ID, failure))

	stored := store.orders[order.ID]
	assert.False(t, stored.IsPaid, "un échec ne touche jamais is_paid")
	require.NotNil(t, stored.PaymentResult)
	assert.Equal(t, "BAD_CARD", stored.PaymentResult.ErrorCode)
}
