package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore : implémentation mémoire du Store avec la même sémantique
// conditionnelle que ScyllaDB (décrément plancher, CAS is_paid)
type fakeStore struct {
	products map[gocql.UUID]models.Product
	orders   map[gocql.UUID]models.Order

	insertErr     error
	failDecrement map[gocql.UUID]error

	productLookups int
	decremented    []gocql.UUID
	incremented    []gocql.UUID

	// onSetStock s'exécute entre la lecture du stock et l'écriture
	// conditionnelle, pour simuler un checkout concurrent
	onSetStock       func()
	setStockAttempts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:      map[gocql.UUID]models.Product{},
		orders:        map[gocql.UUID]models.Order{},
		failDecrement: map[gocql.UUID]error{},
	}
}

func (f *fakeStore) addProduct(name string, price, discount float64, stock int, active bool) gocql.UUID {
	id := gocql.TimeUUID()
	f.products[id] = models.Product{
		ID:            id,
		Name:          name,
		Price:         price,
		DiscountPrice: discount,
		Stock:         stock,
		IsActive:      active,
		ImageURLs:     []string{"/uploads/products/" + name + ".jpg"},
	}
	return id
}

func (f *fakeStore) GetProduct(ctx context.Context, productID gocql.UUID) (models.Product, error) {
	f.productLookups++
	p, ok := f.products[productID]
	if !ok {
		return models.Product{}, gocql.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) DecrementStock(ctx context.Context, productID gocql.UUID, qty int) (bool, int, error) {
	if err := f.failDecrement[productID]; err != nil {
		return false, 0, err
	}
	p, ok := f.products[productID]
	if !ok {
		return false, 0, gocql.ErrNotFound
	}
	if p.Stock < qty {
		return false, p.Stock, nil
	}
	p.Stock -= qty
	f.products[productID] = p
	f.decremented = append(f.decremented, productID)
	return true, p.Stock, nil
}

func (f *fakeStore) IncrementStock(ctx context.Context, productID gocql.UUID, qty int) error {
	p := f.products[productID]
	p.Stock += qty
	f.products[productID] = p
	f.incremented = append(f.incremented, productID)
	return nil
}

func (f *fakeStore) SetStock(ctx context.Context, productID gocql.UUID, stock int) error {
	if _, ok := f.products[productID]; !ok {
		return gocql.ErrNotFound
	}
	for {
		current := f.products[productID].Stock
		if hook := f.onSetStock; hook != nil {
			f.onSetStock = nil
			hook()
		}
		f.setStockAttempts++
		p := f.products[productID]
		if p.Stock != current {
			// CAS non appliqué : le stock a bougé depuis la lecture
			continue
		}
		p.Stock = stock
		f.products[productID] = p
		return nil
	}
}

func (f *fakeStore) InsertOrder(ctx context.Context, order models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) GetOrder(ctx context.Context, orderID gocql.UUID) (models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) MarkPaid(ctx context.Context, orderID gocql.UUID, paidAt time.Time, result models.PaymentResult) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return false, ErrOrderNotFound
	}
	if o.IsPaid {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	o.OrderStatus = models.OrderStatusProcessing
	f.orders[orderID] = o
	return true, nil
}

func (f *fakeStore) RecordPaymentFailure(ctx context.Context, orderID gocql.UUID, result models.PaymentResult) error {
	o, ok := f.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.IsPaid {
		return nil
	}
	o.PaymentResult = &result
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) CancelIfPending(ctx context.Context, orderID gocql.UUID) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return false, ErrOrderNotFound
	}
	if o.IsPaid || o.OrderStatus != models.OrderStatusPending {
		return false, nil
	}
	o.OrderStatus = models.OrderStatusCancelled
	f.orders[orderID] = o
	return true, nil
}

func newTestService(store Store) *Service {
	return NewService(store, gateway.Unconfigured{Name: "razorpay"}, gateway.Unconfigured{Name: "stripe"},
		Config{KeySecret: "test_secret"})
}

func validInput(productID gocql.UUID, qty int) PlaceOrderInput {
	return PlaceOrderInput{
		Items: []OrderItemInput{{ProductID: productID.String(), Name: "client-name", Quantity: qty}},
		ShippingAddress: models.ShippingAddress{
			Address: "12 MG Road", City: "Bengaluru", State: "Karnataka", PostalCode: "560001",
		},
		PaymentMethod: "upi",
		TaxPrice:      10,
		ShippingPrice: 40,
	}
}

func TestPlaceOrderRejectsEmptyOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), PlaceOrderInput{
		ShippingAddress: models.ShippingAddress{City: "Pune", State: "Maharashtra"},
		PaymentMethod:   "upi",
	})

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Zero(t, store.productLookups)
}

func TestPlaceOrderValidatesShippingBeforeAnyLookup(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)

	input := validInput(pid, 1)
	input.ShippingAddress.City = ""

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), input)

	assert.ErrorIs(t, err, ErrMissingShippingFields)
	assert.Zero(t, store.productLookups, "la validation d'adresse ne doit déclencher aucune lecture produit")
}

func TestPlaceOrderRejectsUnknownPaymentMethod(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)

	input := validInput(pid, 1)
	input.PaymentMethod = "chèque"

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), input)
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)

	for _, qty := range []int{0, -3} {
		_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), validInput(pid, qty))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestPlaceOrderRejectsUnknownProduct(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), validInput(gocql.TimeUUID(), 1))

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, store.decremented, "aucun stock ne doit bouger pour un produit inconnu")
}

func TestPlaceOrderRejectsInactiveProduct(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("retiré", 100, 0, 10, false)
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), validInput(pid, 1))

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestPlaceOrderInsufficientStockCarriesContext(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("souris", 250, 0, 2, true)
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), validInput(pid, 5))

	var outOfStock *InsufficientStockError
	require.ErrorAs(t, err, &outOfStock)
	assert.Equal(t, 2, outOfStock.Available)
	assert.Equal(t, 5, outOfStock.Requested)
	assert.Equal(t, 2, store.products[pid].Stock, "le stock ne doit pas avoir bougé")
}

func TestPlaceOrderCompensatesReservedStockOnPartialFailure(t *testing.T) {
	store := newFakeStore()
	pidA := store.addProduct("a-stock-ok", 100, 0, 10, true)
	pidB := store.addProduct("b-stock-court", 200, 0, 1, true)
	svc := newTestService(store)

	input := PlaceOrderInput{
		Items: []OrderItemInput{
			{ProductID: pidA.String(), Quantity: 2},
			{ProductID: pidB.String(), Quantity: 3},
		},
		ShippingAddress: models.ShippingAddress{City: "Delhi", State: "Delhi"},
		PaymentMethod:   "razorpay",
	}

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), input)

	var outOfStock *InsufficientStockError
	require.ErrorAs(t, err, &outOfStock)

	// Toutes les réservations posées avant l'échec sont restituées
	assert.Equal(t, 10, store.products[pidA].Stock)
	assert.Equal(t, 1, store.products[pidB].Stock)
	assert.Empty(t, store.orders, "aucune commande partielle ne doit exister")
}

func TestPlaceOrderRollsBackStockWhenInsertFails(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	store.insertErr = errors.New("écriture refusée")
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), validInput(pid, 3))

	require.Error(t, err)
	assert.Equal(t, 10, store.products[pid].Stock)
	assert.Empty(t, store.orders)
}

func TestPlaceOrderSnapshotsCatalogPrices(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("casque", 2000, 1500, 10, true)
	svc := newTestService(store)
	userID := gocql.TimeUUID()

	input := validInput(pid, 2)
	input.TaxPrice = 100
	input.ShippingPrice = 50

	order, err := svc.PlaceOrder(context.Background(), userID, input)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "casque", order.Items[0].Name, "le nom vient du catalogue, pas du client")
	assert.Equal(t, 1500.0, order.Items[0].Price, "le prix snapshoté est le prix remisé")
	assert.Equal(t, 3000.0, order.ItemsPrice)
	assert.Equal(t, 3150.0, order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, models.PaymentMethodRazorpay, order.PaymentMethod, "upi est normalisé en razorpay")
	assert.Equal(t, userID, order.UserID)
	assert.False(t, order.IsPaid)
	assert.Equal(t, "India", order.ShippingAddress.Country)

	assert.Equal(t, 8, store.products[pid].Stock)
	assert.Contains(t, store.orders, order.ID)
}

func TestPlaceOrderUsesCatalogPriceNotClientPayload(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("écran", 12000, 0, 5, true)
	svc := newTestService(store)

	// Le client ne peut pas transmettre de prix : seul le catalogue fait foi
	order, err := svc.PlaceOrder(context.Background(), gocql.TimeUUID(), validInput(pid, 1))
	require.NoError(t, err)
	assert.Equal(t, 12000.0, order.Items[0].Price)
}

func TestSetStockRetriesWhenCheckoutSlipsIn(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 5, true)

	// Un checkout réserve une unité entre la lecture admin et l'écriture
	// conditionnelle : la première tentative ne doit pas être appliquée
	store.onSetStock = func() {
		applied, _, err := store.DecrementStock(context.Background(), pid, 1)
		require.NoError(t, err)
		require.True(t, applied)
	}

	require.NoError(t, store.SetStock(context.Background(), pid, 50))

	assert.Equal(t, 50, store.products[pid].Stock, "le restock absolu reste l'intention explicite de l'admin")
	assert.Equal(t, 2, store.setStockAttempts, "l'écriture est rejouée après l'échec du CAS, jamais appliquée en aveugle")
}

func TestGetOrderForUserRejectsOtherUsers(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)

	owner := gocql.TimeUUID()
	order, err := svc.PlaceOrder(context.Background(), owner, validInput(pid, 1))
	require.NoError(t, err)

	_, err = svc.GetOrderForUser(context.Background(), order.ID, gocql.TimeUUID())
	assert.ErrorIs(t, err, ErrNotAuthorized)

	got, err := svc.GetOrderForUser(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)
	userID := gocql.TimeUUID()

	order, err := svc.PlaceOrder(context.Background(), userID, validInput(pid, 4))
	require.NoError(t, err)
	assert.Equal(t, 6, store.products[pid].Stock)

	require.NoError(t, svc.CancelOrder(context.Background(), order.ID, userID))

	assert.Equal(t, 10, store.products[pid].Stock)
	assert.Equal(t, models.OrderStatusCancelled, store.orders[order.ID].OrderStatus)
}

func TestCancelOrderRefusesPaidOrder(t *testing.T) {
	store := newFakeStore()
	pid := store.addProduct("clavier", 500, 0, 10, true)
	svc := newTestService(store)
	userID := gocql.TimeUUID()

	order, err := svc.PlaceOrder(context.Background(), userID, validInput(pid, 1))
	require.NoError(t, err)

	_, err = store.MarkPaid(context.Background(), order.ID, time.Now(), models.PaymentResult{PaymentID: "pay_x"})
	require.NoError(t, err)

	err = svc.CancelOrder(context.Background(), order.ID, userID)
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.Equal(t, 9, store.products[pid].Stock, "pas de restitution sur une annulation refusée")
}
