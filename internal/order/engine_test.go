package order

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
	"velora_back_end/internal/query"
)

type fakeProductStore struct {
	products map[gocql.UUID]*models.Product
	// produits dont le décrément échoue artificiellement (simule un conflit CAS persistant)
	failDecrement map[gocql.UUID]bool
	restored      map[gocql.UUID]int
	restoreErr    error
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	f := &fakeProductStore{
		products:      make(map[gocql.UUID]*models.Product),
		failDecrement: make(map[gocql.UUID]bool),
		restored:      make(map[gocql.UUID]int),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductStore) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.NotFound("Produit introuvable")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) DecrementStock(_ context.Context, id gocql.UUID, qty int, _ *gocql.UUID, _ string) error {
	if f.failDecrement[id] {
		return apperr.Conflict("Trop de contention sur le stock")
	}
	p, ok := f.products[id]
	if !ok {
		return apperr.NotFound("Produit introuvable")
	}
	if p.Stock < qty {
		return apperr.InsufficientStock("Stock insuffisant pour %s", p.Name)
	}
	p.Stock -= qty
	return nil
}

func (f *fakeProductStore) RestoreStock(_ context.Context, id gocql.UUID, qty int, _ *gocql.UUID, _ string) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	p, ok := f.products[id]
	if !ok {
		return apperr.NotFound("Produit introuvable")
	}
	p.Stock += qty
	f.restored[id] += qty
	return nil
}

type fakeOrderStore struct {
	orders    map[gocql.UUID]*models.Order
	insertErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[gocql.UUID]*models.Order)}
}

func (f *fakeOrderStore) Insert(_ context.Context, o *models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("Commande introuvable")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) Update(_ context.Context, o *models.Order) error {
	if _, ok := f.orders[o.ID]; !ok {
		return apperr.NotFound("Commande introuvable")
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) Delete(_ context.Context, id gocql.UUID) error {
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderStore) all() []models.Order {
	out := make([]models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID string, p query.Page) ([]models.Order, int, error) {
	var mine []models.Order
	for _, o := range f.all() {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	return query.Slice(mine, p), len(mine), nil
}

func (f *fakeOrderStore) ListAll(_ context.Context, p query.Page) ([]models.Order, int, error) {
	all := f.all()
	return query.Slice(all, p), len(all), nil
}

func (f *fakeOrderStore) ForEach(_ context.Context, fn func(o *models.Order) error) error {
	for _, o := range f.all() {
		o := o
		if err := fn(&o); err != nil {
			return err
		}
	}
	return nil
}

var (
	customer = models.Actor{ID: "user-claire", Email: "claire@example.com", Role: models.RoleUser}
	stranger = models.Actor{ID: "user-marc", Email: "marc@example.com", Role: models.RoleUser}
	admin    = models.Actor{ID: "user-admin", Email: "admin@example.com", Role: models.RoleAdmin}
)

func catalogProduct(name, price string, stock int) *models.Product {
	return &models.Product{
		ID:    gocql.TimeUUID(),
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func validInput(items ...OrderItemInput) CreateOrderInput {
	return CreateOrderInput{
		Items: items,
		ShippingAddress: models.ShippingAddress{
			Address:    "12 rue des Lilas",
			City:       "Namur",
			PostalCode: "5000",
			Country:    "Belgique",
		},
		PaymentMethod: "carte",
		TaxPrice:      decimal.RequireFromString("2.00"),
		ShippingPrice: decimal.RequireFromString("5.00"),
	}
}

func newOrderEngine(products *fakeProductStore, orders *fakeOrderStore) *Engine {
	e := NewEngine(products, orders)
	e.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestCreateOrderDecrementsStockAndFreezesPrices(t *testing.T) {
	p := catalogProduct("Lampe en rotin", "30.00", 5)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)

	created, err := engine.CreateOrder(context.Background(), customer,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 3}))
	require.NoError(t, err)

	assert.Equal(t, 2, products.products[p.ID].Stock)
	assert.Equal(t, models.OrderPending, created.Status)
	assert.Equal(t, customer.ID, created.UserID)
	require.Len(t, created.Items, 1)
	assert.True(t, created.Items[0].UnitPrice.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, created.ItemsPrice.Equal(decimal.RequireFromString("90.00")))
	assert.True(t, created.TotalPrice.Equal(decimal.RequireFromString("97.00")), "items + taxe + livraison")

	// Le prix catalogue bouge après coup : la commande ne bouge pas.
	products.products[p.ID].Price = decimal.RequireFromString("99.00")
	stored, err := orders.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("30.00")))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	p := catalogProduct("Chaise bistrot", "45.00", 2)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)

	_, err := engine.CreateOrder(context.Background(), customer,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 4}))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	// Rien n'a été touché : ni stock, ni commande.
	assert.Equal(t, 2, products.products[p.ID].Stock)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderRollsBackOnPartialFailure(t *testing.T) {
	ok := catalogProduct("Tapis berbère", "120.00", 10)
	bad := catalogProduct("Miroir doré", "80.00", 10)
	products := newFakeProductStore(ok, bad)
	products.failDecrement[bad.ID] = true
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)

	_, err := engine.CreateOrder(context.Background(), customer, validInput(
		OrderItemInput{ProductID: ok.ID.String(), Quantity: 2},
		OrderItemInput{ProductID: bad.ID.String(), Quantity: 1},
	))
	require.Error(t, err)

	// Le décrément appliqué au premier produit a été compensé.
	assert.Equal(t, 10, products.products[ok.ID].Stock)
	assert.Equal(t, 2, products.restored[ok.ID])
	assert.Empty(t, orders.orders)
}

func TestCreateOrderRollsBackWhenInsertFails(t *testing.T) {
	p := catalogProduct("Horloge murale", "55.00", 6)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	orders.insertErr = apperr.Internal(nil, "écriture impossible")
	engine := newOrderEngine(products, orders)

	_, err := engine.CreateOrder(context.Background(), customer,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 2}))
	require.Error(t, err)
	assert.Equal(t, 6, products.products[p.ID].Stock)
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	p := catalogProduct("Carafe en verre", "18.00", 10)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)

	created, err := engine.CreateOrder(context.Background(), customer, validInput(
		OrderItemInput{ProductID: p.ID.String(), Quantity: 2},
		OrderItemInput{ProductID: p.ID.String(), Quantity: 3},
	))
	require.NoError(t, err)

	require.Len(t, created.Items, 1)
	assert.Equal(t, 5, created.Items[0].Quantity)
	assert.Equal(t, 5, products.products[p.ID].Stock)
}

func TestCreateOrderValidation(t *testing.T) {
	p := catalogProduct("Étagère pin", "70.00", 4)
	products := newFakeProductStore(p)
	engine := newOrderEngine(products, newFakeOrderStore())
	ctx := context.Background()

	cases := map[string]CreateOrderInput{
		"aucun article": func() CreateOrderInput {
			in := validInput()
			return in
		}(),
		"adresse manquante": func() CreateOrderInput {
			in := validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 1})
			in.ShippingAddress = models.ShippingAddress{}
			return in
		}(),
		"paiement manquant": func() CreateOrderInput {
			in := validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 1})
			in.PaymentMethod = ""
			return in
		}(),
		"taxe négative": func() CreateOrderInput {
			in := validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 1})
			in.TaxPrice = decimal.RequireFromString("-1.00")
			return in
		}(),
		"quantité nulle": validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 0}),
		"id malformé":    validInput(OrderItemInput{ProductID: "xyz", Quantity: 1}),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.CreateOrder(ctx, customer, input)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument), "attendu invalid_argument, reçu %v", err)
		})
	}

	// Le stock n'a jamais bougé.
	assert.Equal(t, 4, products.products[p.ID].Stock)
}

func createTestOrder(t *testing.T, engine *Engine, products *fakeProductStore, actor models.Actor) *models.Order {
	t.Helper()
	p := catalogProduct("Fauteuil velours", "150.00", 8)
	products.products[p.ID] = p
	created, err := engine.CreateOrder(context.Background(), actor,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 2}))
	require.NoError(t, err)
	return created
}

func TestGetOrderByIDOwnership(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)
	ctx := context.Background()

	// Propriétaire : ok.
	_, err := engine.GetOrderByID(ctx, customer, created.ID.String())
	require.NoError(t, err)

	// Admin : ok.
	_, err = engine.GetOrderByID(ctx, admin, created.ID.String())
	require.NoError(t, err)

	// Autre utilisateur : refusé.
	_, err = engine.GetOrderByID(ctx, stranger, created.ID.String())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	// Inexistante : not found.
	_, err = engine.GetOrderByID(ctx, customer, gocql.TimeUUID().String())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPayOrder(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)
	ctx := context.Background()

	paid, err := engine.Pay(ctx, customer, created.ID.String(),
		&models.PaymentResult{ID: "tx-123", Status: "completed", Email: customer.Email})
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, models.OrderPaid, paid.Status)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "tx-123", paid.PaymentResult.ID)

	// Re-payer est une erreur explicite.
	_, err = engine.Pay(ctx, customer, created.ID.String(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyPaid))
}

func TestPayOrderForbiddenForStranger(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)

	_, err := engine.Pay(context.Background(), stranger, created.ID.String(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestDeliverOrder(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)
	ctx := context.Background()

	// Réservé aux admins.
	_, err := engine.Deliver(ctx, customer, created.ID.String())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	delivered, err := engine.Deliver(ctx, admin, created.ID.String())
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
	// pending ne transitionne pas directement vers delivered : le statut reste.
	assert.Equal(t, models.OrderPending, delivered.Status)

	_, err = engine.Deliver(ctx, admin, created.ID.String())
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyDelivered))
}

func TestDeliverAdvancesStatusFromShipped(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)
	created := createTestOrder(t, engine, products, customer)

	stored := orders.orders[created.ID]
	stored.Status = models.OrderShipped

	delivered, err := engine.Deliver(context.Background(), admin, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	p := catalogProduct("Commode chêne", "320.00", 5)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)
	ctx := context.Background()

	created, err := engine.CreateOrder(ctx, customer,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 3}))
	require.NoError(t, err)
	require.Equal(t, 2, products.products[p.ID].Stock)

	// Réservé aux admins.
	err = engine.DeleteOrder(ctx, customer, created.ID.String())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	err = engine.DeleteOrder(ctx, admin, created.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 5, products.products[p.ID].Stock, "le stock consommé doit être restauré")
	assert.Empty(t, orders.orders)
}

func TestDeleteOrderAbortsOnRestoreFailure(t *testing.T) {
	p := catalogProduct("Lampadaire arc", "180.00", 5)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)
	ctx := context.Background()

	created, err := engine.CreateOrder(ctx, customer,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 3}))
	require.NoError(t, err)
	require.Equal(t, 2, products.products[p.ID].Stock)

	// Panne transitoire du stockage : la suppression doit échouer et laisser
	// la commande en place plutôt que perdre la restauration du stock.
	products.restoreErr = apperr.Internal(nil, "stockage indisponible")

	err = engine.DeleteOrder(ctx, admin, created.ID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Len(t, orders.orders, 1, "la commande doit survivre pour être rejouée")
	assert.Equal(t, 2, products.products[p.ID].Stock)

	// La panne passée, la suppression aboutit et restaure le stock.
	products.restoreErr = nil
	require.NoError(t, engine.DeleteOrder(ctx, admin, created.ID.String()))
	assert.Equal(t, 5, products.products[p.ID].Stock)
	assert.Empty(t, orders.orders)
}

func TestDeleteOrderSurvivesMissingProduct(t *testing.T) {
	p := catalogProduct("Banc d'entrée", "95.00", 4)
	products := newFakeProductStore(p)
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)
	ctx := context.Background()

	created, err := engine.CreateOrder(ctx, customer,
		validInput(OrderItemInput{ProductID: p.ID.String(), Quantity: 1}))
	require.NoError(t, err)

	// Le produit disparaît du catalogue avant la suppression de la commande.
	delete(products.products, p.ID)

	err = engine.DeleteOrder(ctx, admin, created.ID.String())
	require.NoError(t, err)
	assert.Empty(t, orders.orders)
}

func TestListOrdersScopes(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	ctx := context.Background()

	createTestOrder(t, engine, products, customer)
	createTestOrder(t, engine, products, stranger)

	page := query.Parse("", "", "")

	mine, total, err := engine.ListOrders(ctx, customer, ScopeOwn, page)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, customer.ID, mine[0].UserID)

	// scope=all exige le rôle admin.
	_, _, err = engine.ListOrders(ctx, customer, ScopeAll, page)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	all, total, err := engine.ListOrders(ctx, admin, ScopeAll, page)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)
}

func TestUpdateOrderAdminOnly(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)

	_, err := engine.UpdateOrder(context.Background(), customer, created.ID.String(),
		[]byte(`{"status":"paid"}`))
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestUpdateOrderRejectsUnknownFieldWholesale(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)
	created := createTestOrder(t, engine, products, customer)

	// Une clé inconnue rejette tout, y compris le statut pourtant valide.
	_, err := engine.UpdateOrder(context.Background(), admin, created.ID.String(),
		[]byte(`{"status":"paid","foo":"bar"}`))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	stored := orders.orders[created.ID]
	assert.Equal(t, models.OrderPending, stored.Status, "aucune application partielle")
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	engine := newOrderEngine(products, orders)
	created := createTestOrder(t, engine, products, customer)
	ctx := context.Background()

	// pending → paid : légal.
	updated, err := engine.UpdateOrder(ctx, admin, created.ID.String(), []byte(`{"status":"paid"}`))
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, updated.Status)

	// paid → shipped : saute processing, illégal.
	_, err = engine.UpdateOrder(ctx, admin, created.ID.String(), []byte(`{"status":"shipped"}`))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	// paid → cancelled : légal depuis tout état non terminal.
	updated, err = engine.UpdateOrder(ctx, admin, created.ID.String(), []byte(`{"status":"cancelled"}`))
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.Status)

	// cancelled est terminal.
	_, err = engine.UpdateOrder(ctx, admin, created.ID.String(), []byte(`{"status":"paid"}`))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestUpdateOrderRecomputesTotal(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)

	// ItemsPrice figé à 300.00 (2 × 150.00), taxe 2.00 + livraison 5.00 à la création.
	updated, err := engine.UpdateOrder(context.Background(), admin, created.ID.String(),
		[]byte(`{"taxPrice":"10.00","shippingPrice":"0.00"}`))
	require.NoError(t, err)

	assert.True(t, updated.ItemsPrice.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, updated.TotalPrice.Equal(decimal.RequireFromString("310.00")))
}

func TestUpdateOrderEmptyBody(t *testing.T) {
	products := newFakeProductStore()
	engine := newOrderEngine(products, newFakeOrderStore())
	created := createTestOrder(t, engine, products, customer)

	_, err := engine.UpdateOrder(context.Background(), admin, created.ID.String(), []byte(`{}`))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}
