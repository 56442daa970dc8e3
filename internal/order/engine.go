// Package order implémente le moteur de commandes : conversion d'un panier
// mutable en enregistrement figé, avec décrément de stock conditionnel et
// machine à états sur le statut.
package order

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"velora_back_end/internal/access"
	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
	"velora_back_end/internal/query"
)

// ProductStore est la vue catalogue du moteur : lecture + opérations de
// stock atomiques (décrément conditionnel, restauration).
type ProductStore interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, id gocql.UUID, qty int, orderID *gocql.UUID, userID string) error
	RestoreStock(ctx context.Context, id gocql.UUID, qty int, orderID *gocql.UUID, userID string) error
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id gocql.UUID) (*models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id gocql.UUID) error
	ListByUser(ctx context.Context, userID string, p query.Page) ([]models.Order, int, error)
	ListAll(ctx context.Context, p query.Page) ([]models.Order, int, error)
	ForEach(ctx context.Context, fn func(o *models.Order) error) error
}

type Engine struct {
	products ProductStore
	orders   OrderStore
	now      func() time.Time
}

func NewEngine(products ProductStore, orders OrderStore) *Engine {
	return &Engine{products: products, orders: orders, now: time.Now}
}

type OrderItemInput struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TaxPrice        decimal.Decimal        `json:"taxPrice"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice"`
}

// CreateOrder valide tout avant de toucher quoi que ce soit : existence des
// produits, stock suffisant, entrées bien formées. Les prix de ligne sont
// figés au prix catalogue de cet instant (jamais le snapshot du panier ni un
// prix soumis par le client). Les décréments de stock sont conditionnels et
// compensés : si l'un échoue, ceux déjà appliqués sont restaurés et aucune
// commande n'est persistée.
func (e *Engine) CreateOrder(ctx context.Context, actor models.Actor, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.InvalidArgument("La commande doit contenir au moins un article")
	}
	if input.ShippingAddress.IsZero() {
		return nil, apperr.InvalidArgument("Adresse de livraison requise")
	}
	if input.PaymentMethod == "" {
		return nil, apperr.InvalidArgument("Moyen de paiement requis")
	}
	if input.TaxPrice.IsNegative() || input.ShippingPrice.IsNegative() {
		return nil, apperr.InvalidArgument("Les suppléments ne peuvent pas être négatifs")
	}

	items, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}

	// Passe 1 : validation complète avant toute mutation.
	var lines []pendingLine
	itemsPrice := decimal.Zero

	for _, item := range items {
		id, err := parseProductID(item.ProductID)
		if err != nil {
			return nil, err
		}

		product, err := e.products.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, apperr.InsufficientStock("Stock insuffisant pour %s (disponible: %d, demandé: %d)",
				product.Name, product.Stock, item.Quantity)
		}

		line := models.OrderLine{
			ProductID: item.ProductID,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: product.Price, // prix figé à cet instant
		}
		itemsPrice = itemsPrice.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lines = append(lines, pendingLine{id: id, line: line})
	}

	orderID := gocql.TimeUUID()

	// Passe 2 : décréments conditionnels, tout ou rien.
	var applied []pendingLine
	for _, p := range lines {
		if err := e.products.DecrementStock(ctx, p.id, p.line.Quantity, &orderID, actor.ID); err != nil {
			e.rollbackStock(ctx, applied, &orderID, actor.ID)
			return nil, err
		}
		applied = append(applied, p)
	}

	now := e.now().UTC()
	order := &models.Order{
		ID:              orderID,
		UserID:          actor.ID,
		Items:           make([]models.OrderLine, 0, len(lines)),
		ItemsPrice:      itemsPrice,
		TaxPrice:        input.TaxPrice,
		ShippingPrice:   input.ShippingPrice,
		TotalPrice:      itemsPrice.Add(input.TaxPrice).Add(input.ShippingPrice),
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Status:          models.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, p := range lines {
		order.Items = append(order.Items, p.line)
	}

	if err := e.orders.Insert(ctx, order); err != nil {
		e.rollbackStock(ctx, applied, &orderID, actor.ID)
		return nil, err
	}

	return order, nil
}

type pendingLine struct {
	id   gocql.UUID
	line models.OrderLine
}

// rollbackStock compense les décréments déjà appliqués d'une commande
// avortée. Best-effort : un échec est tracé, pas propagé.
func (e *Engine) rollbackStock(ctx context.Context, applied []pendingLine, orderID *gocql.UUID, userID string) {
	for _, p := range applied {
		if err := e.products.RestoreStock(ctx, p.id, p.line.Quantity, orderID, userID); err != nil {
			log.Printf("❌ Rollback stock échoué pour produit %s: %v", p.id, err)
		}
	}
}

// GetOrderByID renvoie la commande si l'acteur la possède ou est admin.
func (e *Engine) GetOrderByID(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	order, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwnerOrAdmin(actor, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// Pay marque la commande payée. Re-payer est une erreur explicite, pas un
// succès silencieux. Le statut avance vers "paid" seulement si la transition
// est légale, sinon il ne bouge pas.
func (e *Engine) Pay(ctx context.Context, actor models.Actor, id string, result *models.PaymentResult) (*models.Order, error) {
	order, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwnerOrAdmin(actor, order.UserID); err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, apperr.AlreadyPaid("Commande déjà payée")
	}

	now := e.now().UTC()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = result
	if order.Status.CanTransitionTo(models.OrderPaid) {
		order.Status = models.OrderPaid
	}
	order.UpdatedAt = now

	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Deliver marque la commande livrée (admin uniquement).
func (e *Engine) Deliver(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}

	order, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered {
		return nil, apperr.AlreadyDelivered("Commande déjà livrée")
	}

	now := e.now().UTC()
	order.IsDelivered = true
	order.DeliveredAt = &now
	if order.Status.CanTransitionTo(models.OrderDelivered) {
		order.Status = models.OrderDelivered
	}
	order.UpdatedAt = now

	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrder applique un patch admin restreint. Toute clé hors liste
// blanche rejette la requête entière, sans application partielle.
func (e *Engine) UpdateOrder(ctx context.Context, actor models.Actor, id string, raw []byte) (*models.Order, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}

	patch, err := ParsePatch(raw)
	if err != nil {
		return nil, err
	}

	order, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := patch.Apply(order, e.now().UTC()); err != nil {
		return nil, err
	}

	if err := e.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder supprime définitivement une commande (admin) après avoir
// restauré le stock consommé par chacune de ses lignes. Un produit disparu
// entre-temps n'a plus de stock à restaurer ; toute autre erreur de
// restauration annule la suppression, pour que la commande reste
// rejouable au lieu de perdre la restauration.
func (e *Engine) DeleteOrder(ctx context.Context, actor models.Actor, id string) error {
	if err := access.RequireAdmin(actor); err != nil {
		return err
	}

	order, err := e.get(ctx, id)
	if err != nil {
		return err
	}

	for _, line := range order.Items {
		pid, err := parseProductID(line.ProductID)
		if err != nil {
			log.Printf("⚠️ Ligne de commande avec ID produit invalide: %s", line.ProductID)
			continue
		}
		if err := e.products.RestoreStock(ctx, pid, line.Quantity, &order.ID, actor.ID); err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				log.Printf("⚠️ Produit %s supprimé entre-temps, stock non restauré", line.ProductID)
				continue
			}
			return err
		}
	}

	return e.orders.Delete(ctx, order.ID)
}

// ListScope : périmètre d'un listing de commandes.
type ListScope string

const (
	ScopeOwn ListScope = "own"
	ScopeAll ListScope = "all"
)

// ListOrders renvoie les commandes du périmètre demandé. scope=all exige le
// rôle admin.
func (e *Engine) ListOrders(ctx context.Context, actor models.Actor, scope ListScope, p query.Page) ([]models.Order, int, error) {
	switch scope {
	case ScopeOwn:
		return e.orders.ListByUser(ctx, actor.ID, p)
	case ScopeAll:
		if err := access.RequireAdmin(actor); err != nil {
			return nil, 0, err
		}
		return e.orders.ListAll(ctx, p)
	default:
		return nil, 0, apperr.InvalidArgument("Périmètre invalide: %s", scope)
	}
}

func (e *Engine) get(ctx context.Context, id string) (*models.Order, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidArgument("ID commande invalide: %s", id)
	}
	return e.orders.Get(ctx, gocql.UUID(parsed))
}

// mergeItems fusionne les doublons de produit en une seule ligne (le panier
// garantit une ligne par produit ; on ne décrémente jamais deux fois).
func mergeItems(items []OrderItemInput) ([]OrderItemInput, error) {
	index := make(map[string]int, len(items))
	merged := make([]OrderItemInput, 0, len(items))

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, apperr.InvalidArgument("Quantité invalide pour le produit %s", item.ProductID)
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func parseProductID(productID string) (gocql.UUID, error) {
	parsed, err := uuid.Parse(productID)
	if err != nil {
		return gocql.UUID{}, apperr.InvalidArgument("ID produit invalide: %s", productID)
	}
	return gocql.UUID(parsed), nil
}
