package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/query"
)

// ScyllaOrderStore persiste les commandes dans le keyspace orders. Une
// commande est un enregistrement figé : les lignes, l'adresse et le reçu de
// paiement sont sérialisés en JSON, les montants en text (decimal côté Go).
type ScyllaOrderStore struct{}

func NewScyllaOrderStore() *ScyllaOrderStore {
	return &ScyllaOrderStore{}
}

const orderColumns = `order_id, user_id, items, items_price, tax_price, shipping_price, total_price, shipping_address, payment_method, payment_result, status, is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at`

func (s *ScyllaOrderStore) Insert(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return apperr.Internal(err, "Erreur sérialisation commande")
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return apperr.Internal(err, "Erreur sérialisation commande")
	}
	paymentResult := marshalPaymentResult(o.PaymentResult)

	if err := session.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(items), o.ItemsPrice.String(), o.TaxPrice.String(),
		o.ShippingPrice.String(), o.TotalPrice.String(), string(address),
		o.PaymentMethod, paymentResult, string(o.Status), o.IsPaid, o.PaidAt,
		o.IsDelivered, o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur création commande")
	}
	return nil
}

func (s *ScyllaOrderStore) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, apperr.Internal(err, "Erreur connexion base de données")
	}

	q := session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx)
	o, err := scanOrder(q.Scan)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, apperr.NotFound("Commande introuvable: %s", id)
		}
		return nil, apperr.Internal(err, "Erreur lecture commande")
	}
	return o, nil
}

// Update réécrit les champs mutables (statut, flags, adresse, montants
// annexes). Les lignes et items_price ne bougent jamais après création.
func (s *ScyllaOrderStore) Update(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return apperr.Internal(err, "Erreur sérialisation commande")
	}
	paymentResult := marshalPaymentResult(o.PaymentResult)

	if err := session.Query(`UPDATE orders SET tax_price = ?, shipping_price = ?, total_price = ?, shipping_address = ?, payment_method = ?, payment_result = ?, status = ?, is_paid = ?, paid_at = ?, is_delivered = ?, delivered_at = ?, updated_at = ? WHERE order_id = ?`,
		o.TaxPrice.String(), o.ShippingPrice.String(), o.TotalPrice.String(),
		string(address), o.PaymentMethod, paymentResult, string(o.Status),
		o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.UpdatedAt, o.ID,
	).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur mise à jour commande")
	}
	return nil
}

func (s *ScyllaOrderStore) Delete(ctx context.Context, id gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	if err := session.Query(`DELETE FROM orders WHERE order_id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur suppression commande")
	}
	return nil
}

// ListByUser renvoie les commandes d'un utilisateur, plus récentes d'abord.
func (s *ScyllaOrderStore) ListByUser(ctx context.Context, userID string, p query.Page) ([]models.Order, int, error) {
	return s.list(ctx, &userID, p)
}

// ListAll renvoie toutes les commandes (vue admin).
func (s *ScyllaOrderStore) ListAll(ctx context.Context, p query.Page) ([]models.Order, int, error) {
	return s.list(ctx, nil, p)
}

func (s *ScyllaOrderStore) list(ctx context.Context, userID *string, p query.Page) ([]models.Order, int, error) {
	var all []models.Order
	err := s.ForEach(ctx, func(o *models.Order) error {
		if userID == nil || o.UserID == *userID {
			all = append(all, *o)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sortOrdersByCreatedAt(all, p.Desc)
	return query.Slice(all, p), len(all), nil
}

// ForEach itère toutes les commandes (stats, listes). Même discipline que le
// dashboard : itération complète côté client.
func (s *ScyllaOrderStore) ForEach(ctx context.Context, fn func(o *models.Order) error) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	iter := session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()
	for {
		o, err := scanOrder(func(dest ...interface{}) error {
			if !iter.Scan(dest...) {
				return gocql.ErrNotFound
			}
			return nil
		})
		if errors.Is(err, gocql.ErrNotFound) {
			break // itération terminée
		}
		if err != nil {
			// ligne indécodable : on remonte au lieu de tronquer stats et listes
			iter.Close()
			return apperr.Internal(err, "Erreur décodage commande")
		}
		if err := fn(o); err != nil {
			iter.Close()
			return err
		}
	}
	if err := iter.Close(); err != nil {
		return apperr.Internal(err, "Erreur lecture commandes")
	}
	return nil
}

func scanOrder(scan func(...interface{}) error) (*models.Order, error) {
	var o models.Order
	var items, itemsPrice, taxPrice, shippingPrice, totalPrice, address, paymentResult, status string

	if err := scan(&o.ID, &o.UserID, &items, &itemsPrice, &taxPrice, &shippingPrice,
		&totalPrice, &address, &o.PaymentMethod, &paymentResult, &status,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(address), &o.ShippingAddress); err != nil {
		return nil, err
	}
	if paymentResult != "" {
		var pr models.PaymentResult
		if err := json.Unmarshal([]byte(paymentResult), &pr); err != nil {
			return nil, err
		}
		o.PaymentResult = &pr
	}

	var err error
	if o.ItemsPrice, err = decimal.NewFromString(itemsPrice); err != nil {
		return nil, err
	}
	if o.TaxPrice, err = decimal.NewFromString(taxPrice); err != nil {
		return nil, err
	}
	if o.ShippingPrice, err = decimal.NewFromString(shippingPrice); err != nil {
		return nil, err
	}
	if o.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

func marshalPaymentResult(pr *models.PaymentResult) string {
	if pr == nil {
		return ""
	}
	data, err := json.Marshal(pr)
	if err != nil {
		return ""
	}
	return string(data)
}

func sortOrdersByCreatedAt(orders []models.Order, desc bool) {
	sort.Slice(orders, func(i, j int) bool {
		if desc {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
