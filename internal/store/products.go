package store

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/query"
)

// Nombre de tentatives CAS avant d'abandonner en Conflict. Sous contention
// normale une ou deux suffisent.
const stockCASRetries = 5

// ScyllaProductStore porte le catalogue dans le keyspace products.
// La colonne price est stockée en text et convertie en decimal côté Go.
type ScyllaProductStore struct{}

func NewScyllaProductStore() *ScyllaProductStore {
	return &ScyllaProductStore{}
}

const productColumns = `product_id, owner_id, name, description, price, stock, category, image_url, image_id, created_at, updated_at`

func scanProduct(scan func(...interface{}) error) (*models.Product, error) {
	var p models.Product
	var price string
	if err := scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &price, &p.Stock,
		&p.Category, &p.ImageURL, &p.ImageID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	p.Price = d
	return &p, nil
}

func (s *ScyllaProductStore) GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, apperr.Internal(err, "Erreur connexion base de données")
	}

	q := session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).WithContext(ctx)
	p, err := scanProduct(q.Scan)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, apperr.NotFound("Produit introuvable: %s", id)
		}
		return nil, apperr.Internal(err, "Erreur lecture produit")
	}
	return p, nil
}

// ListProducts itère la table entière puis délègue le façonnage à query.
// Même discipline que le dashboard : pas d'ORDER BY serveur sur une partition
// multiple, le tri se fait en mémoire.
func (s *ScyllaProductStore) ListProducts(ctx context.Context, category string, p query.Page) ([]models.Product, int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, 0, apperr.Internal(err, "Erreur connexion base de données")
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()
	var all []models.Product
	for {
		prod, err := scanProduct(func(dest ...interface{}) error {
			if !iter.Scan(dest...) {
				return gocql.ErrNotFound
			}
			return nil
		})
		if errors.Is(err, gocql.ErrNotFound) {
			break // itération terminée
		}
		if err != nil {
			// ligne indécodable : on remonte au lieu de tronquer la liste
			iter.Close()
			return nil, 0, apperr.Internal(err, "Erreur décodage produit")
		}
		if category == "" || prod.Category == category {
			all = append(all, *prod)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, 0, apperr.Internal(err, "Erreur lecture produits")
	}

	sortProductsByCreatedAt(all, p.Desc)
	return query.Slice(all, p), len(all), nil
}

func sortProductsByCreatedAt(products []models.Product, desc bool) {
	sort.Slice(products, func(i, j int) bool {
		if desc {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
}

func (s *ScyllaProductStore) CreateProduct(ctx context.Context, p *models.Product) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	if err := session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Description, p.Price.String(), p.Stock,
		p.Category, p.ImageURL, p.ImageID, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur création produit")
	}
	return nil
}

func (s *ScyllaProductStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	if err := session.Query(`UPDATE products SET owner_id = ?, name = ?, description = ?, price = ?, category = ?, image_url = ?, image_id = ?, updated_at = ? WHERE product_id = ?`,
		p.OwnerID, p.Name, p.Description, p.Price.String(), p.Category,
		p.ImageURL, p.ImageID, p.UpdatedAt, p.ID,
	).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur mise à jour produit")
	}
	return nil
}

func (s *ScyllaProductStore) DeleteProduct(ctx context.Context, id gocql.UUID) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	if err := session.Query(`DELETE FROM products WHERE product_id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur suppression produit")
	}
	return nil
}

// DecrementStock décrémente le stock de façon conditionnelle et atomique :
// UPDATE ... IF stock = ? (LWT). Refuse en InsufficientStock si le stock
// courant ne couvre pas la quantité, Conflict si le CAS n'aboutit jamais.
// Le stock ne devient jamais négatif, même sous concurrence.
func (s *ScyllaProductStore) DecrementStock(ctx context.Context, id gocql.UUID, qty int, orderID *gocql.UUID, userID string) error {
	return s.applyStockDelta(ctx, id, -qty, "sale", "Commande validée", orderID, userID)
}

// RestoreStock ré-incrémente le stock (suppression de commande, rollback).
func (s *ScyllaProductStore) RestoreStock(ctx context.Context, id gocql.UUID, qty int, orderID *gocql.UUID, userID string) error {
	return s.applyStockDelta(ctx, id, qty, "return", "Stock restauré", orderID, userID)
}

// AdjustStock applique un restock (+N) ou un ajustement absolu, côté admin.
func (s *ScyllaProductStore) AdjustStock(ctx context.Context, id gocql.UUID, movementType string, qty int, reason, userID string) (prev, next int, err error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, 0, apperr.Internal(err, "Erreur connexion base de données")
	}

	for attempt := 0; attempt < stockCASRetries; attempt++ {
		var current int
		if err := session.Query(`SELECT stock FROM products WHERE product_id = ?`, id).
			WithContext(ctx).Scan(&current); err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return 0, 0, apperr.NotFound("Produit introuvable: %s", id)
			}
			return 0, 0, apperr.Internal(err, "Erreur lecture stock")
		}

		var target int
		switch movementType {
		case "restock":
			target = current + qty
		case "adjustment":
			target = qty // quantité absolue
		default:
			return 0, 0, apperr.InvalidArgument("Type d'opération invalide: %s", movementType)
		}
		if target < 0 {
			return 0, 0, apperr.InvalidArgument("Le stock ne peut pas être négatif")
		}

		applied, err := s.casStock(ctx, session, id, current, target)
		if err != nil {
			return 0, 0, err
		}
		if applied {
			s.recordMovement(ctx, session, id, movementType, qty, current, target, reason, nil, userID)
			return current, target, nil
		}
	}
	return 0, 0, apperr.Conflict("Stock modifié concurremment, réessayez")
}

func (s *ScyllaProductStore) applyStockDelta(ctx context.Context, id gocql.UUID, delta int, movementType, reason string, orderID *gocql.UUID, userID string) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	for attempt := 0; attempt < stockCASRetries; attempt++ {
		var current int
		var name string
		if err := session.Query(`SELECT stock, name FROM products WHERE product_id = ?`, id).
			WithContext(ctx).Scan(&current, &name); err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return apperr.NotFound("Produit introuvable: %s", id)
			}
			return apperr.Internal(err, "Erreur lecture stock")
		}

		target := current + delta
		if target < 0 {
			return apperr.InsufficientStock("Stock insuffisant pour %s (disponible: %d, demandé: %d)",
				name, current, -delta)
		}

		applied, err := s.casStock(ctx, session, id, current, target)
		if err != nil {
			return err
		}
		if applied {
			qty := delta
			if qty < 0 {
				qty = -qty
			}
			s.recordMovement(ctx, session, id, movementType, qty, current, target, reason, orderID, userID)
			return nil
		}
		// stock modifié entre le SELECT et le CAS, on recommence
	}
	return apperr.Conflict("Stock modifié concurremment, réessayez")
}

func (s *ScyllaProductStore) casStock(ctx context.Context, session *gocql.Session, id gocql.UUID, expected, target int) (bool, error) {
	var prev int
	applied, err := session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
		target, time.Now().UTC(), id, expected,
	).WithContext(ctx).ScanCAS(&prev)
	if err != nil {
		return false, apperr.Internal(err, "Erreur mise à jour stock")
	}
	return applied, nil
}

// recordMovement trace le mouvement de stock. Best-effort : un échec
// d'audit ne doit pas annuler la commande.
func (s *ScyllaProductStore) recordMovement(ctx context.Context, session *gocql.Session, productID gocql.UUID, movementType string, qty, prev, next int, reason string, orderID *gocql.UUID, userID string) {
	movement := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      movementType,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  next,
		Reason:    reason,
		OrderID:   orderID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	if err := session.Query(`INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity,
		movement.PrevStock, movement.NewStock, movement.Reason, movement.OrderID,
		movement.UserID, movement.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}

// StockMovements renvoie l'historique, filtrable par produit.
func (s *ScyllaProductStore) StockMovements(ctx context.Context, productID *gocql.UUID, limit int) ([]models.StockMovement, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, apperr.Internal(err, "Erreur connexion base de données")
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var iter *gocql.Iter
	if productID != nil {
		iter = session.Query(`SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at FROM stock_movements WHERE product_id = ? LIMIT ? ALLOW FILTERING`,
			*productID, limit).WithContext(ctx).Iter()
	} else {
		iter = session.Query(`SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at FROM stock_movements LIMIT ?`,
			limit).WithContext(ctx).Iter()
	}

	var movements []models.StockMovement
	var m models.StockMovement
	for iter.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.PrevStock,
		&m.NewStock, &m.Reason, &m.OrderID, &m.UserID, &m.CreatedAt) {
		movements = append(movements, m)
	}
	if err := iter.Close(); err != nil {
		return nil, apperr.Internal(err, "Erreur lecture mouvements")
	}
	return movements, nil
}
