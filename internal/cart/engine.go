// Package cart implémente le moteur de panier : une collection mutable par
// utilisateur, dont les prix de ligne suivent le catalogue courant.
package cart

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

// ProductReader est la vue catalogue dont le panier a besoin.
type ProductReader interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
}

// CartStore est le stockage panier. Mutate doit être un
// read-modify-write atomique (voir store.RedisCartStore).
type CartStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Mutate(ctx context.Context, userID string, fn func(cart *models.Cart) error) (*models.Cart, error)
}

type Engine struct {
	products ProductReader
	carts    CartStore
}

func NewEngine(products ProductReader, carts CartStore) *Engine {
	return &Engine{products: products, carts: carts}
}

// GetCart renvoie le panier de l'utilisateur, vide s'il n'existe pas encore.
func (e *Engine) GetCart(ctx context.Context, actor models.Actor) (*models.Cart, error) {
	return e.carts.Get(ctx, actor.ID)
}

// AddItem ajoute quantity unités du produit. Si une ligne existe déjà, sa
// quantité est incrémentée et son prix unitaire rafraîchi au prix catalogue
// courant (le panier reflète "l'offre du moment", pas l'historique).
func (e *Engine) AddItem(ctx context.Context, actor models.Actor, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.InvalidArgument("Quantité invalide")
	}

	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	product, err := e.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return e.carts.Mutate(ctx, actor.ID, func(cart *models.Cart) error {
		if i := cart.FindLine(productID); i >= 0 {
			cart.Items[i].Quantity += quantity
			cart.Items[i].UnitPrice = product.Price // prix resynchronisé
			cart.Items[i].Name = product.Name
			cart.Items[i].ImageURL = product.ImageURL
			return nil
		}
		cart.Items = append(cart.Items, models.CartLine{
			ProductID: productID,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
		return nil
	})
}

// UpdateItemQuantity fixe la quantité d'une ligne existante (≥ 1).
func (e *Engine) UpdateItemQuantity(ctx context.Context, actor models.Actor, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.InvalidArgument("Quantité invalide")
	}

	return e.carts.Mutate(ctx, actor.ID, func(cart *models.Cart) error {
		i := cart.FindLine(productID)
		if i < 0 {
			return apperr.NotFound("Produit introuvable dans le panier")
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem retire la ligne du produit. Idempotent : retirer une ligne
// absente est un succès silencieux.
func (e *Engine) RemoveItem(ctx context.Context, actor models.Actor, productID string) (*models.Cart, error) {
	return e.carts.Mutate(ctx, actor.ID, func(cart *models.Cart) error {
		if i := cart.FindLine(productID); i >= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		}
		return nil
	})
}

// ClearCart vide toutes les lignes. Le panier lui-même survit (vide).
func (e *Engine) ClearCart(ctx context.Context, actor models.Actor) (*models.Cart, error) {
	return e.carts.Mutate(ctx, actor.ID, func(cart *models.Cart) error {
		cart.Items = []models.CartLine{}
		return nil
	})
}

func parseProductID(productID string) (gocql.UUID, error) {
	parsed, err := uuid.Parse(productID)
	if err != nil {
		return gocql.UUID{}, apperr.InvalidArgument("ID produit invalide: %s", productID)
	}
	return gocql.UUID(parsed), nil
}
