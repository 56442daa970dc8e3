package models

import "github.com/shopspring/decimal"

// Cart est le panier mutable d'un utilisateur (un seul panier par user).
// Le prix d'une ligne suit le prix catalogue courant : il est rafraîchi à
// chaque ré-ajout, contrairement aux lignes de commande qui sont figées.
type Cart struct {
	UserID     string          `json:"user_id"`
	Items      []CartLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// EmptyCart renvoie le panier synthétique {items: [], total: 0}. Les appelants
// ne distinguent jamais "jamais créé" de "vide".
func EmptyCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartLine{}, TotalPrice: decimal.Zero}
}

// Recalculate recalcule le total à partir des lignes. Jamais stocké
// indépendamment : toute mutation doit repasser par ici.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, line := range c.Items {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	c.TotalPrice = total
}

// FindLine renvoie l'index de la ligne du produit, ou -1.
func (c *Cart) FindLine(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
