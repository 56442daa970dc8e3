package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

// Champs mutables par UpdateOrder. Toute autre clé rejette la requête
// entière en InvalidArgument, sans application partielle.
var allowedPatchFields = map[string]struct{}{
	"shippingAddress": {},
	"paymentMethod":   {},
	"taxPrice":        {},
	"shippingPrice":   {},
	"isPaid":          {},
	"isDelivered":     {},
	"status":          {},
}

type Patch struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   *string                 `json:"paymentMethod"`
	TaxPrice        *decimal.Decimal        `json:"taxPrice"`
	ShippingPrice   *decimal.Decimal        `json:"shippingPrice"`
	IsPaid          *bool                   `json:"isPaid"`
	IsDelivered     *bool                   `json:"isDelivered"`
	Status          *models.OrderStatus     `json:"status"`
}

// ParsePatch contrôle d'abord les clés brutes, puis décode. Le contrôle sur
// le JSON brut garantit le rejet en bloc des clés inconnues.
func ParsePatch(raw []byte) (*Patch, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, apperr.InvalidArgument("Corps de requête invalide")
	}
	if len(keys) == 0 {
		return nil, apperr.InvalidArgument("Aucun champ à mettre à jour")
	}
	for key := range keys {
		if _, ok := allowedPatchFields[key]; !ok {
			return nil, apperr.InvalidArgument("Champ non modifiable: %s", key)
		}
	}

	var patch Patch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, apperr.InvalidArgument("Corps de requête invalide")
	}
	return &patch, nil
}

// Apply pose le patch sur la commande. Le changement de statut passe par la
// table de transitions ; items et items_price restent figés, mais le total
// est recalculé si les suppléments changent.
func (p *Patch) Apply(order *models.Order, now time.Time) error {
	if p.Status != nil {
		next := *p.Status
		if !next.Valid() {
			return apperr.InvalidArgument("Statut inconnu: %s", next)
		}
		if next != order.Status && !order.Status.CanTransitionTo(next) {
			return apperr.InvalidArgument("Transition de statut invalide: %s → %s", order.Status, next)
		}
		order.Status = next
	}

	if p.ShippingAddress != nil {
		if p.ShippingAddress.IsZero() {
			return apperr.InvalidArgument("Adresse de livraison requise")
		}
		order.ShippingAddress = *p.ShippingAddress
	}
	if p.PaymentMethod != nil {
		if *p.PaymentMethod == "" {
			return apperr.InvalidArgument("Moyen de paiement requis")
		}
		order.PaymentMethod = *p.PaymentMethod
	}

	recompute := false
	if p.TaxPrice != nil {
		if p.TaxPrice.IsNegative() {
			return apperr.InvalidArgument("Les suppléments ne peuvent pas être négatifs")
		}
		order.TaxPrice = *p.TaxPrice
		recompute = true
	}
	if p.ShippingPrice != nil {
		if p.ShippingPrice.IsNegative() {
			return apperr.InvalidArgument("Les suppléments ne peuvent pas être négatifs")
		}
		order.ShippingPrice = *p.ShippingPrice
		recompute = true
	}
	if recompute {
		order.TotalPrice = order.ItemsPrice.Add(order.TaxPrice).Add(order.ShippingPrice)
	}

	if p.IsPaid != nil && *p.IsPaid != order.IsPaid {
		order.IsPaid = *p.IsPaid
		if *p.IsPaid {
			order.PaidAt = &now
		} else {
			order.PaidAt = nil
		}
	}
	if p.IsDelivered != nil && *p.IsDelivered != order.IsDelivered {
		order.IsDelivered = *p.IsDelivered
		if *p.IsDelivered {
			order.DeliveredAt = &now
		} else {
			order.DeliveredAt = nil
		}
	}

	order.UpdatedAt = now
	return nil
}
