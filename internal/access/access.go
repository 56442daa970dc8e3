// Package access centralise les vérifications propriétaire/rôle, au lieu de
// dupliquer le test "owner ou admin" dans chaque handler.
package access

import (
	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

// RequireOwnerOrAdmin échoue en Forbidden sauf si l'acteur possède la
// ressource ou porte le rôle admin.
func RequireOwnerOrAdmin(actor models.Actor, ownerID string) error {
	if actor.ID == ownerID || actor.IsAdmin() {
		return nil
	}
	return apperr.Forbidden("Accès refusé")
}

// RequireAdmin échoue en Forbidden si l'acteur n'est pas admin.
func RequireAdmin(actor models.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return apperr.Forbidden("Accès réservé aux administrateurs")
}
