package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("Produit introuvable")))
	assert.Equal(t, KindInsufficientStock, KindOf(InsufficientStock("Stock insuffisant")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(Internal(errors.New("boom"), "écriture impossible")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("contexte: %w", Forbidden("Accès refusé"))
	assert.True(t, IsKind(err, KindForbidden))
	assert.Equal(t, "Accès refusé", PublicMessage(err))
}

func TestPublicMessageMasksInternal(t *testing.T) {
	err := Internal(errors.New("gocql: no hosts available"), "lecture commande")
	assert.Equal(t, "Erreur interne du serveur", PublicMessage(err))
	assert.Equal(t, "Erreur interne du serveur", PublicMessage(errors.New("brut")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{NotFound("x"), http.StatusNotFound},
		{InvalidArgument("x"), http.StatusBadRequest},
		{InsufficientStock("x"), http.StatusBadRequest},
		{AlreadyPaid("x"), http.StatusBadRequest},
		{AlreadyDelivered("x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{Conflict("x"), http.StatusConflict},
		{Internal(nil, "x"), http.StatusInternalServerError},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, HTTPStatus(c.err))
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause première")
	err := Internal(cause, "enveloppe")
	assert.True(t, errors.Is(err, cause))
}
