package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := models.Actor{ID: "u1", Role: models.RoleUser}
	other := models.Actor{ID: "u2", Role: models.RoleUser}
	root := models.Actor{ID: "u3", Role: models.RoleAdmin}

	assert.NoError(t, RequireOwnerOrAdmin(owner, "u1"))
	assert.NoError(t, RequireOwnerOrAdmin(root, "u1"))
	assert.True(t, apperr.IsKind(RequireOwnerOrAdmin(other, "u1"), apperr.KindForbidden))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(models.Actor{ID: "u1", Role: models.RoleAdmin}))
	assert.True(t, apperr.IsKind(RequireAdmin(models.Actor{ID: "u2", Role: models.RoleUser}), apperr.KindForbidden))
	assert.True(t, apperr.IsKind(RequireAdmin(models.Actor{ID: "u3"}), apperr.KindForbidden))
}
