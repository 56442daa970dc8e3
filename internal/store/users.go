package store

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// ScyllaUserStore porte les comptes dans le keyspace users.
type ScyllaUserStore struct{}

func NewScyllaUserStore() *ScyllaUserStore {
	return &ScyllaUserStore{}
}

const userColumns = `user_id, name, email, phone, password, role, avatar_url`

func (s *ScyllaUserStore) Create(ctx context.Context, u *models.User) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return apperr.Internal(err, "Erreur connexion base de données")
	}

	// email unique : insertion conditionnelle sur la table d'unicité
	applied, err := session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		u.Email, u.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return apperr.Internal(err, "Erreur création utilisateur")
	}
	if !applied {
		return apperr.Conflict("Un compte existe déjà avec cet e-mail")
	}

	if err := session.Query(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Phone, u.Password, u.Role, u.AvatarURL,
	).WithContext(ctx).Exec(); err != nil {
		return apperr.Internal(err, "Erreur création utilisateur")
	}
	return nil
}

func (s *ScyllaUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, apperr.Internal(err, "Erreur connexion base de données")
	}

	var u models.User
	if err := session.Query(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).
		WithContext(ctx).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role, &u.AvatarURL); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, apperr.NotFound("Utilisateur introuvable")
		}
		return nil, apperr.Internal(err, "Erreur lecture utilisateur")
	}
	return &u, nil
}

func (s *ScyllaUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, apperr.Internal(err, "Erreur connexion base de données")
	}

	var userID string
	if err := session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
		WithContext(ctx).Scan(&userID); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, apperr.NotFound("Utilisateur introuvable")
		}
		return nil, apperr.Internal(err, "Erreur lecture utilisateur")
	}
	return s.GetByID(ctx, userID)
}
