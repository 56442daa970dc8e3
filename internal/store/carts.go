package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

const (
	CartTTL = 30 * 24 * time.Hour // 30 jours

	// tentatives WATCH avant d'abandonner en Conflict
	cartTxRetries = 5
)

// RedisCartStore porte le panier de chaque utilisateur sous cart:{userID}.
// Toute mutation passe par Mutate : lecture + modification + écriture dans
// une transaction optimiste (WATCH), pour que deux AddItem concurrents sur le
// même panier ne s'écrasent pas (read-modify-write atomique).
type RedisCartStore struct{}

func NewRedisCartStore() *RedisCartStore {
	return &RedisCartStore{}
}

func (s *RedisCartStore) redis() *redis.Client {
	return database.Redis
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// Get renvoie le panier, ou le panier synthétique vide s'il n'existe pas
// encore. Les appelants ne distinguent jamais les deux cas.
func (s *RedisCartStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := s.redis().Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) || data == "" {
		return models.EmptyCart(userID), nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "Erreur lecture panier")
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, apperr.Internal(err, "Erreur décodage panier")
	}
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}
	return &cart, nil
}

// Mutate applique fn au panier courant puis le réécrit, sous WATCH. Si la clé
// change entre lecture et écriture la transaction est rejouée ; au-delà de
// cartTxRetries on renvoie Conflict. Le panier vidé est réécrit tel quel, la
// clé n'est jamais supprimée (le panier survit, vide).
func (s *RedisCartStore) Mutate(ctx context.Context, userID string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	key := cartKey(userID)
	var result *models.Cart

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		cart := models.EmptyCart(userID)
		if data != "" {
			if err := json.Unmarshal([]byte(data), cart); err != nil {
				return err
			}
			if cart.Items == nil {
				cart.Items = []models.CartLine{}
			}
		}

		if err := fn(cart); err != nil {
			return err
		}
		cart.Recalculate()

		payload, err := json.Marshal(cart)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, CartTTL)
			pipe.Publish(ctx, key, "updated") // sync temps réel app/web
			return nil
		})
		if err == nil {
			result = cart
		}
		return err
	}

	for attempt := 0; attempt < cartTxRetries; attempt++ {
		err := s.redis().Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // clé modifiée concurremment, on rejoue
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Internal(err, "Erreur écriture panier")
	}
	return nil, apperr.Conflict("Panier modifié concurremment, réessayez")
}
