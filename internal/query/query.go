// Package query borne et normalise les paramètres de liste (page, limit,
// tri). Les stores lui délèguent le façonnage plutôt que de le réimplémenter.
package query

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
	Desc  bool // tri par created_at, plus récent d'abord par défaut
}

// Parse construit une Page depuis des paramètres bruts. Valeurs absentes ou
// invalides : page 1, limite par défaut, tri décroissant.
func Parse(pageStr, limitStr, sortStr string) Page {
	p := Page{Page: 1, Limit: DefaultLimit, Desc: true}

	if n, err := strconv.Atoi(pageStr); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limitStr); err == nil && n >= 1 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if sortStr == "created_at" || sortStr == "oldest" {
		p.Desc = false
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Slice applique la pagination à une liste déjà triée.
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
