package api

import "github.com/shaiso/aap/internal/domain"

// DefaultPageSize — размер страницы для команд list.
const DefaultPageSize = 20

// Page — одна страница коллекции AAP.
type Page struct {
	Count    int             `json:"count"`
	Next     string          `json:"next"`
	Previous string          `json:"previous"`
	Results  []domain.Record `json:"results"`
}
