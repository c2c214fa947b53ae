package services

import (
	"fmt"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// Pair is one row of an outer join; a side absent from the join keeps its zero value
type Pair[L, R any] struct {
	Left     L
	Right    R
	HasLeft  bool
	HasRight bool
}

// IndexBy groups rows by key, keeping their input order
func IndexBy[T any, K comparable](rows []T, key func(T) K) map[K][]T {
	index := make(map[K][]T)
	for _, row := range rows {
		k := key(row)
		index[k] = append(index[k], row)
	}
	return index
}

// UniqueIndex indexes rows by key and fails when a key repeats
func UniqueIndex[T any, K comparable](rows []T, key func(T) K, what string) (map[K]T, error) {
	index := make(map[K]T, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, exists := index[k]; exists {
			return nil, fmt.Errorf("duplicate %s for key %v: %w", what, k, entities.ErrDataInconsistency)
		}
		index[k] = row
	}
	return index, nil
}

// OuterJoin pairs two keyed tables, keeping keys present on either side
func OuterJoin[K comparable, L, R any](left map[K]L, right map[K]R) map[K]Pair[L, R] {
	joined := make(map[K]Pair[L, R], len(left)+len(right))
	for k, l := range left {
		joined[k] = Pair[L, R]{Left: l, HasLeft: true}
	}
	for k, r := range right {
		p := joined[k]
		p.Right = r
		p.HasRight = true
		joined[k] = p
	}
	return joined
}
