// Package memstore implements the resource byte store as an in-process LRU.
// Used when no Redis address is configured; a fetched GRIB subset for one
// forecast hour is typically a few MB, so the entry count stays small.
package memstore

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	val     []byte
	expires time.Time // zero means no expiry
}

type Store struct {
	lru *lru.Cache[string, entry]
	now func() time.Time
}

func New(entries int) *Store {
	if entries <= 0 {
		entries = 64
	}
	c, _ := lru.New[string, entry](entries)
	return &Store{lru: c, now: time.Now}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: val}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.lru.Add(key, e)
	return nil
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) (int, error) {
	var deleted int
	for _, k := range s.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			if s.lru.Remove(k) {
				deleted++
			}
		}
	}
	return deleted, nil
}

func (s *Store) Close() error { return nil }
