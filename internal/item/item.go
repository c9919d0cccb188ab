// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package item holds the item record and its in-memory store.
package item

import (
	"slices"
	"sync"
)

// Item is a single catalogue entry. ID is assigned by the client.
type Item struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
}

// Store is an ordered, in-memory collection of items. It is safe for
// concurrent use.
//
// Store does not enforce id uniqueness on its own. Callers which need to
// check before they write should do so inside [Store.Atomically].
type Store struct {
	mu    sync.RWMutex
	items []Item
}

// NewStore returns a [Store] holding items in the given order.
func NewStore(items ...Item) *Store {
	return &Store{
		items: slices.Clone(items),
	}
}

// List returns a copy of every item in insertion order.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items)
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Find returns the first item with the given id.
func (s *Store) Find(id int64) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return (&Tx{s: s}).Find(id)
}

// Insert appends it to the end of the store.
func (s *Store) Insert(it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	(&Tx{s: s}).Insert(it)
}

// UpdateFields overwrites the mutable fields of the item with the given id.
func (s *Store) UpdateFields(id int64, name string, description *string, price float64) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return (&Tx{s: s}).UpdateFields(id, name, description, price)
}

// Remove deletes the item with the given id.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return (&Tx{s: s}).Remove(id)
}

// Atomically runs f while holding the store's write lock, so a lookup
// followed by a write can not interleave with other writers.
func (s *Store) Atomically(f func(*Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return f(&Tx{s: s})
}

// Tx exposes the store's operations without locking. It is only valid
// for the duration of the [Store.Atomically] callback it was passed to.
type Tx struct {
	s *Store
}

// Find returns the first item with the given id.
func (tx *Tx) Find(id int64) (Item, bool) {
	i := tx.index(id)
	if i < 0 {
		return Item{}, false
	}
	return tx.s.items[i], true
}

// Insert appends it to the end of the store.
func (tx *Tx) Insert(it Item) {
	tx.s.items = append(tx.s.items, it)
}

// UpdateFields overwrites name, description and price of the item
// with the given id. The id itself never changes.
func (tx *Tx) UpdateFields(id int64, name string, description *string, price float64) (Item, bool) {
	i := tx.index(id)
	if i < 0 {
		return Item{}, false
	}

	it := &tx.s.items[i]
	it.Name = name
	it.Description = description
	it.Price = price
	return *it, true
}

// Remove deletes the first item with the given id.
func (tx *Tx) Remove(id int64) bool {
	i := tx.index(id)
	if i < 0 {
		return false
	}

	tx.s.items = slices.Delete(tx.s.items, i, i+1)
	return true
}

func (tx *Tx) index(id int64) int {
	return slices.IndexFunc(tx.s.items, func(it Item) bool {
		return it.ID == id
	})
}
