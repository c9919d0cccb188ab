// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package item

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/z5labs/sdk-go/ptr"
)

func seededStore() *Store {
	return NewStore(
		Item{ID: 1, Name: "Item 1", Description: ptr.Ref("This is item 1"), Price: 10.99},
		Item{ID: 2, Name: "Item 2", Description: ptr.Ref("This is item 2"), Price: 9.99},
	)
}

func TestStore_List(t *testing.T) {
	t.Run("will return items in insertion order", func(t *testing.T) {
		s := seededStore()
		s.Insert(Item{ID: 3, Name: "Item 3", Price: 5})

		items := s.List()
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}

		if !assert.Equal(t, []int64{1, 2, 3}, ids) {
			return
		}
	})

	t.Run("will return a copy", func(t *testing.T) {
		s := seededStore()

		items := s.List()
		items[0].Name = "changed"

		it, ok := s.Find(1)
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, "Item 1", it.Name) {
			return
		}
	})
}

func TestStore_Find(t *testing.T) {
	t.Run("will return false", func(t *testing.T) {
		t.Run("if no item has the id", func(t *testing.T) {
			s := seededStore()

			_, ok := s.Find(99)
			if !assert.False(t, ok) {
				return
			}
		})
	})

	t.Run("will return the first match", func(t *testing.T) {
		t.Run("if the id was inserted twice", func(t *testing.T) {
			s := NewStore()
			s.Insert(Item{ID: 7, Name: "first"})
			s.Insert(Item{ID: 7, Name: "second"})

			it, ok := s.Find(7)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Equal(t, "first", it.Name) {
				return
			}
		})
	})
}

func TestStore_UpdateFields(t *testing.T) {
	t.Run("will overwrite name, description and price", func(t *testing.T) {
		s := seededStore()

		updated, ok := s.UpdateFields(1, "Renamed", nil, 1.5)
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, Item{ID: 1, Name: "Renamed", Price: 1.5}, updated) {
			return
		}

		it, _ := s.Find(1)
		if !assert.Equal(t, updated, it) {
			return
		}
	})

	t.Run("will leave the store unchanged", func(t *testing.T) {
		t.Run("if the id does not exist", func(t *testing.T) {
			s := seededStore()
			before := s.List()

			_, ok := s.UpdateFields(99, "x", nil, 1)
			if !assert.False(t, ok) {
				return
			}
			if !assert.Equal(t, before, s.List()) {
				return
			}
		})
	})
}

func TestStore_Remove(t *testing.T) {
	t.Run("will remove exactly one item", func(t *testing.T) {
		s := seededStore()

		if !assert.True(t, s.Remove(1)) {
			return
		}
		if !assert.Equal(t, 1, s.Len()) {
			return
		}

		_, ok := s.Find(1)
		if !assert.False(t, ok) {
			return
		}
	})

	t.Run("will return false", func(t *testing.T) {
		t.Run("if the id does not exist", func(t *testing.T) {
			s := seededStore()

			if !assert.False(t, s.Remove(99)) {
				return
			}
			if !assert.Equal(t, 2, s.Len()) {
				return
			}
		})
	})
}

func TestStore_Atomically(t *testing.T) {
	t.Run("will return the callback error", func(t *testing.T) {
		s := seededStore()
		conflict := errors.New("conflict")

		err := s.Atomically(func(tx *Tx) error {
			if _, ok := tx.Find(1); ok {
				return conflict
			}
			tx.Insert(Item{ID: 1})
			return nil
		})
		if !assert.ErrorIs(t, err, conflict) {
			return
		}
		if !assert.Equal(t, 2, s.Len()) {
			return
		}
	})

	t.Run("will only let one of many concurrent check-then-insert calls succeed", func(t *testing.T) {
		s := seededStore()

		const workers = 50
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := s.Atomically(func(tx *Tx) error {
					if _, ok := tx.Find(3); ok {
						return errors.New("exists")
					}
					tx.Insert(Item{ID: 3, Name: "Item 3"})
					return nil
				})
				if err != nil {
					return
				}

				mu.Lock()
				successes++
				mu.Unlock()
			}()
		}
		wg.Wait()

		if !assert.Equal(t, 1, successes) {
			return
		}
		if !assert.Equal(t, 3, s.Len()) {
			return
		}
	})
}
