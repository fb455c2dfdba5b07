package order

import (
	"sync"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no order has the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateOrder is returned when adding an id that is already stored.
	ErrDuplicateOrder = errors.New("duplicate order")
)

// Store is the in-memory order collection, keyed by id and kept in insertion
// order. Reads return copies; Update applies a change atomically.
type Store struct {
	mu   sync.RWMutex
	ids  []string
	byID map[string]*Order
}

// NewStore creates a Store holding the given orders in order.
func NewStore(orders ...*Order) (*Store, error) {
	s := &Store{byID: make(map[string]*Order, len(orders))}
	for _, o := range orders {
		if err := s.Add(o); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends an order. The store keeps its own copy.
func (s *Store) Add(o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[o.ID]; ok {
		return errors.Wrapf(ErrDuplicateOrder, "order %s", o.ID)
	}
	cp := *o
	s.byID[o.ID] = &cp
	s.ids = append(s.ids, o.ID)
	return nil
}

// Get returns a copy of the order with the given id.
func (s *Store) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return Order{}, errors.Wrapf(ErrNotFound, "order %s", id)
	}
	return *o, nil
}

// Update runs fn on a working copy of the order and stores the result if fn
// succeeds. Other readers never observe a partially updated order.
func (s *Store) Update(id string, fn func(o *Order) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "order %s", id)
	}
	cp := *o
	if err := fn(&cp); err != nil {
		return err
	}
	cp.ID = id
	*o = cp
	return nil
}

// Pending returns the ids of orders awaiting approval, in insertion order.
func (s *Store) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, id := range s.ids {
		if s.byID[id].Status == StatusPendingApproval {
			ids = append(ids, id)
		}
	}
	return ids
}

// All returns copies of every order in insertion order.
func (s *Store) All() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, len(s.ids))
	for i, id := range s.ids {
		out[i] = *s.byID[id]
	}
	return out
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
