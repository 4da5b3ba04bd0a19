// Package memory keeps couriers, orders and batches in process memory.
//
// Transactions are serialized: TrManager.Do holds the store write lock for
// the whole callback and restores the previous state if the callback fails,
// so readers never observe a half-applied change.
package memory

import (
	"context"
	"sort"
	"sync"

	"yandex-team.ru/candydelivery/internal/entity"
)

type txKey struct {
	s *Store
}

type state struct {
	couriers    map[uint64]entity.Courier
	orders      map[uint64]entity.Order
	batches     map[uint64]entity.Batch
	nextBatchID uint64
}

type Store struct {
	mu sync.RWMutex
	state
}

func NewStore() *Store {
	return &Store{
		state: state{
			couriers:    make(map[uint64]entity.Courier),
			orders:      make(map[uint64]entity.Order),
			batches:     make(map[uint64]entity.Batch),
			nextBatchID: 1,
		},
	}
}

// TrManager runs callbacks as serialized transactions over a Store.
type TrManager struct {
	s *Store
}

func NewTrManager(s *Store) *TrManager {
	return &TrManager{s: s}
}

func (m *TrManager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.s.inTx(ctx) {
		return fn(ctx)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	snap := m.s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			m.s.state = snap
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{s: m.s}, true)); err != nil {
		m.s.state = snap
		return err
	}

	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{s: s}).(bool)
	return v
}

// snapshot copies the maps; stored values are never mutated in place.
func (s *Store) snapshot() state {
	snap := state{
		couriers:    make(map[uint64]entity.Courier, len(s.couriers)),
		orders:      make(map[uint64]entity.Order, len(s.orders)),
		batches:     make(map[uint64]entity.Batch, len(s.batches)),
		nextBatchID: s.nextBatchID,
	}
	for k, v := range s.couriers {
		snap.couriers[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.batches {
		snap.batches[k] = v
	}

	return snap
}

func (s *Store) read(ctx context.Context, fn func()) {
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

func cloneCourier(c entity.Courier) entity.Courier {
	c.Regions = append([]int32(nil), c.Regions...)
	c.WorkingHours = append([]entity.Interval(nil), c.WorkingHours...)
	return c
}

func cloneOrder(o entity.Order) entity.Order {
	o.DeliveryHours = append([]entity.Interval(nil), o.DeliveryHours...)
	if o.CompletedTime != nil {
		t := *o.CompletedTime
		o.CompletedTime = &t
	}
	if o.BatchID != nil {
		id := *o.BatchID
		o.BatchID = &id
	}
	return o
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func page(ids []uint64, offset, limit int32) []uint64 {
	if int(offset) >= len(ids) {
		return nil
	}
	end := int(offset) + int(limit)
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}
