package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parsererror"
)

// MemoryStore is an in-process Store used by tests and dry runs. Failures can
// be injected per operation with FailOn.
type MemoryStore struct {
	mu        sync.Mutex
	purchases map[string]models.Purchase
	tags      map[string]map[string]struct{}
	failures  map[string]error
	calls     map[string]int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		purchases: make(map[string]models.Purchase),
		tags:      make(map[string]map[string]struct{}),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Len returns the number of stored purchases.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.purchases)
}

// enter must be called with mu held.
func (m *MemoryStore) enter(op string) error {
	m.calls[op]++
	if err := m.failures[op]; err != nil {
		return &parsererror.StoreError{Operation: op, Err: err}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) GetPurchase(_ context.Context, id string) (models.Purchase, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpGet); err != nil {
		return models.Purchase{}, false, err
	}
	p, ok := m.purchases[id]
	return p.Clone(), ok, nil
}

func (m *MemoryStore) ListPurchases(_ context.Context) ([]models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	return m.selectLocked(func(models.Purchase) bool { return true }), nil
}

func (m *MemoryStore) PurchasesByProvider(_ context.Context, provider models.ProviderID) ([]models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpByProvider); err != nil {
		return nil, err
	}
	return m.selectLocked(func(p models.Purchase) bool { return p.ProviderID == provider }), nil
}

func (m *MemoryStore) PurchaseByDedupKey(_ context.Context, key models.DedupKey) (models.Purchase, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpByDedupKey); err != nil {
		return models.Purchase{}, false, err
	}
	for _, p := range m.purchases {
		if p.Key() == key {
			return p.Clone(), true, nil
		}
	}
	return models.Purchase{}, false, nil
}

func (m *MemoryStore) AddPurchase(_ context.Context, p models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpAdd); err != nil {
		return err
	}
	if err := m.checkInsertLocked(p, nil); err != nil {
		return &parsererror.StoreError{Operation: OpAdd, Err: err}
	}
	m.purchases[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) BulkAddPurchases(_ context.Context, ps []models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpBulkAdd); err != nil {
		return err
	}
	pending := make(map[string]models.Purchase, len(ps))
	for _, p := range ps {
		if err := m.checkInsertLocked(p, pending); err != nil {
			return &parsererror.StoreError{Operation: OpBulkAdd, Err: err}
		}
		pending[p.ID] = p
	}
	for _, p := range ps {
		m.purchases[p.ID] = p.Clone()
	}
	return nil
}

func (m *MemoryStore) BulkPutPurchases(_ context.Context, ps []models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpBulkPut); err != nil {
		return err
	}
	for _, p := range ps {
		m.purchases[p.ID] = p.Clone()
	}
	return nil
}

func (m *MemoryStore) UpdatePurchase(_ context.Context, id string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdate); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	p, ok := m.purchases[id]
	if !ok {
		return &parsererror.StoreError{Operation: OpUpdate, Err: fmt.Errorf("%w: %s", ErrNotFound, id)}
	}
	patch.Apply(&p)
	m.purchases[id] = p
	return nil
}

func (m *MemoryStore) DeletePurchase(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	delete(m.purchases, id)
	return nil
}

func (m *MemoryStore) DeletePurchasesByProvider(_ context.Context, provider models.ProviderID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDeleteByProv); err != nil {
		return nil, err
	}
	var ids []string
	for id, p := range m.purchases {
		if p.ProviderID == provider {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		delete(m.purchases, id)
	}
	return ids, nil
}

func (m *MemoryStore) ClearPurchases(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpClear); err != nil {
		return err
	}
	m.purchases = make(map[string]models.Purchase)
	return nil
}

func (m *MemoryStore) AssignTag(_ context.Context, a models.TagAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpAssignTag); err != nil {
		return err
	}
	set, ok := m.tags[a.PurchaseID]
	if !ok {
		set = make(map[string]struct{})
		m.tags[a.PurchaseID] = set
	}
	set[a.Tag] = struct{}{}
	return nil
}

func (m *MemoryStore) TagsForPurchase(_ context.Context, purchaseID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpTags); err != nil {
		return nil, err
	}
	var tags []string
	for tag := range m.tags[purchaseID] {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (m *MemoryStore) DeleteTagAssignments(_ context.Context, purchaseIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDeleteTags); err != nil {
		return err
	}
	for _, id := range purchaseIDs {
		delete(m.tags, id)
	}
	return nil
}

func (m *MemoryStore) ClearTagAssignments(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpClearTags); err != nil {
		return err
	}
	m.tags = make(map[string]map[string]struct{})
	return nil
}

func (m *MemoryStore) checkInsertLocked(p models.Purchase, pending map[string]models.Purchase) error {
	if _, ok := m.purchases[p.ID]; ok {
		return fmt.Errorf("duplicate id %s", p.ID)
	}
	if _, ok := pending[p.ID]; ok {
		return fmt.Errorf("duplicate id %s", p.ID)
	}
	for _, other := range m.purchases {
		if other.Key() == p.Key() {
			return fmt.Errorf("duplicate dedup key %s", p.Key())
		}
	}
	return nil
}

func (m *MemoryStore) selectLocked(keep func(models.Purchase) bool) []models.Purchase {
	var out []models.Purchase
	for _, p := range m.purchases {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.Before(out[j].PurchaseDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
