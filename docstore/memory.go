package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Transactions are serialized and their writes
// are buffered until the transaction function succeeds.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]any)}
}

func (m *Memory) List(ctx context.Context, collection string) ([]Document, error) {
	return m.Query(ctx, collection, nil, nil)
}

func (m *Memory) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if _, _, err := splitDocPath(path); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(path)
}

func (m *Memory) getLocked(path string) (Document, error) {
	path = strings.Trim(path, "/")
	data, ok := m.docs[path]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	_, id, _ := splitDocPath(path)
	return Document{ID: id, Path: path, Data: copyFields(data)}, nil
}

func (m *Memory) Set(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[strings.Trim(path, "/")] = normalized
	return nil
}

func (m *Memory) Update(ctx context.Context, path string, updates []Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path = strings.Trim(path, "/")
	current, ok := m.docs[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	next := copyFields(current)
	if err := applyUpdates(next, updates); err != nil {
		return err
	}
	m.docs[path] = next
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	collection, err := checkCollectionPath(collection)
	if err != nil {
		return "", err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[Join(collection, id)] = normalized
	return id, nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, strings.Trim(path, "/"))
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters []Filter, order *OrderBy) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	collection, err := checkCollectionPath(collection)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	var docs []Document
	for path, data := range m.docs {
		parent, id, err := splitDocPath(path)
		if err != nil || parent != collection {
			continue
		}
		docs = append(docs, Document{ID: id, Path: path, Data: copyFields(data)})
	}
	m.mu.RUnlock()
	return filterAndSort(docs, filters, order)
}

func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m, staged: make(map[string]map[string]any)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for path, data := range tx.staged {
		if data == nil {
			delete(m.docs, path)
			continue
		}
		m.docs[path] = data
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// memoryTx runs under the store's write lock. A nil staged entry marks a delete.
type memoryTx struct {
	store  *Memory
	staged map[string]map[string]any
}

func (t *memoryTx) current(path string) (map[string]any, bool) {
	if data, ok := t.staged[path]; ok {
		return data, data != nil
	}
	data, ok := t.store.docs[path]
	return data, ok
}

func (t *memoryTx) Get(path string) (Document, error) {
	_, id, err := splitDocPath(path)
	if err != nil {
		return Document{}, err
	}
	path = strings.Trim(path, "/")
	data, ok := t.current(path)
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return Document{ID: id, Path: path, Data: copyFields(data)}, nil
}

func (t *memoryTx) Set(path string, fields map[string]any) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	t.staged[strings.Trim(path, "/")] = normalized
	return nil
}

func (t *memoryTx) Update(path string, updates []Update) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	path = strings.Trim(path, "/")
	data, ok := t.current(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	next := copyFields(data)
	if err := applyUpdates(next, updates); err != nil {
		return err
	}
	t.staged[path] = next
	return nil
}

func (t *memoryTx) Delete(path string) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	t.staged[strings.Trim(path, "/")] = nil
	return nil
}

// normalizeFields round-trips fields through JSON so every backend stores the
// same value types.
func normalizeFields(fields map[string]any) (map[string]any, error) {
	if fields == nil {
		return map[string]any{}, nil
	}
	return Encode(fields)
}
