package database

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

type memoryEntry struct {
	docType string
	body    []byte
}

// MemoryStore keeps encoded documents in a map. Used by tests and single node setups.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]memoryEntry
	failSave error
}

func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Save(ctx context.Context, docs ...Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}

	// Encode everything first so a bad document leaves the store untouched
	encoded := make(map[string]memoryEntry, len(docs))
	for _, d := range docs {
		body, err := json.Marshal(d)
		if err != nil {
			return err
		}
		encoded[KeyOf(d)] = memoryEntry{docType: d.DocType(), body: body}
	}
	for k, e := range encoded {
		m.docs[k] = e
	}
	return nil
}

func (m *MemoryStore) Fetch(ctx context.Context, docType, id string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.docs[Key(docType, id)]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(e.body, out)
}

func (m *MemoryStore) QueryByType(ctx context.Context, docType string) ([]RawDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []RawDocument
	for k, e := range m.docs {
		if e.docType == docType {
			docs = append(docs, jsonDocument(k, e.docType, e.body))
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.docs, k)
	}
	return nil
}

// FailSaves makes every following Save return err. Pass nil to recover.
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = err
}

// Len is the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}
