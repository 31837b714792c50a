// Package storage provides the durable key-value store backing document
// sessions: placeholder records, recipient lists and document bytes. The
// store is a plain string-to-string map with a byte quota, mirroring the
// constraints of browser-style origin storage.
package storage

import "errors"

// ErrQuotaExceeded is returned by Set when the write would exceed the
// store's byte quota. Callers are expected to evict other cached document
// bytes and retry once before surfacing the failure.
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// KV is the persistence adapter consumed by the session layer.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores a value, failing with ErrQuotaExceeded when full.
	Set(key, value string) error
	// Remove deletes a key. Removing an absent key is not an error.
	Remove(key string) error
	// Keys lists every stored key.
	Keys() ([]string, error)
}

// MemStore is an in-memory KV with an optional quota, used in tests and
// for ephemeral sessions. A quota of zero means unlimited.
type MemStore struct {
	quota int
	data  map[string]string
}

// NewMemStore returns an empty in-memory store with the given byte quota.
func NewMemStore(quota int) *MemStore {
	return &MemStore{quota: quota, data: make(map[string]string)}
}

func (m *MemStore) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemStore) Set(key, value string) error {
	if m.quota > 0 {
		used := 0
		for k, v := range m.data {
			if k == key {
				continue
			}
			used += len(k) + len(v)
		}
		if used+len(key)+len(value) > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = value
	return nil
}

func (m *MemStore) Remove(key string) error {
	delete(m.data, key)
	return nil
}

func (m *MemStore) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}
