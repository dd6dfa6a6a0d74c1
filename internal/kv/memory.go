package kv

import (
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
)

type memoryStore struct {
	c *cache.Cache
}

// NewMemoryStore creates a process-local Store. Entries never expire.
func NewMemoryStore() Store {
	return &memoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *memoryStore) Get(key string) (string, bool, error) {
	v, found := m.c.Get(key)
	if !found {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *memoryStore) Set(key, value string) error {
	m.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *memoryStore) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *memoryStore) Keys(prefix string) ([]string, error) {
	var keys []string
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
