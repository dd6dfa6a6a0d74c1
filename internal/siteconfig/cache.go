// Package siteconfig loads the site configuration through a 24h device-local
// cache and falls back to built-in defaults whenever the remote copy is unavailable.
package siteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pataalerta/internal/kv"
)

const (
	// CacheKey is the local storage key of the cached document.
	CacheKey = "pataalerta_config"
	// TTL is fixed; the document cannot negotiate it.
	TTL = 24 * time.Hour
)

// Source fetches the raw JSON configuration document from the remote store.
type Source interface {
	ConfigDocument(ctx context.Context) (string, error)
}

type entry struct {
	Config    Document `json:"config"`
	Timestamp int64    `json:"timestamp"` // epoch ms
}

// Cache serves the configuration document.
type Cache struct {
	source Source
	store  kv.Store
	now    func() time.Time
}

// NewCache creates a Cache reading through source and persisting into store.
// A nil source means the remote store is not configured.
func NewCache(source Source, store kv.Store) *Cache {
	return &Cache{source: source, store: store, now: time.Now}
}

// Load returns the configuration; it never fails.
func (c *Cache) Load(ctx context.Context) Document {
	if doc, ok := c.cached(); ok {
		return doc
	}
	if c.source == nil {
		return Default()
	}

	doc, err := c.fetch(ctx)
	if err != nil {
		log.Printf("siteconfig: using defaults: %v", err)
		return Default()
	}
	c.save(doc)
	return doc
}

func (c *Cache) fetch(ctx context.Context) (Document, error) {
	raw, err := c.source.ConfigDocument(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch config document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode config document: %w", err)
	}
	return doc.withDefaults(), nil
}

// cached returns the persisted document if it is younger than TTL, evicting it otherwise.
func (c *Cache) cached() (Document, bool) {
	raw, found, err := c.store.Get(CacheKey)
	if err != nil || !found {
		return Document{}, false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.evict()
		return Document{}, false
	}
	age := c.now().Sub(time.UnixMilli(e.Timestamp))
	if age > TTL {
		c.evict()
		return Document{}, false
	}
	return e.Config.withDefaults(), true
}

func (c *Cache) save(doc Document) {
	b, err := json.Marshal(entry{Config: doc, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return
	}
	if err := c.store.Set(CacheKey, string(b)); err != nil {
		log.Printf("siteconfig: failed to cache config: %v", err)
	}
}

func (c *Cache) evict() {
	if err := c.store.Delete(CacheKey); err != nil {
		log.Printf("siteconfig: failed to evict cached config: %v", err)
	}
}
