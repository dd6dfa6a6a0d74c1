// Package kv is the device-local key/value store used for the device
// identifier, the cached site configuration and the daily submission
// counters. Every call can fail; callers degrade instead of propagating.
package kv

import "errors"

// ErrUnavailable is returned when local storage cannot be used at all.
var ErrUnavailable = errors.New("local storage unavailable")

// Store is a small synchronous string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	// Keys lists every key starting with prefix.
	Keys(prefix string) ([]string, error)
}

// Unavailable is a Store whose every call fails, like a browser with storage disabled.
type Unavailable struct{}

func (Unavailable) Get(string) (string, bool, error) { return "", false, ErrUnavailable }
func (Unavailable) Set(string, string) error         { return ErrUnavailable }
func (Unavailable) Delete(string) error              { return ErrUnavailable }
func (Unavailable) Keys(string) ([]string, error)    { return nil, ErrUnavailable }
