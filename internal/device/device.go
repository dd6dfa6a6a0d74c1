// Package device provides the anonymous, persisted device identifier used to
// attribute submissions without user accounts.
package device

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pataalerta/internal/kv"
)

// StorageKey is where the identifier is persisted.
const StorageKey = "pataalerta_device_id"

// Identity hands out the device identifier.
type Identity struct {
	store kv.Store
	now   func() time.Time
}

// New creates an Identity persisting into store.
func New(store kv.Store) *Identity {
	return &Identity{store: store, now: time.Now}
}

// DeviceID returns the persisted identifier, generating and storing it on
// first use. When storage fails it returns a fresh session identifier instead.
func (i *Identity) DeviceID() string {
	id, found, err := i.store.Get(StorageKey)
	if err == nil && found && id != "" {
		return id
	}
	if err != nil {
		log.Printf("device id: storage unavailable, using session id: %v", err)
		return i.generate("dev_session_")
	}

	id = i.generate("dev_")
	if err := i.store.Set(StorageKey, id); err != nil {
		log.Printf("device id: failed to persist, using session id: %v", err)
		return i.generate("dev_session_")
	}
	return id
}

func (i *Identity) generate(prefix string) string {
	return fmt.Sprintf("%s%d_%s", prefix, i.now().UnixMilli(), RandomSuffix(9))
}

// RandomSuffix returns n lowercase hex characters (n <= 32).
func RandomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
