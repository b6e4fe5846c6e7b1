package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers hosts where the cheap engine failed and the
// browser succeeded, so later fetches for that host skip straight to it.
// Entries expire lazily after ttl.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]domainEntry
	ttl     time.Duration
	now     func() time.Time
}

type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// NewDomainMemory creates a DomainMemory with the given TTL.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		entries: make(map[string]domainEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the remembered engine for host, or "".
func (dm *DomainMemory) Get(host string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return e.engineName
}

// Set records that engineName is the one to start with for host.
func (dm *DomainMemory) Set(host, engineName string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.entries[host] = domainEntry{engineName: engineName, expiresAt: dm.now().Add(dm.ttl)}
}

// Delete forgets host.
func (dm *DomainMemory) Delete(host string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.entries, host)
}

// Len is the number of live entries, expired ones included until touched.
func (dm *DomainMemory) Len() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}
