package catalogue

import (
	"sync"

	"github.com/avalonis/browserpilot/internal/browsergateway"
	"github.com/avalonis/browserpilot/internal/domain"
)

// ElementStore resolves a Region.ID to the live handle it was minted
// from during the scan that produced it. A Catalogue.Scan call
// replaces the whole store atomically, so any ID from a previous scan
// resolves to domain.StaleElementError (invariant P2).
type ElementStore struct {
	mu      sync.RWMutex
	handles map[string]browsergateway.ElementHandle
}

func NewElementStore() *ElementStore {
	return &ElementStore{handles: make(map[string]browsergateway.ElementHandle)}
}

func (s *ElementStore) put(id string, h browsergateway.ElementHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[id] = h
}

// Resolve returns the live handle for regionID, or StaleElementError
// if it is not part of the current scan.
func (s *ElementStore) Resolve(regionID string) (browsergateway.ElementHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[regionID]
	if !ok {
		return browsergateway.ElementHandle{}, &domain.StaleElementError{RegionID: regionID}
	}
	return h, nil
}

// Len reports how many live handles the current scan produced.
func (s *ElementStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}
