package lease

import (
	"context"
	"sync"
)

// MemoryVehicleLease keeps leases in process; used when no Redis is configured.
type MemoryVehicleLease struct {
	mu      sync.Mutex
	holders map[string]string
}

func NewMemoryVehicleLease() *MemoryVehicleLease {
	return &MemoryVehicleLease{holders: make(map[string]string)}
}

func (l *MemoryVehicleLease) Lease(_ context.Context, owner string, vehicleIDs []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	leased := make([]string, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if holder, ok := l.holders[id]; ok && holder != owner {
			continue
		}
		l.holders[id] = owner
		leased = append(leased, id)
	}
	return leased, nil
}

func (l *MemoryVehicleLease) Release(_ context.Context, owner string, vehicleIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range vehicleIDs {
		if l.holders[id] == owner {
			delete(l.holders, id)
		}
	}
	return nil
}
