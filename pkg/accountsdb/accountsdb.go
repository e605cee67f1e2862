// Package accountsdb opens the ledgers account records are committed to.
package accountsdb

import (
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"k8s.io/klog/v2"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendPebble = "pebble"
)

// OpenDb opens the ledger for backend. dir is ignored for the memory
// backend. A capacity of zero means unlimited.
func OpenDb(backend string, dir string, capacity uint64) (accounts.Accounts, error) {
	switch backend {
	case BackendMemory:
		klog.V(2).Infof("using in-memory accounts db (capacity %d)", capacity)
		return accounts.NewMemAccounts(capacity), nil
	case BackendBadger, BackendPebble:
		if dir == "" {
			return nil, fmt.Errorf("backend %s requires a directory path", backend)
		}
		klog.V(2).Infof("opening %s accounts db at %s (capacity %d)", backend, dir, capacity)
		var db accounts.Accounts
		var err error
		if backend == BackendBadger {
			db, err = OpenBadger(dir, capacity)
		} else {
			db, err = OpenPebble(dir, capacity)
		}
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown accounts db backend %q", backend)
	}
}
