package persistence

import (
	"fmt"
	"os"
	"time"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	lockAcquireLimit  = 5 * time.Second

	// lockStaleAfter bounds how long a lock file left behind by a crashed
	// process can block the registry. Orchestration commands finish their
	// registry critical sections in well under a second.
	lockStaleAfter = 30 * time.Second
)

// acquireLock takes the advisory lock file next to the registry document.
// O_CREATE|O_EXCL makes creation the atomic acquire; a lock file older than
// lockStaleAfter is treated as abandoned and taken over.
func (r *FileRegistry) acquireLock() (func(), error) {
	lockPath := r.path + ".lock"
	deadline := time.Now().Add(lockAcquireLimit)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create registry lock %s: %w", lockPath, err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(lockPath)
			continue
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("registry is locked by another process (%s); remove the lock file if no other labctl is running", lockPath)
		}
		time.Sleep(lockRetryInterval)
	}
}
