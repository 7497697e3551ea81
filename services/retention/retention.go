// retention/retention.go
package retention

import (
	"sort"

	"radiobridge-go/services/cycle"
	"radiobridge-go/types"
	"radiobridge-go/x/mathx"
)

// DefaultKeep is the retention ceiling on per-cycle log files.
const DefaultKeep = 5

// Prune deletes the lowest-id log files so that the retained set, counting
// the current cycle, stays within keep. It runs once at boot before the
// current cycle's first entry; the current file usually does not exist yet
// but its slot is already spoken for, and it is never a delete candidate.
// Returns the number of files deleted.
//
// Delete failures are ignored per file; a stuck file keeps counting against
// the ceiling until a later boot removes it.
func Prune(store types.FileStore, current cycle.ID, keep int) int {
	keep = mathx.Clamp(keep, 1, 64)

	names, err := store.List()
	if err != nil {
		return 0
	}

	// Map id -> filename; duplicate ids collapse last-seen-wins (ids are
	// monotonic so duplicates should not occur).
	byID := map[cycle.ID]string{}
	for _, name := range names {
		id, ok := cycle.ParseFileName(name)
		if !ok {
			continue
		}
		byID[id] = name
	}

	total := len(byID)
	if _, ok := byID[current]; !ok {
		total++ // the current file appears with the first entry
	}
	if total <= keep {
		return 0
	}

	ids := make([]cycle.ID, 0, len(byID))
	for id := range byID {
		if id == current {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	excess := total - keep
	if excess > len(ids) {
		excess = len(ids)
	}

	deleted := 0
	for _, id := range ids[:excess] {
		if store.Remove(byID[id]) {
			deleted++
		}
	}
	return deleted
}
