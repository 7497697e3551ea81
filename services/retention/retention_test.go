package retention

import (
	"sort"
	"testing"

	"radiobridge-go/internal/memstore"
	"radiobridge-go/services/cycle"
)

func seed(store *memstore.Store, ids ...cycle.ID) {
	for _, id := range ids {
		store.Put(cycle.FileName(id), []byte("x"))
	}
}

func logFiles(t *testing.T, store *memstore.Store) []cycle.ID {
	t.Helper()
	names, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	var ids []cycle.ID
	for _, n := range names {
		if id, ok := cycle.ParseFileName(n); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func assertIDs(t *testing.T, got, want []cycle.ID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("surviving ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("surviving ids = %v, want %v", got, want)
		}
	}
}

func TestPruneKeepsNewestN(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3, 4, 5, 6, 7)

	if deleted := Prune(store, 7, 5); deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	assertIDs(t, logFiles(t, store), []cycle.ID{3, 4, 5, 6, 7})
}

// At a real boot the current cycle's file does not exist yet; its slot
// still counts, so after boot 7 only log_3 through log_6 remain on flash
// and log_7 joins them with the first entry.
func TestPruneCountsUnwrittenCurrentCycle(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3, 4, 5, 6)

	if deleted := Prune(store, 7, 5); deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	assertIDs(t, logFiles(t, store), []cycle.ID{3, 4, 5, 6})
}

func TestPruneNeverRemovesCurrent(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3, 4, 5, 6, 7)

	// Counter corruption can hand out a low current id again; the session's
	// own file must survive regardless.
	Prune(store, 1, 5)

	if !store.Exists(cycle.FileName(1)) {
		t.Fatal("current cycle's file was pruned")
	}
	assertIDs(t, logFiles(t, store), []cycle.ID{1, 4, 5, 6, 7})
}

func TestPruneNoopUnderLimit(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3)
	if deleted := Prune(store, 4, 5); deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}
	if got := logFiles(t, store); len(got) != 3 {
		t.Fatalf("surviving = %v", got)
	}
}

func TestPruneIgnoresForeignFiles(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3, 4, 5, 6)
	store.Put(cycle.CounterFile, []byte("6"))
	store.Put("notes.txt", []byte("keep me"))

	Prune(store, 6, 5)

	if !store.Exists(cycle.CounterFile) || !store.Exists("notes.txt") {
		t.Fatal("non-log files must never be pruned")
	}
	if store.Exists(cycle.FileName(1)) {
		t.Fatal("log_1.txt should have been pruned")
	}
}

func TestPruneStuckFileCountsAgainstCeiling(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3, 4, 5, 6, 7)
	store.StickFile(cycle.FileName(1))

	deleted := Prune(store, 7, 5)

	// log_1 stays stuck; log_2 is still deleted; no extra file is removed
	// to compensate.
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if !store.Exists(cycle.FileName(1)) {
		t.Fatal("stuck file vanished")
	}
	if store.Exists(cycle.FileName(2)) {
		t.Fatal("log_2.txt should have been pruned")
	}
	if !store.Exists(cycle.FileName(3)) {
		t.Fatal("log_3.txt should have survived")
	}
}

func TestPruneSparseIDs(t *testing.T) {
	store := memstore.New()
	seed(store, 2, 9, 40, 41, 300, 301, 302)

	Prune(store, 302, 5)

	assertIDs(t, logFiles(t, store), []cycle.ID{40, 41, 300, 301, 302})
}

func TestPruneClampsKeep(t *testing.T) {
	store := memstore.New()
	seed(store, 1, 2, 3)
	// keep=0 is clamped to 1: the current cycle alone fills the budget.
	Prune(store, 3, 0)
	assertIDs(t, logFiles(t, store), []cycle.ID{3})
}
