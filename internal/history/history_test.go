package history

import (
	"testing"

	"github.com/antique-korea/appraiser/internal/models"
	"github.com/antique-korea/appraiser/internal/storage"
)

func result(id, title string) models.AppraisalResult {
	return models.AppraisalResult{
		ID:              id,
		Title:           title,
		Era:             "Joseon dynasty, 18th century",
		ConfidenceScore: 70,
		ImageURLs:       []string{"data:image/jpeg;base64,/9j/"},
		Timestamp:       1718450000000,
	}
}

func TestAppend_MostRecentFirst(t *testing.T) {
	s := New(storage.NewMemStore())

	if err := s.Append(result("r1", "Celadon bowl")); err != nil {
		t.Fatalf("append r1: %v", err)
	}
	if err := s.Append(result("r2", "Folding screen")); err != nil {
		t.Fatalf("append r2: %v", err)
	}

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 results, got %d", len(all))
	}
	if all[0].ID != "r2" || all[1].ID != "r1" {
		t.Errorf("expected order [r2 r1], got [%s %s]", all[0].ID, all[1].ID)
	}
}

func TestHistory_PersistedOrderSurvivesReload(t *testing.T) {
	store := storage.NewMemStore()
	s := New(store)
	if err := s.Append(result("r1", "Celadon bowl")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(result("r2", "Folding screen")); err != nil {
		t.Fatal(err)
	}

	reloaded := New(store)
	all := reloaded.All()
	if len(all) != 2 || all[0].ID != "r2" || all[1].ID != "r1" {
		t.Errorf("expected [r2 r1] after reload, got %+v", all)
	}
	if all[0].Title != "Folding screen" {
		t.Errorf("round trip lost fields: %+v", all[0])
	}
}

func TestHistory_MalformedPersistedDataStartsEmpty(t *testing.T) {
	store := storage.NewMemStore()
	if err := store.Set("appraisal_history", "{{{ not json"); err != nil {
		t.Fatal(err)
	}

	s := New(store)
	if s.Len() != 0 {
		t.Errorf("expected empty history from malformed data, got %d", s.Len())
	}
}

func TestFindByID(t *testing.T) {
	s := New(storage.NewMemStore())
	if err := s.Append(result("r1", "Celadon bowl")); err != nil {
		t.Fatal(err)
	}

	if got, ok := s.FindByID("r1"); !ok || got.Title != "Celadon bowl" {
		t.Errorf("expected to find r1, got ok=%v %+v", ok, got)
	}
	if _, ok := s.FindByID("nonexistent-id"); ok {
		t.Error("expected ok=false for unknown id")
	}
}

func TestAppend_PersistFailureKeepsInMemoryState(t *testing.T) {
	store := storage.NewMemStore()
	s := New(store)
	store.FailWrites = true

	err := s.Append(result("r1", "Celadon bowl"))
	if err == nil {
		t.Fatal("expected a persistence warning")
	}
	if s.Len() != 1 {
		t.Errorf("in-memory append must survive persist failure, len=%d", s.Len())
	}
	if _, ok := s.FindByID("r1"); !ok {
		t.Error("result should be readable after persist failure")
	}
}

func TestClear(t *testing.T) {
	store := storage.NewMemStore()
	s := New(store)
	if err := s.Append(result("r1", "Celadon bowl")); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Error("expected empty history after clear")
	}
	if reloaded := New(store); reloaded.Len() != 0 {
		t.Error("clear should remove the persisted sequence too")
	}
}
