package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/mindline-health/psychrec/internal/scale"
)

func testCatalog(t *testing.T) *scale.Catalog {
	t.Helper()
	c, err := scale.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore(testCatalog(t))

	a, err := st.Start(ctx, "p1", "phq-9", "dr-day")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a.Status != StatusInProgress {
		t.Fatalf("status = %q", a.Status)
	}
	if a.ScaleName != "PHQ-9" {
		t.Errorf("scale name not canonicalized: %q", a.ScaleName)
	}

	// answer incrementally, with one overwrite
	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 3, 1: 3, 2: 3}); err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}
	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 1, 3: 1, 4: 1, 5: 1, 6: 1, 7: 0, 8: 0}); err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}

	got, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}
	if got.Score != 11 || got.Severity != "Moderate depression" {
		t.Errorf("score=%d severity=%q, want 11 / Moderate depression", got.Score, got.Severity)
	}
	if got.Interpretation == "" {
		t.Error("interpretation text missing")
	}

	// submit is idempotent once completed
	again, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if again.Score != got.Score || again.CompletedAt != got.CompletedAt {
		t.Error("second submit changed the record")
	}

	// completed assessments are immutable
	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 0}); !errors.Is(err, ErrCompleted) {
		t.Errorf("save after submit: %v", err)
	}
	if err := st.Delete(ctx, a.ID); !errors.Is(err, ErrCompleted) {
		t.Errorf("delete after submit: %v", err)
	}
}

func TestMemoryStoreSubmitIncomplete(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore(testCatalog(t))

	a, _ := st.Start(ctx, "p1", "GAD-7", "")
	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 1, 1: 1}); err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}

	_, err := st.Submit(ctx, a.ID)
	var se *scale.ScoringError
	if !errors.As(err, &se) || se.Kind != scale.KindIncompleteResponse {
		t.Fatalf("want incomplete_response, got %v", err)
	}

	// still in progress and answerable
	got, err := st.Get(ctx, a.ID)
	if err != nil || got.Status != StatusInProgress {
		t.Fatalf("assessment mutated by failed submit: %+v err=%v", got, err)
	}
}

func TestMemoryStoreUnknownScale(t *testing.T) {
	st := NewInMemoryStore(testCatalog(t))
	if _, err := st.Start(context.Background(), "p1", "BPRS", ""); !errors.Is(err, ErrUnknownScale) {
		t.Fatalf("got %v", err)
	}
}

func TestMemoryStoreAbandon(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore(testCatalog(t))
	a, _ := st.Start(ctx, "p1", "CAGE", "")
	if err := st.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestMemoryStoreListFilters(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore(testCatalog(t))
	a1, _ := st.Start(ctx, "p1", "PHQ-9", "")
	_, _ = st.Start(ctx, "p2", "PHQ-9", "")
	_, _ = st.Start(ctx, "p1", "GAD-7", "")

	got, err := st.List(ctx, ListOpts{PatientID: "p1"})
	if err != nil || len(got) != 2 {
		t.Fatalf("by patient: %d err=%v", len(got), err)
	}
	got, _ = st.List(ctx, ListOpts{PatientID: "p1", ScaleName: "PHQ-9"})
	if len(got) != 1 || got[0].ID != a1.ID {
		t.Fatalf("by patient+scale: %+v", got)
	}
	got, _ = st.List(ctx, ListOpts{Status: string(StatusCompleted)})
	if len(got) != 0 {
		t.Fatalf("by status: %+v", got)
	}
}

func TestMemoryStoreReturnsDetachedResponses(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore(testCatalog(t))

	a, _ := st.Start(ctx, "p1", "PHQ-9", "")
	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 1, 1: 2}); err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}

	got, err := st.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Responses[0] = 3
	got.Responses[8] = 3

	reloaded, err := st.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(reloaded.Responses) != 2 || reloaded.Responses[0] != 1 {
		t.Fatalf("caller mutation reached stored state: %+v", reloaded.Responses)
	}

	list, err := st.List(ctx, ListOpts{PatientID: "p1"})
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v, %d items", err, len(list))
	}
	list[0].Responses[5] = 1
	if final, _ := st.Get(ctx, a.ID); len(final.Responses) != 2 {
		t.Fatalf("list mutation reached stored state: %+v", final.Responses)
	}
}
