package assessment

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mindline-health/psychrec/internal/db"
	"github.com/mindline-health/psychrec/internal/patient"
	"github.com/mindline-health/psychrec/internal/scale"
)

func newSQLStore(t *testing.T) (*SQLStore, *patient.SQLStore) {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	cat, err := scale.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewSQLStore(dbh, cat), patient.NewSQLStore(dbh)
}

func TestSQLStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st, patients := newSQLStore(t)

	p, err := patients.Create(ctx, patient.Patient{FirstName: "Ada", LastName: "Osei"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	a, err := st.Start(ctx, p.ID, "GAD-7", "dr-chen")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 2, 1: 2, 2: 2, 3: 2}); err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}
	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{4: 2, 5: 2, 6: 3}); err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}

	got, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Score != 15 || got.Severity != "Severe anxiety" {
		t.Errorf("score=%d severity=%q, want 15 / Severe anxiety", got.Score, got.Severity)
	}
	if got.Status != StatusCompleted || got.CompletedAt == 0 {
		t.Errorf("completion not persisted: %+v", got)
	}

	// round-trip of responses through the DB
	reloaded, err := st.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(reloaded.Responses) != 7 || reloaded.Responses[6] != 3 {
		t.Errorf("responses lost on reload: %+v", reloaded.Responses)
	}

	if _, err := st.SaveResponses(ctx, a.ID, map[int]int{0: 0}); !errors.Is(err, ErrCompleted) {
		t.Errorf("save after submit: %v", err)
	}
}

func TestSQLStoreSubmitIncompleteLeavesRecordOpen(t *testing.T) {
	ctx := context.Background()
	st, patients := newSQLStore(t)
	p, _ := patients.Create(ctx, patient.Patient{FirstName: "Ben", LastName: "Ruiz"})

	a, err := st.Start(ctx, p.ID, "PHQ-9", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = st.Submit(ctx, a.ID)
	var se *scale.ScoringError
	if !errors.As(err, &se) || se.Kind != scale.KindIncompleteResponse {
		t.Fatalf("want incomplete_response, got %v", err)
	}
	got, err := st.Get(ctx, a.ID)
	if err != nil || got.Status != StatusInProgress {
		t.Fatalf("failed submit mutated record: %+v err=%v", got, err)
	}
}

func TestSQLStoreStartRejectsUnknowns(t *testing.T) {
	ctx := context.Background()
	st, patients := newSQLStore(t)
	p, _ := patients.Create(ctx, patient.Patient{FirstName: "Cam", LastName: "Hill"})

	if _, err := st.Start(ctx, p.ID, "YMRS", ""); !errors.Is(err, ErrUnknownScale) {
		t.Errorf("unknown scale: %v", err)
	}
	if _, err := st.Start(ctx, "no-such-patient", "PHQ-9", ""); err == nil {
		t.Error("unknown patient accepted")
	}
}

func TestSQLStoreListFilters(t *testing.T) {
	ctx := context.Background()
	st, patients := newSQLStore(t)
	p1, _ := patients.Create(ctx, patient.Patient{FirstName: "Dee", LastName: "Park"})
	p2, _ := patients.Create(ctx, patient.Patient{FirstName: "Eli", LastName: "Wren"})

	a1, _ := st.Start(ctx, p1.ID, "CAGE", "")
	_, _ = st.Start(ctx, p1.ID, "PHQ-9", "")
	_, _ = st.Start(ctx, p2.ID, "CAGE", "")

	_, _ = st.SaveResponses(ctx, a1.ID, map[int]int{0: 1, 1: 1, 2: 0, 3: 0})
	if _, err := st.Submit(ctx, a1.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := st.List(ctx, ListOpts{PatientID: p1.ID})
	if err != nil || len(got) != 2 {
		t.Fatalf("by patient: %d err=%v", len(got), err)
	}
	got, _ = st.List(ctx, ListOpts{PatientID: p1.ID, Status: string(StatusCompleted)})
	if len(got) != 1 || got[0].Severity != "Clinically significant" {
		t.Fatalf("by status: %+v", got)
	}
	got, _ = st.List(ctx, ListOpts{ScaleName: "CAGE"})
	if len(got) != 2 {
		t.Fatalf("by scale: %d", len(got))
	}
}

func TestSQLStoreConcurrentSavesMerge(t *testing.T) {
	ctx := context.Background()
	st, patients := newSQLStore(t)
	p, _ := patients.Create(ctx, patient.Patient{FirstName: "Fay", LastName: "Moss"})

	a, err := st.Start(ctx, p.ID, "PHQ-9", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// each writer saves a distinct question; every answer must survive
	var wg sync.WaitGroup
	errs := make(chan error, 9)
	for q := 0; q < 9; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			if _, err := st.SaveResponses(ctx, a.ID, map[int]int{q: 1}); err != nil {
				errs <- err
			}
		}(q)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent save: %v", err)
	}

	got, err := st.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Responses) != 9 {
		t.Fatalf("responses = %d, want 9: %+v", len(got.Responses), got.Responses)
	}
	if res, err := st.Submit(ctx, a.ID); err != nil || res.Score != 9 {
		t.Fatalf("submit after concurrent saves: score=%d err=%v", res.Score, err)
	}
}
