package patient

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindline-health/psychrec/internal/db"
)

func newStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "patients.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn)
}

func TestCreateGetUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, Patient{
		FirstName:   "Miriam",
		LastName:    "Okafor",
		DateOfBirth: "1975-11-02",
		Email:       "m.okafor@example.org",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create did not assign an ID")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName() != "Miriam Okafor" {
		t.Fatalf("full name = %q", got.FullName())
	}

	got.Insurance = "BlueCross"
	updated, err := s.Update(ctx, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Insurance != "BlueCross" {
		t.Fatalf("insurance not persisted: %+v", updated)
	}
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Update(context.Background(), Patient{ID: "absent", FirstName: "A", LastName: "B"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSearch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, p := range []Patient{
		{FirstName: "Alice", LastName: "Hargrove"},
		{FirstName: "Albert", LastName: "Finch"},
		{FirstName: "Rosa", LastName: "Delgado"},
	} {
		if _, err := s.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.LastName, err)
		}
	}

	all, err := s.List(ctx, ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list all = %d, want 3", len(all))
	}

	// Case-insensitive prefix match on either name.
	hits, err := s.List(ctx, ListOpts{Q: "al"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("search 'al' = %d, want 2", len(hits))
	}

	one, err := s.List(ctx, ListOpts{Q: "delgado"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(one) != 1 || one[0].FirstName != "Rosa" {
		t.Fatalf("search 'delgado' = %+v", one)
	}
}

func TestSatelliteRecords(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, Patient{FirstName: "Theo", LastName: "Brandt"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.AddMedication(ctx, Medication{
		PatientID: p.ID, Name: "Lithium", DoseAmount: 300, DoseUnit: "mg", Frequency: "BID", IsCurrent: true,
	}); err != nil {
		t.Fatalf("add medication: %v", err)
	}
	if _, err := s.AddSubstanceUse(ctx, SubstanceUse{
		PatientID: p.ID, SubstanceType: "Alcohol", CurrentStatus: "In Remission",
	}); err != nil {
		t.Fatalf("add substance use: %v", err)
	}
	if _, err := s.AddLabResult(ctx, LabResult{
		PatientID: p.ID, TestName: "Lithium level", Value: "0.8", Unit: "mmol/L",
	}); err != nil {
		t.Fatalf("add lab: %v", err)
	}

	meds, err := s.ListMedications(ctx, p.ID)
	if err != nil || len(meds) != 1 {
		t.Fatalf("medications = %v, err %v", meds, err)
	}
	if meds[0].DoseDisplay() != "300 mg" {
		t.Fatalf("dose display = %q", meds[0].DoseDisplay())
	}

	subs, err := s.ListSubstanceUse(ctx, p.ID)
	if err != nil || len(subs) != 1 {
		t.Fatalf("substance use = %v, err %v", subs, err)
	}
	labs, err := s.ListLabResults(ctx, p.ID)
	if err != nil || len(labs) != 1 {
		t.Fatalf("labs = %v, err %v", labs, err)
	}

	// Satellite rows require an existing chart.
	if _, err := s.AddMedication(ctx, Medication{PatientID: "absent", Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("orphan medication err = %v, want ErrNotFound", err)
	}
}

func TestValidateRules(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		p       Patient
		wantErr bool
	}{
		{"ok", Patient{FirstName: "A", LastName: "B", DateOfBirth: "1990-01-01"}, false},
		{"missing first", Patient{LastName: "B"}, true},
		{"missing last", Patient{FirstName: "A"}, true},
		{"bad dob", Patient{FirstName: "A", LastName: "B", DateOfBirth: "01/01/1990"}, true},
		{"future dob", Patient{FirstName: "A", LastName: "B", DateOfBirth: "2030-01-01"}, true},
		{"bad email", Patient{FirstName: "A", LastName: "B", Email: "nope"}, true},
		{"short phone", Patient{FirstName: "A", LastName: "B", Phone: "555-123"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate(now)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	p := Patient{DateOfBirth: "1990-09-01"}
	if got := p.Age(now); got != 35 {
		t.Fatalf("age = %d, want 35 (birthday not yet reached)", got)
	}
	if got := (Patient{}).Age(now); got != -1 {
		t.Fatalf("age without dob = %d, want -1", got)
	}
}

func TestSymptomAssessments(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, Patient{FirstName: "Nadia", LastName: "Sorel"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created, err := s.AddSymptomAssessment(ctx, SymptomAssessment{
		PatientID:            p.ID,
		AssessmentDate:       "2026-08-01",
		AssessmentType:       "Initial Evaluation",
		Assessor:             "Dr. Varga",
		Category:             "Mood Disorders",
		Disorder:             "Major Depressive Disorder",
		SymptomGroup:         "Core symptoms",
		SymptomCode:          "A1",
		SymptomName:          "Depressed mood most of the day, nearly every day",
		IsPresent:            true,
		SeverityScore:        7,
		Duration:             "3 weeks",
		DurationWeeks:        3,
		FunctionalImpairment: true,
	})
	if err != nil {
		t.Fatalf("add symptom assessment: %v", err)
	}
	if created.ID == "" || created.CreatedAt == 0 {
		t.Fatalf("missing generated fields: %+v", created)
	}

	list, err := s.ListSymptomAssessments(ctx, p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}
	got := list[0]
	if got.SymptomCode != "A1" || !got.IsPresent || !got.FunctionalImpairment {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if want := "Mood Disorders > Major Depressive Disorder > Core symptoms > Depressed mood most of the day, nearly every day"; got.HierarchyPath() != want {
		t.Fatalf("hierarchy path = %q", got.HierarchyPath())
	}
	if !got.RequiresAttention() {
		t.Fatal("present symptom scored 7 with impairment should require attention")
	}

	// No hierarchy placement, no row.
	if _, err := s.AddSymptomAssessment(ctx, SymptomAssessment{PatientID: p.ID, SymptomName: "Fatigue"}); err == nil {
		t.Fatal("expected validation error for missing category/disorder")
	}
	if _, err := s.AddSymptomAssessment(ctx, SymptomAssessment{
		PatientID: "absent", Category: "Mood Disorders", Disorder: "MDD", SymptomName: "Fatigue",
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("orphan symptom assessment err = %v, want ErrNotFound", err)
	}
}

func TestSymptomAssessmentHelpers(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "Not rated"}, {2, "Minimal"}, {4, "Mild"}, {6, "Moderate"}, {8, "Severe"}, {10, "Extreme"},
	}
	for _, tc := range cases {
		sa := SymptomAssessment{SeverityScore: tc.score}
		if got := sa.SeverityDescription(); got != tc.want {
			t.Fatalf("score %d = %q, want %q", tc.score, got, tc.want)
		}
	}

	sa := SymptomAssessment{Severity: "Moderate", SeverityScore: 9}
	if got := sa.SeverityDescription(); got != "Moderate" {
		t.Fatalf("text rating should win over score, got %q", got)
	}

	if (SymptomAssessment{IsPresent: false, Severity: "Extreme"}).RequiresAttention() {
		t.Fatal("absent symptom never requires attention")
	}
	if !(SymptomAssessment{IsPresent: true, Severity: "Severe"}).RequiresAttention() {
		t.Fatal("severe present symptom requires attention")
	}
	if (SymptomAssessment{IsPresent: true, SeverityScore: 5}).RequiresAttention() {
		t.Fatal("mid-score symptom without impairment does not require attention")
	}

	if got := (SymptomAssessment{SymptomCode: "A1", SymptomName: "Depressed mood"}).DisplayName(); got != "A1: Depressed mood" {
		t.Fatalf("display name = %q", got)
	}
}
