package profile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoSaveUpsertsCollection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	resumes := []Resume{
		{
			ID:         1,
			Name:       "Resume 1",
			IsActive:   true,
			Skills:     []Skill{{Name: "Go", AIConfidence: 3}},
			Source:     SourceCV,
			Hash:       "abc123",
			UploadedAt: time.Now().UTC(),
		},
	}

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs("acct-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), "acct-1", resumes); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLoadDecodesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	stored := []Resume{
		{ID: 1, Name: "Resume 1", IsActive: true, Skills: []Skill{{Name: "Go", AIConfidence: 4}}, Source: SourceCV},
		{ID: 2, Name: "Resume 2", Source: SourceManual, Refined: true},
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	mock.ExpectQuery("SELECT resumes FROM profiles").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"resumes"}).AddRow(raw))

	resumes, err := repo.Load(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(resumes) != 2 {
		t.Fatalf("expected 2 resumes, got %d", len(resumes))
	}
	if resumes[0].Skills[0].AIConfidence != 4 {
		t.Fatalf("unexpected skill decode: %+v", resumes[0].Skills[0])
	}
	if !resumes[1].Refined {
		t.Fatalf("expected refined flag decoded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLoadMissingAccountReturnsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT resumes FROM profiles").
		WithArgs("acct-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"resumes"}))

	resumes, err := repo.Load(context.Background(), "acct-unknown")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(resumes) != 0 {
		t.Fatalf("expected empty collection, got %d", len(resumes))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
