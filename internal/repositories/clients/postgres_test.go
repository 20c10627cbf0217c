package clients

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"windykator/internal/common"
	"windykator/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var clientColumns = []string{"id", "name", "email", "phone", "note", "updated_at"}

func TestUpsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO clients .* ON CONFLICT \(id\) DO UPDATE SET .*`)
	now := time.Now()

	mock.ExpectExec(q.String()).
		WithArgs(int64(7), "Alpha", "a@example.com", "+48600100200", "[WINDYKACJA]true[/WINDYKACJA]", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Client{
		ID:        7,
		Name:      "Alpha",
		Email:     "a@example.com",
		Phone:     "+48600100200",
		Note:      "[WINDYKACJA]true[/WINDYKACJA]",
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO clients`).WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), &models.Client{ID: 7})
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, email, phone, note, updated_at FROM clients WHERE id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(clientColumns).
			AddRow(int64(7), "Alpha", "a@example.com", "", "note text", now))

	got, err := repo.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 7 || got.Note != "note text" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, email, phone, note, updated_at FROM clients WHERE id`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 404)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, email, phone, note, updated_at FROM clients ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(clientColumns).
			AddRow(int64(1), "A", "", "", "", now).
			AddRow(int64(2), "B", "", "", "", now))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Name != "B" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestUpdateNote_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE clients SET note = \$2 WHERE id = \$1`).
		WithArgs(int64(7), "new note").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateNote(context.Background(), 7, "new note"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateNote_MissingRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE clients SET note`).
		WithArgs(int64(404), "x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateNote(context.Background(), 404, "x")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
