package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/internal/model"
)

var serviceCols = []string{"id", "name", "display_name", "status", "check_interval_minutes", "notes", "last_check", "metadata", "created_at", "updated_at"}

func TestServicePostgres_CreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewServicePostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	s := &model.Service{
		ID:                   "svc_1",
		Name:                 "google_calendar",
		DisplayName:          "Google Calendar",
		Status:               model.ServiceOffline,
		CheckIntervalMinutes: 60,
		Metadata:             map[string]string{"owner": "Mike"},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	mock.ExpectQuery("INSERT INTO services").
		WithArgs(s.ID, s.Name, s.DisplayName, "offline", 60, "", nil, []byte(`{"owner":"Mike"}`), now, now).
		WillReturnRows(sqlmock.NewRows(serviceCols).
			AddRow(s.ID, s.Name, s.DisplayName, "offline", 60, "", nil, []byte(`{"owner":"Mike"}`), now, now))

	got, err := repo.Create(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, got.LastCheck)
	assert.Equal(t, map[string]string{"owner": "Mike"}, got.Metadata)

	mock.ExpectQuery("SELECT (.+) FROM services ORDER BY display_name").
		WillReturnRows(sqlmock.NewRows(serviceCols).
			AddRow(s.ID, s.Name, s.DisplayName, "online", 30, "ok", now, []byte(`{}`), now, now))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].LastCheck)
	assert.Nil(t, items[0].Metadata)
	assert.Equal(t, model.ServiceOnline, items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServicePostgres_UpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE services").WillReturnError(sql.ErrNoRows)

	_, err = NewServicePostgres(db).Update(context.Background(), &model.Service{ID: "svc_x"})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestServicePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM services WHERE id = ?").
		WithArgs("svc_x").
		WillReturnError(sql.ErrNoRows)

	_, err = NewServicePostgres(db).FindByID(context.Background(), "svc_x")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
