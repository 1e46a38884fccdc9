package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"evecorpbot/internal/domain"
)

func TestDocumentRepository_Load(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT body\s+FROM bot_documents`).
					WithArgs("events").
					WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(`[{"messageId":"m1"}]`))
			},
			want: `[{"messageId":"m1"}]`,
		},
		{
			name: "missing row",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT body\s+FROM bot_documents`).
					WithArgs("events").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT body\s+FROM bot_documents`).
					WithArgs("events").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewDocumentRepository(db)
			got, err := repo.Load(ctx, "events")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentRepository_Save(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO bot_documents \(key, body, updated_at\)`).
		WithArgs("config", `{"fuelChannelId":"c1"}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &documentRepository{DB: db, now: func() time.Time { return now }}
	require.NoError(t, repo.Save(ctx, "config", []byte(`{"fuelChannelId":"c1"}`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS bot_documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
