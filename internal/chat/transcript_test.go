package chat

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAppend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO conversations`).
		WithArgs(pgxmock.AnyArg(), "s1", "user", "find clinics", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewTranscriptStore(mock)
	require.NoError(t, store.Append(context.Background(), "s1", "user", "find clinics", MarkerNone))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"role", "content", "marker", "created_at"}).
		AddRow("user", "find clinics", "", now).
		AddRow("assistant", "JB, SG or both?", "", now.Add(time.Second))

	mock.ExpectQuery(`SELECT role, content, COALESCE\(marker, ''\), created_at`).
		WithArgs("s1").
		WillReturnRows(rows)

	store := NewTranscriptStore(mock)
	messages, err := store.Recent(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "JB, SG or both?", messages[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
