package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyInto_EmptyRows(t *testing.T) {
	n, err := CopyInto(context.TODO(), nil, "censuskr.districts", []string{"a"}, nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyInto_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"censuskr", "districts"}, []string{"code", "name"}).WillReturnResult(3)

	rows := [][]any{{"11010", "a"}, {"11020", "b"}, {"11030", "c"}}
	n, err := CopyInto(context.Background(), mock, "censuskr.districts", []string{"code", "name"}, rows, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInto_Batches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"stats"}, []string{"code"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"stats"}, []string{"code"}).WillReturnResult(1)

	rows := [][]any{{"a"}, {"b"}, {"c"}}
	n, err := CopyInto(context.Background(), mock, "stats", []string{"code"}, rows, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInto_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"stats"}, []string{"code"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyInto(context.Background(), mock, "stats", []string{"code"}, [][]any{{"a"}}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into stats")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"censuskr.districts", `"censuskr"."districts"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTable(tt.input))
		})
	}
}
