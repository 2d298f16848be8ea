package db

import (
	"strings"

	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBatchSize = 50000

// CopyInto bulk-inserts rows into a (possibly schema-qualified) table using
// the COPY protocol, in batches of batchSize rows (0 = default 50,000).
func CopyInto(ctx context.Context, pool Pool, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	ident := tableIdentifier(table)
	log := zap.L().With(
		zap.String("component", "db.copy"),
		zap.String("table", table),
		zap.Int("total_rows", len(rows)),
	)

	var total int64
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		batch := rows[i:end]

		n, err := pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(batch))
		if err != nil {
			return total, eris.Wrapf(err, "db: COPY into %s (batch %d-%d)", table, i, end)
		}
		total += n

		log.Debug("batch loaded",
			zap.Int("batch_start", i),
			zap.Int("batch_end", end),
			zap.Int64("batch_rows", n),
		)
	}

	return total, nil
}

// tableIdentifier splits a schema-qualified table name into a pgx.Identifier.
func tableIdentifier(table string) pgx.Identifier {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}
	}
	return pgx.Identifier{table}
}

// SanitizeTable quotes a (possibly schema-qualified) table name for use in
// SQL text.
func SanitizeTable(table string) string {
	return tableIdentifier(table).Sanitize()
}
