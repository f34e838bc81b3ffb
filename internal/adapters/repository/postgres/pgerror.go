package postgres

import (
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// asPgError は err が PostgreSQL のエラーであれば取り出します。
func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// placeholders はクエリ引数とプレースホルダ番号を組み立てます。
type placeholders struct {
	args []any
}

func (p *placeholders) add(value any) string {
	p.args = append(p.args, value)
	return "$" + strconv.Itoa(len(p.args))
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}

func nextPageToken(fetched, limit, offset int) string {
	if fetched <= limit {
		return ""
	}
	return strconv.Itoa(offset + limit)
}
