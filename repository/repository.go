package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// ErrInvalidCursor is returned for cursors that do not decode.
var ErrInvalidCursor = errors.New("invalid cursor")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into an ILIKE substring pattern that
// matches wildcard characters literally.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// IsForeignKeyViolation reports whether err is a postgres FK violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// Cursor is a keyset position over (created_at, id).
type Cursor struct {
	Timestamp time.Time
	ID        int64
}

func EncodeCursor(timestamp time.Time, id int64) string {
	cursorStr := fmt.Sprintf("%d:%d", timestamp.UnixMicro(), id)
	return base64.StdEncoding.EncodeToString([]byte(cursorStr))
}

func DecodeCursor(cursor string) (*Cursor, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, err
	}

	var micros, id int64
	if _, err := fmt.Sscanf(string(decoded), "%d:%d", &micros, &id); err != nil {
		return nil, err
	}

	return &Cursor{
		Timestamp: time.UnixMicro(micros),
		ID:        id,
	}, nil
}
