// Package catalog holds the shared filter/sort/cursor types of the listing
// engine. Pagination is keyset-based: a cursor encodes the last row's sort
// value and id, and every sort appends id as the final key so ordering is
// deterministic and cursors stay stable under concurrent publications.
package catalog

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// Page is the common pagination input. Size is clamped to [1, MaxPageSize].
type Page struct {
	Cursor string
	Size   int
}

// MaxPageSize bounds a single listing response.
const MaxPageSize = 100

// Limit returns the effective page size.
func (p Page) Limit() int {
	if p.Size < 1 {
		return 20
	}
	if p.Size > MaxPageSize {
		return MaxPageSize
	}
	return p.Size
}

// Cursor is the decoded keyset position: the sort column's value at the last
// returned row plus that row's id as tie-break.
type Cursor struct {
	SortValue string
	LastID    uint64
}

var errBadCursor = errors.New("malformed cursor")

// EncodeCursor serializes a keyset position.
func EncodeCursor(sortValue string, lastID uint64) string {
	raw := sortValue + "\x00" + strconv.FormatUint(lastID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, errBadCursor
	}
	parts := strings.SplitN(string(raw), "\x00", 2)
	if len(parts) != 2 {
		return Cursor{}, errBadCursor
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, errBadCursor
	}
	return Cursor{SortValue: parts[0], LastID: id}, nil
}

// Sort names a whitelisted sort column and direction.
type Sort struct {
	Field string
	Desc  bool
}

// KeysetWhere builds the keyset comparison for a cursor over (col, id).
// Ascending: (col, id) > (v, lastID); descending flips the comparison.
func KeysetWhere(col string, desc bool, cur Cursor) (string, []any) {
	if cur.LastID == 0 {
		return "", nil
	}
	op := ">"
	if desc {
		op = "<"
	}
	cond := "(" + col + " " + op + " ? OR (" + col + " = ? AND id " + op + " ?))"
	return cond, []any{cur.SortValue, cur.SortValue, cur.LastID}
}
