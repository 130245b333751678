package application

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"time"

	repo "github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

// PageRequest is a history page address. Before wins over Page when both are given.
type PageRequest struct {
	Page   int
	Limit  int
	Before string
}

// PageCursor walks a conversation backward in time. Page 1 is the most recent Limit messages.
// Page is 0 when the cursor addresses a Before boundary instead.
type PageCursor struct {
	Page   int
	Limit  int
	Before *repo.Boundary
}

type cursorToken struct {
	TS  int64 `json:"ts"`
	Seq int64 `json:"seq"`
}

// EncodeCursor renders b as an opaque URL-safe token.
func EncodeCursor(b repo.Boundary) string {
	raw, _ := json.Marshal(cursorToken{TS: b.Timestamp.UnixMicro(), Seq: b.Seq})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (repo.Boundary, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return repo.Boundary{}, apperr.InvalidArgument("invalid cursor")
	}
	var t cursorToken
	if err := json.Unmarshal(raw, &t); err != nil || t.Seq <= 0 {
		return repo.Boundary{}, apperr.InvalidArgument("invalid cursor")
	}
	return repo.Boundary{Timestamp: time.UnixMicro(t.TS).UTC(), Seq: t.Seq}, nil
}

// NewPageCursor normalizes r. A missing limit takes defaultLimit; larger than max is rejected.
func NewPageCursor(r PageRequest, defaultLimit, maxLimit int) (PageCursor, error) {
	c := PageCursor{Page: r.Page, Limit: r.Limit}
	switch {
	case c.Limit == 0:
		c.Limit = defaultLimit
	case c.Limit < 0 || c.Limit > maxLimit:
		return PageCursor{}, apperr.InvalidArgument("limit must be between 1 and %d", maxLimit)
	}
	switch {
	case c.Page == 0:
		c.Page = 1
	case c.Page < 0:
		return PageCursor{}, apperr.InvalidArgument("page must be positive")
	case c.Limit > 0 && c.Page-1 > math.MaxInt32/c.Limit:
		// keeps the offset inside what Postgres and int arithmetic accept
		return PageCursor{}, apperr.InvalidArgument("page is out of range")
	}
	if r.Before != "" {
		b, err := DecodeCursor(r.Before)
		if err != nil {
			return PageCursor{}, err
		}
		c.Before = &b
		c.Page = 0
	}
	return c, nil
}

// Window fetches one row past the page so hasMore needs no count query.
func (c PageCursor) Window() repo.Window {
	w := repo.Window{Limit: c.Limit + 1, Before: c.Before}
	if c.Before == nil {
		w.Offset = (c.Page - 1) * c.Limit
	}
	return w
}
