package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/diewo77/smartstore/auth"
	"github.com/diewo77/smartstore/httpx"
)

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// requireUser pulls the authenticated user id out of the context. The token
// middleware guarantees it for protected routes; a missing id means the
// route was wired without the middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		httpx.Unauthorized(w)
		return 0, false
	}
	return uid, true
}

// pathID parses the {id} route parameter. A non-numeric id behaves like a
// missing record.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		httpx.NotFound(w)
		return 0, false
	}
	return uint(id), true
}

// parseIDList splits a comma-separated id filter. Malformed segments are a
// client error, distinct from an empty filter.
func parseIDList(raw string) ([]uint, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
