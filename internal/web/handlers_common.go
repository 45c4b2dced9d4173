package web

// handlers_common.go holds the helpers shared by every handler: query
// parsing, body decoding and the delete acknowledgement.

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/normalize"
)

// maxJSONBody bounds single-record request bodies.
const maxJSONBody = 1 << 20

// MessageResponse acknowledges a delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// queryErrors collects problems with query parameters into one InputError.
type queryErrors struct {
	err core.InputError
}

func (q *queryErrors) add(field, format string, args ...any) {
	q.err.Fields = append(q.err.Fields, core.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (q *queryErrors) result() error {
	if len(q.err.Fields) == 0 {
		return nil
	}
	return &q.err
}

// intParam parses an optional non-negative integer query parameter.
func (q *queryErrors) intParam(r *http.Request, name string) int {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		q.add(name, "must be a non-negative integer")
		return 0
	}
	return i
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func (q *queryErrors) dateParam(r *http.Request, name string) time.Time {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return time.Time{}
	}
	t, err := time.Parse(normalize.DateLayout, val)
	if err != nil {
		q.add(name, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return t
}

// page parses skip and limit. A limit of 0 takes the default.
func (q *queryErrors) page(r *http.Request) core.Page {
	return core.Page{Skip: q.intParam(r, "skip"), Limit: q.intParam(r, "limit")}
}

// entryID parses the {id} path parameter.
func entryID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &core.InputError{Fields: []core.FieldError{{Field: "id", Message: "must be a positive integer"}}}
	}
	return id, nil
}

// decodeBody decodes a single JSON object into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return core.DecodeJSON(r.Body, dst)
}

// readBody reads a whole request body up to limit bytes. A limit of 0
// means no limit.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	return io.ReadAll(r.Body)
}
