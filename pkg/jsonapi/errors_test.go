package jsonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type fakeResponseWriter struct {
	headers map[string]string
	status  int
	body    []byte
}

func newFakeResponseWriter() *fakeResponseWriter {
	return &fakeResponseWriter{headers: make(map[string]string)}
}

func (f *fakeResponseWriter) SetHeader(key, value string) { f.headers[key] = value }
func (f *fakeResponseWriter) WriteHeader(statusCode int)  { f.status = statusCode }
func (f *fakeResponseWriter) Write(data []byte) (int, error) {
	f.body = append(f.body, data...)
	return len(data), nil
}
func (f *fakeResponseWriter) WriteJSON(data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = f.Write(body)
	return err
}
func (f *fakeResponseWriter) UnderlyingResponseWriter() http.ResponseWriter { return nil }

func TestMapError(t *testing.T) {
	t.Run("passes through engine errors", func(t *testing.T) {
		orig := NewValidationError("unknown_filter_field", "bad", "filter[x]")
		mapped := MapError(fmt.Errorf("wrapped: %w", orig))
		if mapped.Code != "unknown_filter_field" || mapped.Status != 400 {
			t.Errorf("mapped = %+v", mapped)
		}
	})

	t.Run("unique violations become conflicts", func(t *testing.T) {
		for _, msg := range []string{
			`ERROR: duplicate key value violates unique constraint "members_username_key" (SQLSTATE 23505)`,
			"constraint failed: UNIQUE constraint failed: members.username",
		} {
			mapped := MapError(errors.New(msg))
			if mapped.Status != http.StatusConflict {
				t.Errorf("MapError(%q).Status = %d, want 409", msg, mapped.Status)
			}
		}
	})

	t.Run("unknown errors become generic 500s", func(t *testing.T) {
		mapped := MapError(errors.New("pq: connection reset by peer"))
		if mapped.Status != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", mapped.Status)
		}
		if strings.Contains(mapped.Detail, "connection reset") {
			t.Errorf("detail %q leaks the internal cause", mapped.Detail)
		}
	})
}

func TestWriteErrorDocument(t *testing.T) {
	w := newFakeResponseWriter()
	WriteError(w, NewValidationError("unknown_filter_field", "Field \"x\" is not filterable", "filter[x]"))

	if w.status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.status)
	}
	if w.headers["Content-Type"] != ContentType {
		t.Errorf("content type = %q, want %q", w.headers["Content-Type"], ContentType)
	}

	var doc ErrorDocument
	if err := json.Unmarshal(w.body, &doc); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(doc.Errors))
	}
	obj := doc.Errors[0]
	if obj.Status != "400" {
		t.Errorf("status member = %q, want \"400\"", obj.Status)
	}
	if obj.Source == nil || obj.Source.Pointer != "filter[x]" || obj.Source.Parameter != "filter[x]" {
		t.Errorf("source = %+v, want filter[x] in pointer and parameter", obj.Source)
	}
}

func TestWriteErrorNeverLeaksInternals(t *testing.T) {
	w := newFakeResponseWriter()
	WriteError(w, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"))

	if w.status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.status)
	}
	if strings.Contains(string(w.body), "10.0.0.5") {
		t.Errorf("body %q leaks the internal error", w.body)
	}

	var doc ErrorDocument
	if err := json.Unmarshal(w.body, &doc); err != nil {
		t.Fatalf("error response is not a valid JSON:API document: %v", err)
	}
}
