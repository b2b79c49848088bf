package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	BadRequest(rec, "bad %s", "thing")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "bad thing" {
		t.Errorf("error = %s, want 'bad thing'", resp["error"])
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(http.ResponseWriter)
		want int
	}{
		{"ok", func(w http.ResponseWriter) { WriteJSONOK(w, struct{}{}) }, http.StatusOK},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError},
		{"method", func(w http.ResponseWriter) { MethodNotAllowed(w, http.MethodPost) }, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.fn(rec)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, http.MethodPost)
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want POST", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		X int `json:"x"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"x": 3}`, false},
		{"unknown field", `{"x": 3, "y": 4}`, true},
		{"trailing", `{"x": 3}{"x": 4}`, true},
		{"malformed", `{"x":`, true},
		{"too large", `{"x": 3, "pad": "` + strings.Repeat("a", MaxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.X != 3 {
				t.Errorf("X = %d, want 3", p.X)
			}
		})
	}
}

func TestQueryParams(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?x=12&y=abc&l=2.5", nil)

	if v, ok, err := QueryInt(req, "x"); v != 12 || !ok || err != nil {
		t.Errorf("QueryInt(x) = %d, %v, %v", v, ok, err)
	}
	if _, ok, err := QueryInt(req, "y"); !ok || err == nil {
		t.Errorf("QueryInt(y) should report a parse error, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := QueryInt(req, "missing"); ok || err != nil {
		t.Errorf("QueryInt(missing) = ok=%v err=%v", ok, err)
	}
	if v, err := QueryFloat(req, "l", 0); v != 2.5 || err != nil {
		t.Errorf("QueryFloat(l) = %v, %v", v, err)
	}
	if v, err := QueryFloat(req, "missing", 7); v != 7 || err != nil {
		t.Errorf("QueryFloat default = %v, %v", v, err)
	}
	if _, err := QueryFloat(req, "y", 0); err == nil {
		t.Error("QueryFloat(y) should fail")
	}
}
