package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apictl/pkg/api/types"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		data := map[string]string{"foo": "bar"}

		WriteJSON(rec, http.StatusOK, data)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		err := json.Unmarshal(rec.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteWithETag(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteWithETag(rec, http.StatusOK, `"7"`, map[string]string{"id": "a"})
	assert.Equal(t, `"7"`, rec.Header().Get("ETag"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	WriteWithETag(rec, http.StatusOK, "", nil)
	_, ok := rec.Header()["Etag"]
	assert.False(t, ok)
}

func TestWriteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		write    func(w http.ResponseWriter)
		wantCode int
		wantErr  string
	}{
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "api not found: x") }, http.StatusNotFound, "not_found"},
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "invalid_json", "bad body") }, http.StatusBadRequest, "invalid_json"},
		{"precondition failed", func(w http.ResponseWriter) { WritePreconditionFailed(w, "stale") }, http.StatusPreconditionFailed, "conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body types.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}
