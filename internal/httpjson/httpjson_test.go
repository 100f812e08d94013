package httpjson_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/httpjson"
	"leadsync/internal/model"
)

func TestFail_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &model.ValidationError{Msg: "bad name"}, http.StatusBadRequest, "bad name"},
		{"wrapped validation", fmt.Errorf("create: %w", &model.ValidationError{Msg: "bad"}), http.StatusBadRequest, "bad"},
		{"not found", fmt.Errorf("lead x: %w", model.ErrNotFound), http.StatusNotFound, "lead x: not found"},
		{"upstream", &model.UpstreamError{Op: "AI search", Err: errors.New("quota exhausted")}, http.StatusBadGateway, "AI search failed: quota exhausted"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpjson.Fail(rec, tc.err)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct{ Name string }
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"a"}`))
	require.NoError(t, httpjson.Decode(r, &v))
	assert.Equal(t, "a", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := httpjson.Decode(r, &v)
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	ok := httpjson.Method(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.MethodPost)
	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	assert.True(t, httpjson.Method(rec, httptest.NewRequest(http.MethodPost, "/", nil), http.MethodGet, http.MethodPost))
}
