package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathParam(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		suffix string
		want   string
	}{
		{"/api/assets/gold/trades", "/api/assets/", "/trades", "gold"},
		{"/api/assets/gold/trades", "/api/assets/", "", "gold"},
		{"/api/assets/" + url.PathEscape("纳指ETF") + "/series", "/api/assets/", "/series", "纳指ETF"},
		{"/api/assets/gold", "/api/assets/", "", "gold"},
		{"/other/gold", "/api/assets/", "", ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		assert.Equal(t, tt.want, PathParam(r, tt.prefix, tt.suffix), "path %s", tt.path)
	}
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/assets", nil)

	assert.False(t, RequireMethod(rec, r, http.MethodGet))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	assert.True(t, RequireMethod(rec, r, http.MethodGet, http.MethodPost))
}

func TestRefreshParam(t *testing.T) {
	assert.True(t, refreshParam(httptest.NewRequest(http.MethodGet, "/api/assets?refresh=true", nil)))
	assert.False(t, refreshParam(httptest.NewRequest(http.MethodGet, "/api/assets?refresh=1", nil)))
	assert.False(t, refreshParam(httptest.NewRequest(http.MethodGet, "/api/assets", nil)))
}
