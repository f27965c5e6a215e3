package ui

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApp_ViewFromQuery(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/view?Machine=C", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Machine: C")
	assert.Contains(t, w.Body.String(), "<article>")
}

func TestApp_EmbedViewOmitsReport(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/view?Machine=C&embed=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `class="embed"`)
	assert.NotContains(t, w.Body.String(), "<article>")
}

func TestApp_SessionView(t *testing.T) {
	s := newTestServer(t)
	a := createSession(t, s, `{"query":"Shift=Night"}`)

	w := do(t, s, http.MethodGet, "/view/"+a.SessionID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Shift: Night")

	w = do(t, s, http.MethodGet, "/view/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_RootRedirects(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/view", w.Header().Get("Location"))
}
