package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, *Board) {
	t.Helper()
	processor, board, store := newTestProcessor(&fakeResolver{})
	server := NewServer(board, store, processor.resolver, processor, NewArchive(board, store))
	return server.Routes(), board
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func createNote(t *testing.T, h http.Handler) ScrapItem {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/v1/items/manual",
		`{"type":"note","metadata":{"title":"Memo","url":"","noteConfig":{"text":"buy milk"}},"layout":"free","date":"2024-03-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[ScrapItem](t, rec)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestCreateManualAndGet(t *testing.T) {
	h, board := newTestServer(t)
	item := createNote(t, h)

	assert.Equal(t, TypeNote, item.Type)
	assert.Equal(t, "2024-03-15", item.ScopeKey)
	assert.Equal(t, &NoteConfig{Text: "buy milk"}, item.Metadata.Config)
	assert.Len(t, board.Items(), 1)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/items/"+item.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, item.ID, decodeBody[ScrapItem](t, rec).ID)
}

func TestCreateManualRejects(t *testing.T) {
	h, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown type", `{"type":"hologram","metadata":{"title":"x"}}`, http.StatusBadRequest},
		{"missing type", `{"metadata":{"title":"x"}}`, http.StatusBadRequest},
		{"bad layout", `{"type":"note","metadata":{"title":"x"},"layout":"sideways"}`, http.StatusBadRequest},
		{"bad date", `{"type":"note","metadata":{"title":"x"},"date":"yesterday"}`, http.StatusBadRequest},
		{"config mismatch", `{"type":"sticker","metadata":{"title":"x","url":"","noteConfig":{"text":"a"}}}`, http.StatusBadRequest},
		{"malformed json", `{"type":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/items/manual", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestIntakeEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/items", `{"url":"https://x.com/a/status/1","date":"2024-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decodeBody[ScrapItem](t, rec)
	assert.Equal(t, TypeTwitter, item.Type)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/items", `{"url":"https://example.com/article"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, ErrMsgUnsupportedSite, decodeBody[ErrorResponse](t, rec).Error)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/items", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, ErrMsgInvalidRequest, resp.Error)
	assert.Contains(t, resp.Fields, "url")
}

func TestIntakeEndpointMetadataUnavailable(t *testing.T) {
	processor, board, store := newTestProcessor(&fakeResolver{fallback: true})
	h := NewServer(board, store, processor.resolver, processor, NewArchive(board, store)).Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/items", `{"url":"https://www.instagram.com/p/abc"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, board.Items())
}

func TestResolveEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/resolve?url=https://x.com/a/status/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Type     ContentType `json:"type"`
		Strategy string      `json:"strategy"`
		Fallback bool        `json:"fallback"`
		Metadata Metadata    `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeTwitter, resp.Type)
	assert.False(t, resp.Fallback)
	assert.Equal(t, "Resolved twitter", resp.Metadata.Title)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/resolve?url=relative/path", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemMutations(t *testing.T) {
	h, board := newTestServer(t)
	item := createNote(t, h)
	base := "/api/v1/items/" + item.ID

	rec := doRequest(t, h, http.MethodPatch, base+"/position", `{"x":10,"scale":9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decodeBody[ScrapItem](t, rec)
	assert.Equal(t, 10.0, moved.Position.X)
	assert.Equal(t, item.Position.Y, moved.Position.Y)
	assert.Equal(t, MaxScale, moved.Position.Scale)

	rec = doRequest(t, h, http.MethodPost, base+"/front", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, decodeBody[ScrapItem](t, rec).Position.Z, item.Position.Z)

	rec = doRequest(t, h, http.MethodPost, base+"/main", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ScrapItem](t, rec).IsMainItem)

	rec = doRequest(t, h, http.MethodPost, base+"/favorite", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ScrapItem](t, rec).IsFavorite)

	rec = doRequest(t, h, http.MethodPut, base+"/border", `{"style":"tape"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, BorderTape, decodeBody[ScrapItem](t, rec).BorderStyle)

	rec = doRequest(t, h, http.MethodPut, base+"/border", `{"style":"glitter"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Fields, "style")

	rec = doRequest(t, h, http.MethodPatch, base+"/metadata", `{"title":"Groceries","config":{"text":"eggs"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[ScrapItem](t, rec)
	assert.Equal(t, "Groceries", updated.Metadata.Title)
	assert.Equal(t, &NoteConfig{Text: "eggs"}, updated.Metadata.Config)

	rec = doRequest(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, board.Items())
}

func TestMetadataConfigMismatch(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/items", `{"url":"https://x.com/a/status/1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decodeBody[ScrapItem](t, rec)

	rec = doRequest(t, h, http.MethodPatch, "/api/v1/items/"+item.ID+"/metadata", `{"config":{"text":"eggs"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrMsgConfigMismatch, decodeBody[ErrorResponse](t, rec).Error)
}

func TestUnknownItem(t *testing.T) {
	h, _ := newTestServer(t)
	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/items/missing", ""},
		{http.MethodDelete, "/api/v1/items/missing", ""},
		{http.MethodPatch, "/api/v1/items/missing/position", `{"x":1}`},
		{http.MethodPost, "/api/v1/items/missing/front", ""},
	} {
		rec := doRequest(t, h, req.method, req.path, req.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", req.method, req.path)
		assert.Equal(t, ErrMsgItemNotFound, decodeBody[ErrorResponse](t, rec).Error)
	}
}

func TestGesturesEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	item := createNote(t, h)
	path := "/api/v1/items/" + item.ID + "/gestures"

	rec := doRequest(t, h, http.MethodPost, path, `{"events":[
		{"kind":"down","target":"resize","point":{"x":0,"y":0}},
		{"kind":"move","point":{"x":100,"y":40}},
		{"kind":"up"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[ScrapItem](t, rec)
	assert.InDelta(t, 1.0, got.Position.Scale, 1e-9)
	assert.Greater(t, got.Position.Z, item.Position.Z)

	rec = doRequest(t, h, http.MethodPost, path, `{"events":[{"kind":"wiggle"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, path, `{"events":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndClearByScope(t *testing.T) {
	h, board := newTestServer(t)
	createNote(t, h)
	rec := doRequest(t, h, http.MethodPost, "/api/v1/items/manual",
		`{"type":"sticker","metadata":{"title":"star","url":""},"layout":"monthly","date":"2024-03-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/v1/items?scope=day&date=2024-03-15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	day := decodeBody[[]ScrapItem](t, rec)
	require.Len(t, day, 1)
	assert.Equal(t, TypeNote, day[0].Type)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/items?scope=monthly&date=2024-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	month := decodeBody[[]ScrapItem](t, rec)
	require.Len(t, month, 1)
	assert.Equal(t, TypeSticker, month[0].Type)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/items?scope=weekly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/items?scope=day&date=2024-03-15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[map[string]int](t, rec)["removed"])

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/scopes/2024-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[map[string]int](t, rec)["removed"])
	assert.Empty(t, board.Items())
}

func TestTextAndStyleEndpoints(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/text/2024-03/goals", `{"value":"run 5k"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "run 5k", decodeBody[PageText](t, rec).Goals)

	rec = doRequest(t, h, http.MethodPut, "/api/v1/text/2024-03/title", `{"value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run 5k", decodeBody[ScopeTextMap](t, rec)["2024-03"].Goals)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/style", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultDiaryStyle(), decodeBody[DiaryStyle](t, rec))

	rec = doRequest(t, h, http.MethodPut, "/api/v1/style", `{"coverPattern":"denim"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	style := decodeBody[DiaryStyle](t, rec)
	assert.Equal(t, PatternDenim, style.CoverPattern)
	assert.Equal(t, DefaultDiaryStyle().CoverColor, style.CoverColor, "unset fields keep their value")

	rec = doRequest(t, h, http.MethodPut, "/api/v1/style", `{"coverColor":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Fields, "covercolor")
}

func TestExportImportEndpoints(t *testing.T) {
	h, board := newTestServer(t)
	createNote(t, h)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="scrap-diary-backup-`)
	exported := rec.Body.String()

	rec = doRequest(t, h, http.MethodGet, "/api/v1/export?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	board.Replace(nil)
	rec = doRequest(t, h, http.MethodPost, "/api/v1/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeBody[map[string]int](t, rec)["items"])
	assert.Len(t, board.Items(), 1)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/import", `{"items": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackupEndpoints(t *testing.T) {
	h, board := newTestServer(t)
	createNote(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/backups", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[BackupSummary](t, rec)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, 1, created.Items)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/backups", `{"description":"before cleanup"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/backups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]BackupSummary](t, rec), 2)

	board.Replace(nil)
	rec = doRequest(t, h, http.MethodPost, "/api/v1/backups/1/restore", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, board.Items(), 1)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/backups/abc/restore", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/backups/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/backups/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrMsgBackupNotFound, decodeBody[ErrorResponse](t, rec).Error)
}
