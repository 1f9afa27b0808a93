package leader

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zentra/emojimatch/internal/models"
	"github.com/zentra/emojimatch/pkg/auth"
)

const handlerSecret = "leader-handler-secret"

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, _, err := auth.GenerateAccessToken(uuid.New(), "ana", role, handlerSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, h http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newTestRouter(store *FakeStore) http.Handler {
	return NewHandler(NewService(store, nil, nil)).Routes(handlerSecret)
}

func TestHandler_ListLeaders(t *testing.T) {
	router := newTestRouter(NewFakeStore(seedLeaders(30)...))

	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantLen      int
		wantPageSize int
		wantPages    int
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK, wantLen: 25, wantPageSize: 25, wantPages: 2},
		{name: "second page", query: "?page=2&pageSize=25", wantStatus: http.StatusOK, wantLen: 5, wantPageSize: 25, wantPages: 2},
		{name: "small pages", query: "?pageSize=10", wantStatus: http.StatusOK, wantLen: 10, wantPageSize: 10, wantPages: 3},
		{name: "page size too large", query: "?pageSize=500", wantStatus: http.StatusBadRequest},
		{name: "negative page", query: "?page=-1", wantStatus: http.StatusBadRequest},
		{name: "non-numeric page", query: "?page=abc", wantStatus: http.StatusBadRequest},
		{name: "non-numeric page size", query: "?pageSize=x", wantStatus: http.StatusBadRequest},
		{name: "page beyond int range", query: "?page=99999999999999999999", wantStatus: http.StatusBadRequest},
		{name: "page overflows offset", query: "?page=9223372036854775807", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, "/"+tt.query, "", "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Data       []models.Leader `json:"data"`
				Total      int64           `json:"total"`
				PageSize   int             `json:"pageSize"`
				TotalPages int             `json:"totalPages"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Data, tt.wantLen)
			assert.Equal(t, int64(30), resp.Total)
			assert.Equal(t, tt.wantPageSize, resp.PageSize)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
		})
	}
}

func TestHandler_GetLeader(t *testing.T) {
	router := newTestRouter(NewFakeStore(models.NewLeader(7, "ana", "01:23", 42, 83, "2024-01-01")))

	rec := doRequest(t, router, http.MethodGet, "/7", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"data":{"id":7,"username":"ana","time":"01:23","moves":42,"seconds":83,"date":"2024-01-01"}}`,
		rec.Body.String(),
	)

	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/8", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodGet, "/x", "", "").Code)
}

func TestHandler_SubmitLeader(t *testing.T) {
	const valid = `{"username":"ana","time":"01:23","moves":42,"seconds":83,"date":"2024-01-01"}`

	tests := []struct {
		name       string
		authz      string
		body       string
		wantStatus int
	}{
		{name: "anonymous", body: valid, wantStatus: http.StatusUnauthorized},
		{name: "player", authz: bearer(t, auth.RolePlayer), body: valid, wantStatus: http.StatusCreated},
		{name: "missing moves", authz: bearer(t, auth.RolePlayer), body: `{"username":"ana","time":"01:23","seconds":83,"date":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{name: "client chosen id", authz: bearer(t, auth.RolePlayer), body: `{"id":3,"username":"ana","time":"01:23","moves":42,"seconds":83,"date":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{name: "moves as text", authz: bearer(t, auth.RolePlayer), body: `{"username":"ana","time":"01:23","moves":"42","seconds":83,"date":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, newTestRouter(NewFakeStore()), http.MethodPost, "/", tt.authz, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_DeleteLeader(t *testing.T) {
	router := newTestRouter(NewFakeStore(models.NewLeader(7, "ana", "01:23", 42, 83, "2024-01-01")))

	assert.Equal(t, http.StatusForbidden, doRequest(t, router, http.MethodDelete, "/7", bearer(t, auth.RolePlayer), "").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(t, router, http.MethodDelete, "/7", bearer(t, auth.RoleAdmin), "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodDelete, "/7", bearer(t, auth.RoleAdmin), "").Code)
}

func TestHandler_ExportWithoutStorage(t *testing.T) {
	router := newTestRouter(NewFakeStore())

	rec := doRequest(t, router, http.MethodPost, "/export", bearer(t, auth.RoleAdmin), "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_ExportBody(t *testing.T) {
	tests := []struct {
		name       string
		body       io.Reader
		wantStatus int
		wantObject string
	}{
		{name: "no body", body: nil, wantStatus: http.StatusOK},
		{name: "chunked empty body", body: io.NopCloser(strings.NewReader("")), wantStatus: http.StatusOK},
		{name: "named object", body: strings.NewReader(`{"object":"leaders/final.json"}`), wantStatus: http.StatusOK, wantObject: "leaders/final.json"},
		{name: "malformed body", body: io.NopCloser(strings.NewReader("{")), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			datasets := &FakeDatasets{}
			router := NewHandler(NewService(NewFakeStore(), datasets, nil)).Routes(handlerSecret)
			req := httptest.NewRequest(http.MethodPost, "/export", tt.body)
			req.Header.Set("Authorization", bearer(t, auth.RoleAdmin))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantObject != "" {
				assert.Contains(t, datasets.Saved, tt.wantObject)
			} else if tt.wantStatus == http.StatusOK {
				assert.Len(t, datasets.Saved, 1)
			}
		})
	}
}
