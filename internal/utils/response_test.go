package utils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeOptionalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    io.Reader
		want    string
		wantErr bool
	}{
		{name: "no body", body: nil},
		{name: "chunked empty body", body: io.NopCloser(strings.NewReader(""))},
		{name: "object", body: strings.NewReader(`{"object":"a.json"}`), want: "a.json"},
		{name: "truncated", body: io.NopCloser(strings.NewReader(`{"object":`)), wantErr: true},
		{name: "unknown field", body: strings.NewReader(`{"bucket":"x"}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req struct {
				Object string `json:"object"`
			}
			r := httptest.NewRequest(http.MethodPost, "/", tt.body)

			err := DecodeOptionalJSON(r, &req)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, req.Object)
		})
	}
}

func TestGetQueryInt(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   int
		wantOK bool
	}{
		{name: "missing", query: "", want: 25, wantOK: true},
		{name: "present", query: "?n=3", want: 3, wantOK: true},
		{name: "negative", query: "?n=-2", want: -2, wantOK: true},
		{name: "not a number", query: "?n=abc", wantOK: false},
		{name: "overflows int", query: "?n=99999999999999999999", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

			got, ok := GetQueryInt(r, "n", DefaultPageSize)

			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
