package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnblockIPRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing ip", `{}`},
		{"not an address", `{"ip":"not-an-ip"}`},
		{"hostname", `{"ip":"example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/unblock-ip", strings.NewReader(tt.body))

			UnblockIP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
