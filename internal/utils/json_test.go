package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONError(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		message        string
		expectedBody   string
		expectedStatus int
	}{
		{
			name:           "bad request",
			status:         http.StatusBadRequest,
			message:        "bad request",
			expectedBody:   `{"error":"bad request"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "payment required",
			status:         http.StatusPaymentRequired,
			message:        "insufficient balance",
			expectedBody:   `{"error":"insufficient balance"}`,
			expectedStatus: http.StatusPaymentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			err := WriteJSONError(w, tt.status, tt.message)

			assert.NoError(t, err, "WriteJSONError should not return an error")
			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch")
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type header mismatch")
			assert.JSONEq(t, tt.expectedBody, w.Body.String(), "Response body mismatch")
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteJSON(w, http.StatusCreated, struct {
		ID int64 `json:"id"`
	}{ID: 7})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Amount int64 `json:"amount"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, int64(5), v.Amount)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":6,"total_price":1}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, int64(6), v.Amount)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(r, &v))
}
