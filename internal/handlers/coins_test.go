package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proofForm(t *testing.T, amount, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("amount", amount))
	if filename != "" {
		part, err := mw.CreateFormFile("transaction_image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func submitProof(wf *workflow, t *testing.T, amount, filename string, content []byte) *httptest.ResponseRecorder {
	body, contentType := proofForm(t, amount, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/coins/request", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	wf.coins.Submit(w, withPrincipal(req, as(wf.alice)))
	return w
}

func submittedID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, w.Body.Bytes(), &resp)
	return strconv.FormatInt(resp.ID, 10)
}

func uploadedFiles(t *testing.T, wf *workflow) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(wf.files.Dir())
	require.NoError(t, err)
	return entries
}

func TestCoinHandlerSubmit(t *testing.T) {
	t.Run("stores the proof and creates a pending request", func(t *testing.T) {
		wf := newWorkflow(t)
		w := submitProof(wf, t, "50", "receipt.png", []byte("png-bytes"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			ID       int64  `json:"id"`
			Amount   int64  `json:"amount"`
			Reviewed bool   `json:"reviewed"`
			Approved *bool  `json:"approved"`
			ImageURL string `json:"image_url"`
		}
		decodeBody(t, w.Body.Bytes(), &resp)
		assert.Equal(t, int64(50), resp.Amount)
		assert.False(t, resp.Reviewed)
		assert.Nil(t, resp.Approved)
		assert.True(t, strings.HasPrefix(resp.ImageURL, "/uploads/proof_"))
		assert.True(t, strings.HasSuffix(resp.ImageURL, ".png"))

		entries := uploadedFiles(t, wf)
		require.Len(t, entries, 1)
		assert.Equal(t, strings.TrimPrefix(resp.ImageURL, "/uploads/"), entries[0].Name())
	})

	tests := []struct {
		name     string
		amount   string
		filename string
		content  []byte
	}{
		{"zero amount", "0", "receipt.png", []byte("x")},
		{"negative amount", "-5", "receipt.png", []byte("x")},
		{"amount is not a number", "lots", "receipt.png", []byte("x")},
		{"missing file", "10", "", nil},
		{"disallowed extension", "10", "script.sh", []byte("x")},
		{"file too large", "10", "big.png", bytes.Repeat([]byte("a"), maxUpload+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := newWorkflow(t)
			w := submitProof(wf, t, tt.amount, tt.filename, tt.content)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Empty(t, uploadedFiles(t, wf), "rejected submissions leave no file behind")
		})
	}
}

func TestCoinHandlerReview(t *testing.T) {
	wf := newWorkflow(t)
	id := submittedID(t, submitProof(wf, t, "70", "receipt.jpg", []byte("jpg")))

	review := func(approve bool, who string) *httptest.ResponseRecorder {
		p := as(wf.alice)
		if who == "admin" {
			p = as(wf.admin)
		}
		req := withParam(withPrincipal(httptest.NewRequest(http.MethodPost, "/coins/requests/"+id+"/approve", nil), p), "id", id)
		w := httptest.NewRecorder()
		if approve {
			wf.coins.Approve(w, req)
		} else {
			wf.coins.Reject(w, req)
		}
		return w
	}

	assert.Equal(t, http.StatusForbidden, review(true, "alice").Code)
	assert.Equal(t, int64(0), wf.store.Balance(wf.alice.ID))

	w := review(true, "admin")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"approved":true`)
	assert.Equal(t, int64(70), wf.store.Balance(wf.alice.ID))

	assert.Equal(t, http.StatusConflict, review(true, "admin").Code)
	assert.Equal(t, http.StatusConflict, review(false, "admin").Code)
	assert.Equal(t, int64(70), wf.store.Balance(wf.alice.ID))
}

func TestCoinHandlerVisibility(t *testing.T) {
	wf := newWorkflow(t)
	id := submittedID(t, submitProof(wf, t, "5", "r.pdf", []byte("pdf")))
	bob := wf.store.SeedUser(models.User{Username: "bob"})

	req := withParam(withPrincipal(httptest.NewRequest(http.MethodGet, "/coins/requests/"+id, nil), as(bob)), "id", id)
	w := httptest.NewRecorder()
	wf.coins.Get(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = withParam(withPrincipal(httptest.NewRequest(http.MethodGet, "/coins/requests/"+id+"/proof", nil), as(wf.alice)), "id", id)
	w = httptest.NewRecorder()
	wf.coins.Proof(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/uploads/proof_"))

	req = withParam(withPrincipal(httptest.NewRequest(http.MethodGet, "/coins/requests/abc", nil), as(wf.alice)), "id", "abc")
	w = httptest.NewRecorder()
	wf.coins.Get(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	wf.coins.List(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/coins/requests", nil), as(bob)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	wf.coins.List(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/coins/requests", nil), as(wf.alice)))
	require.Equal(t, http.StatusOK, w.Code)
	var listed []struct {
		ImageURL string `json:"image_url"`
	}
	decodeBody(t, w.Body.Bytes(), &listed)
	require.Len(t, listed, 1)
	assert.True(t, strings.HasPrefix(listed[0].ImageURL, "/uploads/proof_"))
	assert.NotContains(t, w.Body.String(), "proof_url")
}
