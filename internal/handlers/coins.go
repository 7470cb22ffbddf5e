package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

// multipartOverhead leaves room for form fields next to the file part.
const multipartOverhead = 1 << 20

type CoinHandler struct {
	coins     CoinRequestService
	files     FileStore
	maxUpload int64
}

func NewCoinHandler(coins CoinRequestService, files FileStore, maxUpload int64) *CoinHandler {
	return &CoinHandler{coins: coins, files: files, maxUpload: maxUpload}
}

type coinRequestResponse struct {
	models.CoinRequest
	ImageURL string `json:"image_url"`
}

func newCoinRequestResponse(req models.CoinRequest) coinRequestResponse {
	return coinRequestResponse{CoinRequest: req, ImageURL: constants.UploadsURLPrefix + req.ProofReference}
}

// Submit accepts a multipart form with an amount field and a
// transaction_image file.
func (h *CoinHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperrors.Validation("upload exceeds %d bytes", h.maxUpload))
			return
		}
		writeError(w, r, apperrors.Validation("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	amount, err := strconv.ParseInt(r.FormValue("amount"), 10, 64)
	if err != nil {
		writeError(w, r, apperrors.Validation("amount must be an integer"))
		return
	}

	file, header, err := r.FormFile("transaction_image")
	if err != nil {
		writeError(w, r, apperrors.Validation("transaction_image is required"))
		return
	}
	defer file.Close()

	ref, err := h.files.Save(constants.ProofFilePrefix, header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req, err := h.coins.Submit(r.Context(), p, amount, ref)
	if err != nil {
		if delErr := h.files.Delete(ref); delErr != nil {
			logrus.WithError(delErr).WithField("ref", ref).Warn("Failed to remove orphaned proof")
		}
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, newCoinRequestResponse(req))
	logrus.WithFields(logrus.Fields{"request_id": req.ID, "ref": ref}).Debug("Proof stored")
}

func (h *CoinHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	requests, err := h.coins.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]coinRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, newCoinRequestResponse(req))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *CoinHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.coins.Get(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newCoinRequestResponse(req))
}

// Proof redirects to the stored proof file of a visible request.
func (h *CoinHandler) Proof(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := h.coins.ProofReference(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, constants.UploadsURLPrefix+ref, http.StatusFound)
}

func (h *CoinHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

func (h *CoinHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *CoinHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.CoinRequest
	if approve {
		req, err = h.coins.Approve(r.Context(), p, id)
	} else {
		req, err = h.coins.Reject(r.Context(), p, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newCoinRequestResponse(req))
}
