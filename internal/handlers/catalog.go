package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	catalog   CatalogService
	files     FileStore
	maxUpload int64
}

func NewCatalogHandler(catalog CatalogService, files FileStore, maxUpload int64) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, files: files, maxUpload: maxUpload}
}

type productResponse struct {
	models.Product
	ImageURL string `json:"image_url,omitempty"`
}

func newProductResponse(p models.Product) productResponse {
	resp := productResponse{Product: p}
	if p.ImagePath != "" {
		resp.ImageURL = constants.UploadsURLPrefix + p.ImagePath
	}
	return resp
}

func (h *CatalogHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.catalog.ListStores(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stores)
}

func (h *CatalogHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Name      string   `json:"name"`
		Address   string   `json:"address"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	store, err := h.catalog.CreateStore(r.Context(), p, models.Store{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, store)
}

func (h *CatalogHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteStore(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var storeID *int64
	if raw := r.URL.Query().Get("store_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, apperrors.Validation("invalid store_id %q", raw))
			return
		}
		storeID = &id
	}

	products, err := h.catalog.ListProducts(r.Context(), storeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newProductResponse(product))
}

// CreateProduct takes either JSON or a multipart form with an optional
// image file.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var product models.Product
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var err error
		if product, err = h.productFromForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		var req struct {
			StoreID     int64  `json:"store_id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Price       int64  `json:"price"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		product = models.Product{StoreID: req.StoreID, Title: req.Title, Description: req.Description, Price: req.Price}
	}

	created, err := h.catalog.CreateProduct(r.Context(), p, product)
	if err != nil {
		if product.ImagePath != "" {
			if delErr := h.files.Delete(product.ImagePath); delErr != nil {
				logrus.WithError(delErr).WithField("ref", product.ImagePath).Warn("Failed to remove orphaned image")
			}
		}
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, newProductResponse(created))
}

func (h *CatalogHandler) productFromForm(w http.ResponseWriter, r *http.Request) (models.Product, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Product{}, apperrors.Validation("upload exceeds %d bytes", h.maxUpload)
		}
		return models.Product{}, apperrors.Validation("invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	storeID, err := strconv.ParseInt(r.FormValue("store_id"), 10, 64)
	if err != nil {
		return models.Product{}, apperrors.Validation("store_id must be an integer")
	}
	price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
	if err != nil {
		return models.Product{}, apperrors.Validation("price must be an integer")
	}
	product := models.Product{
		StoreID:     storeID,
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Price:       price,
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return product, nil
	case err != nil:
		return models.Product{}, apperrors.Validation("invalid image upload")
	}
	defer file.Close()

	if product.ImagePath, err = h.files.Save(constants.ProductFilePrefix, header.Filename, file); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
