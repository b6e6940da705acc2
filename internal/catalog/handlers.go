package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"marine-catalog/internal/auth"
	"marine-catalog/internal/logger"
	"marine-catalog/internal/metrics"
)

const maxUploadMemory = 32 << 20 // 32MB

// Handler handles HTTP requests for catalog operations. All mutations run
// load -> modify -> save under one mutex, so writers within this process
// cannot lose each other's updates; writers in other processes still race
// last-writer-wins at the storage layer.
type Handler struct {
	docs   DocumentStore
	images ImageStore
	reg    *metrics.Registry

	mu sync.Mutex
}

// NewHandler creates a new catalog handler. reg may be nil.
func NewHandler(docs DocumentStore, images ImageStore, reg *metrics.Registry) *Handler {
	return &Handler{docs: docs, images: images, reg: reg}
}

// ListProducts handles GET /products. The full document is returned
// verbatim; filtering and ordering are the caller's business.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Load(r.Context())
	if err != nil {
		logger.Errorf("ListProducts: %v", err)
		writeJSON(w, http.StatusOK, &Document{Products: []Product{}})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateProduct handles POST /products (admin only, multipart).
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	category := r.FormValue("category")
	name := r.FormValue("name")
	description := r.FormValue("description")
	link := r.FormValue("link")
	if category == "" || name == "" || description == "" || link == "" {
		writeError(w, http.StatusBadRequest, "Required fields: category, name, description, link")
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}

	timestamp := time.Now().UnixMilli()

	h.mu.Lock()
	defer h.mu.Unlock()

	urls := make([]string, 0, len(files))
	for i, fh := range files {
		data, contentType, err := readUpload(fh)
		if err != nil {
			logger.Errorf("CreateProduct: read upload %q: %v", fh.Filename, err)
			writeError(w, http.StatusInternalServerError, "Failed to add product")
			return
		}
		urls = append(urls, h.storeImage(r, imageObjectName(timestamp, strconv.Itoa(i), fh.Filename), contentType, data))
	}

	doc, err := h.docs.Load(r.Context())
	if err != nil {
		logger.Errorf("CreateProduct: load: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add product")
		return
	}

	product := Product{
		ID:          fmt.Sprintf("%s-%d", category, timestamp),
		Category:    category,
		Name:        name,
		Description: description,
		Link:        link,
		PartNumber:  r.FormValue("partNumber"),
		Condition:   r.FormValue("condition"),
		Images:      urls,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	doc.Products = append(doc.Products, product)
	if err := h.save(r, doc); err != nil {
		logger.Errorf("CreateProduct: save: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add product")
		return
	}

	writeJSON(w, http.StatusOK, ProductResponse{
		Success: true,
		Product: &product,
		Message: "Product added successfully",
	})
}

// UpdateProduct handles PUT /products (admin only). Two request shapes are
// accepted: multipart (scalar patch plus keepImages reconciliation and new
// uploads) and JSON (scalar patch; images array replaces wholesale without
// deleting dropped blob objects — the two shapes are deliberately not
// symmetric about cleanup).
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.updateMultipart(w, r)
		return
	}
	h.updateJSON(w, r)
}

func (h *Handler) updateMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	id := r.FormValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.docs.Load(r.Context())
	if err != nil {
		logger.Errorf("UpdateProduct: load: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	idx := doc.FindIndex(id)
	if idx == -1 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	prod := &doc.Products[idx]

	fields := r.MultipartForm.Value
	patchField(fields, "name", &prod.Name)
	patchField(fields, "description", &prod.Description)
	patchField(fields, "partNumber", &prod.PartNumber)
	patchField(fields, "condition", &prod.Condition)
	patchField(fields, "category", &prod.Category)
	patchField(fields, "link", &prod.Link)

	// Images kept by the caller, in the caller's order. Unparseable or
	// absent keepImages means keep nothing.
	var keep []string
	if raw := r.FormValue("keepImages"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &keep)
	}

	timestamp := time.Now().UnixMilli()
	uploaded := make([]string, 0, len(r.MultipartForm.File["newImages"]))
	for i, fh := range r.MultipartForm.File["newImages"] {
		data, contentType, err := readUpload(fh)
		if err != nil {
			logger.Errorf("UpdateProduct: read upload %q: %v", fh.Filename, err)
			writeError(w, http.StatusInternalServerError, "Failed to update product")
			return
		}
		uploaded = append(uploaded, h.storeImage(r, imageObjectName(timestamp, fmt.Sprintf("edit-%d", i), fh.Filename), contentType, data))
	}

	kept := make(map[string]bool, len(keep))
	for _, u := range keep {
		kept[u] = true
	}
	var dropped []string
	for _, u := range prod.Images {
		if !kept[u] {
			dropped = append(dropped, u)
		}
	}
	deleteOwned(r.Context(), h.images, dropped)

	prod.Images = append(append([]string{}, keep...), uploaded...)

	if err := h.save(r, doc); err != nil {
		logger.Errorf("UpdateProduct: save: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, ProductResponse{Success: true, Product: prod})
}

func (h *Handler) updateJSON(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.docs.Load(r.Context())
	if err != nil {
		logger.Errorf("UpdateProduct: load: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	idx := doc.FindIndex(req.ID)
	if idx == -1 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	prod := &doc.Products[idx]

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.PartNumber != nil {
		prod.PartNumber = *req.PartNumber
	}
	if req.Condition != nil {
		prod.Condition = *req.Condition
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}
	if req.Link != nil {
		prod.Link = *req.Link
	}
	if req.Images != nil {
		prod.Images = append([]string(nil), (*req.Images)...)
	}

	if err := h.save(r, doc); err != nil {
		logger.Errorf("UpdateProduct: save: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, ProductResponse{Success: true, Product: prod})
}

// DeleteProduct handles DELETE /products?id=<id> (admin only). Blob-hosted
// images of the removed product are garbage-collected best-effort.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.docs.Load(r.Context())
	if err != nil {
		logger.Errorf("DeleteProduct: load: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	idx := doc.FindIndex(id)
	if idx == -1 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	deleteOwned(r.Context(), h.images, doc.Products[idx].Images)
	doc.Products = append(doc.Products[:idx], doc.Products[idx+1:]...)

	if err := h.save(r, doc); err != nil {
		logger.Errorf("DeleteProduct: save: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Product deleted successfully"})
}

// storeImage uploads bytes and falls back to a data URI, counting fallbacks.
func (h *Handler) storeImage(r *http.Request, objectName, contentType string, data []byte) string {
	url := uploadOrInline(r.Context(), h.images, objectName, contentType, data)
	if h.reg != nil && strings.HasPrefix(url, "data:") {
		h.reg.UploadFallbacks.Inc()
	}
	return url
}

func (h *Handler) save(r *http.Request, doc *Document) error {
	if err := h.docs.Save(r.Context(), doc); err != nil {
		return err
	}
	if h.reg != nil {
		h.reg.DocumentSaves.Inc()
		h.reg.CatalogSize.Set(float64(len(doc.Products)))
	}
	return nil
}

// RequireAdmin is middleware that requires a valid JWT token with admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.GetBearerToken(r)
		if tokenStr == "" {
			logger.Debugf("RequireAdmin: no bearer token provided")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			logger.Debugf("RequireAdmin: JWT parse error: %v", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !auth.HasRole(claims.Roles, auth.RoleAdmin) {
			logger.Debugf("RequireAdmin: user lacks admin role")
			writeError(w, http.StatusForbidden, "forbidden - admin role required")
			return
		}

		next(w, r)
	}
}

// MethodNotAllowed replies with the JSON 405 body every endpoint shares.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func patchField(values map[string][]string, key string, dst *string) {
	if vals, ok := values[key]; ok && len(vals) > 0 {
		*dst = vals[0]
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
