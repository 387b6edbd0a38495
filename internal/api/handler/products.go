package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/albapepper/pricewatch/internal/api/respond"
	"github.com/albapepper/pricewatch/internal/cache"
	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/tracker"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
)

// AddProductRequest is the body of POST /users/{userID}/products.
type AddProductRequest struct {
	URL         string   `json:"url" validate:"required,http_url,max=2048"`
	TargetPrice *float64 `json:"target_price,omitempty" validate:"omitempty,gt=0"`
}

// CheckProduct checks one product immediately.
// @Summary Check a product now
// @Description Fetches the product's current price regardless of its schedule, records it, and sends an alert if the drop qualifies.
// @Tags products
// @Produce json
// @Param productID path int true "Product ID"
// @Success 200 {object} tracker.CheckResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /products/{productID}/check [post]
func (h *Handler) CheckProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	res, err := h.tracker.CheckSingle(r.Context(), productID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Product %d not found", productID))
		return
	case errors.Is(err, tracker.ErrInactive):
		respond.WriteError(w, http.StatusConflict, "INACTIVE", "Product or owner is inactive")
		return
	case err != nil:
		// Fetch failures are shown to the user as-is.
		h.logger.Warn("Manual check failed", "product_id", productID, "error", err)
		respond.WriteErrorDetail(w, http.StatusBadGateway, "CHECK_FAILED", "Could not check the product", err.Error())
		return
	}

	h.cache.InvalidatePrefix(productKey(productID))
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// GetHistory returns a product's newest price history entries.
// @Summary Price history
// @Description Returns up to limit history entries, newest first.
// @Tags products
// @Produce json
// @Param productID path int true "Product ID"
// @Param limit query int false "Number of entries (default 30, max 500)"
// @Success 200 {array} models.HistoryEntry
// @Success 304 "Not Modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /products/{productID}/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_LIMIT",
				"Invalid limit", fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	key := fmt.Sprintf("%shistory:%d", productKey(productID), limit)
	h.serveCached(w, r, key, cache.TTLHistory, func() (any, error) {
		entries, err := h.tracker.History(r.Context(), productID, limit)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []models.HistoryEntry{}
		}
		return entries, nil
	})
}

// GetTrend classifies a product's recent price movement.
// @Summary Price trend
// @Description Classifies the newest history entries as UP, DOWN or STABLE.
// @Tags products
// @Produce json
// @Param productID path int true "Product ID"
// @Success 200 {object} analysis.TrendResult
// @Success 304 "Not Modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /products/{productID}/trend [get]
func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	h.serveCached(w, r, productKey(productID)+"trend", cache.TTLTrend, func() (any, error) {
		return h.tracker.Trend(r.Context(), productID)
	})
}

// AddProduct starts tracking a product for a user.
// @Summary Track a product
// @Description Adds a product page to the user's tracked list, subject to the plan's product limit. The first price arrives with the first check.
// @Tags products
// @Accept json
// @Produce json
// @Param userID path int true "User (chat) ID"
// @Param body body AddProductRequest true "Product"
// @Success 201 {object} models.TrackedProduct
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /users/{userID}/products [post]
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req AddProductRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Malformed JSON body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid request", validationDetail(err))
		return
	}

	p, err := h.tracker.AddProduct(r.Context(), userID, req.URL, req.TargetPrice)
	switch {
	case errors.Is(err, tracker.ErrQuotaExceeded):
		respond.WriteErrorDetail(w, http.StatusForbidden, "QUOTA_EXCEEDED", "Product limit reached", err.Error())
	case errors.Is(err, models.ErrAlreadyTracked):
		respond.WriteError(w, http.StatusConflict, "ALREADY_TRACKED", "This product is already tracked")
	case errors.Is(err, models.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("User %d not found", userID))
	case errors.Is(err, tracker.ErrInactive):
		respond.WriteError(w, http.StatusForbidden, "INACTIVE", "User is inactive")
	case err != nil:
		h.logger.Error("Failed to add product", "user_id", userID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add product")
	default:
		respond.WriteJSONObject(w, http.StatusCreated, p)
	}
}

// RemoveProduct stops tracking a product. History is kept.
// @Summary Stop tracking a product
// @Tags products
// @Produce json
// @Param userID path int true "User (chat) ID"
// @Param productID path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID}/products/{productID} [delete]
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	err := h.tracker.RemoveProduct(r.Context(), userID, productID)
	if errors.Is(err, models.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Product %d not tracked by user %d", productID, userID))
		return
	}
	if err != nil {
		h.logger.Error("Failed to remove product", "product_id", productID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove product")
		return
	}

	h.cache.InvalidatePrefix(productKey(productID))
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"removed":    true,
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d:", productID)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_ID",
			fmt.Sprintf("Invalid %s", name), fmt.Sprintf("%q is not a positive integer", raw))
		return 0, false
	}
	return id, true
}

// serveCached serves key from the response cache, honouring If-None-Match,
// and fills it from load on a miss.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, load func() (any, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := load()
	if err != nil {
		h.logger.Error("Failed to load response", "key", key, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load data")
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode response")
		return
	}

	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "http_url":
		return fmt.Sprintf("%s must be an http(s) URL", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
