package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"clam-storefront/internal/logger"
)

var tracer = otel.Tracer("clam-storefront/catalog")

// ProductGetter fetches a single product from the backing store. The
// handler uses it for ids that are newer than the loaded snapshot.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Handler handles HTTP requests for catalog operations
type Handler struct {
	catalog *Catalog
	source  Source
}

// NewHandler creates a new catalog handler. source is used by Reload and,
// when it implements ProductGetter, by GetProduct.
func NewHandler(catalog *Catalog, source Source) *Handler {
	return &Handler{catalog: catalog, source: source}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("encode response: %v", err)
	}
}

// ListProducts handles GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog.ListProducts")
	defer span.End()

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	results := h.catalog.Query(ctx, q)
	total := len(results)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	span.SetAttributes(
		attribute.String("catalog.query", q.Canonical()),
		attribute.Int("catalog.total", total),
	)

	writeJSON(w, http.StatusOK, ProductListResponse{
		Products: results[offset:end],
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		Sort:     ParseSortMode(string(q.Sort)),
	})
}

func (h *Handler) lookup(ctx context.Context, id string) (Product, error) {
	p, err := h.catalog.Product(id)
	if err == nil {
		return p, nil
	}
	getter, ok := h.source.(ProductGetter)
	if !ok {
		return Product{}, err
	}
	fresh, err := getter.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	return *fresh, nil
}

// GetProduct handles GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog.GetProduct")
	defer span.End()

	id := mux.Vars(r)["id"]
	product, err := h.lookup(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Errorf("GetProduct: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// RelatedProducts handles GET /api/products/{id}/related
func (h *Handler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	product, err := h.catalog.Product(id)
	if err != nil {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 20 {
		limit = 4
	}

	writeJSON(w, http.StatusOK, Related(h.catalog.Products(), product, limit))
}

// FacetsResponse is the sidebar payload: label counts over the whole
// catalog plus the selection seeded from the landing URL.
type FacetsResponse struct {
	Counts   FacetCounts `json:"counts"`
	Selected Selection   `json:"selected"`
	Scope    *Scope      `json:"scope,omitempty"`
}

// Facets handles GET /api/facets
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	sel, scope := SeedFromQuery(r.URL.Query())
	writeJSON(w, http.StatusOK, FacetsResponse{
		Counts:   Facets(h.catalog.Products()),
		Selected: sel,
		Scope:    scope,
	})
}

// Reload handles POST /api/catalog/reload (admin only)
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "catalog.Reload")
	defer span.End()

	if err := h.catalog.Load(ctx, h.source); err != nil {
		span.RecordError(err)
		logger.Errorf("Reload: %v", err)
		http.Error(w, "failed to reload catalog", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": len(h.catalog.Products()),
		"version":  h.catalog.Version(),
	})
}
