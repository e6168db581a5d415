package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, src *fakeSource) (*mux.Router, *Catalog) {
	t.Helper()
	c := newTestCatalog(t, fixtures)
	h := NewHandler(c, src)

	r := mux.NewRouter()
	r.HandleFunc("/api/products", h.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}", h.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}/related", h.RelatedProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/facets", h.Facets).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/reload", h.Reload).Methods(http.MethodPost)
	return r, c
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_ListProducts(t *testing.T) {
	r, _ := newTestRouter(t, &fakeSource{})

	rec := serve(r, http.MethodGet, "/api/products?q=cam&category=Cameras&sort=priceAsc")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, SortPriceAsc, resp.Sort)
	assert.Equal(t, []string{"p1", "p2"}, ids(resp.Products))
}

func TestHandler_ListProductsPaging(t *testing.T) {
	r, _ := newTestRouter(t, &fakeSource{})

	rec := serve(r, http.MethodGet, "/api/products?sort=priceAsc&limit=3&offset=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, len(fixtures), resp.Total)
	assert.Equal(t, []string{"p6", "p4", "p5"}, ids(resp.Products))

	rec = serve(r, http.MethodGet, "/api/products?offset=500")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Products)
}

func TestHandler_ListProductsInvalidLabel(t *testing.T) {
	r, _ := newTestRouter(t, &fakeSource{})
	rec := serve(r, http.MethodGet, "/api/products?category=Shoes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetProduct(t *testing.T) {
	fresh := product("p11", "Tripod", CategoryAccessories, "Manfrotto", "3499", 4.0, true)
	r, _ := newTestRouter(t, &fakeSource{products: []Product{fresh}})

	rec := serve(r, http.MethodGet, "/api/products/p3")
	require.Equal(t, http.StatusOK, rec.Code)
	var p Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Men's Cotton Tee", p.Name)

	rec = serve(r, http.MethodGet, "/api/products/p11")
	assert.Equal(t, http.StatusOK, rec.Code, "falls back to the store")

	rec = serve(r, http.MethodGet, "/api/products/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RelatedProducts(t *testing.T) {
	r, _ := newTestRouter(t, &fakeSource{})

	rec := serve(r, http.MethodGet, "/api/products/p1/related")
	require.Equal(t, http.StatusOK, rec.Code)
	var related []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &related))
	assert.Equal(t, []string{"p2"}, ids(related))

	rec = serve(r, http.MethodGet, "/api/products/missing/related")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Facets(t *testing.T) {
	r, _ := newTestRouter(t, &fakeSource{})

	rec := serve(r, http.MethodGet, "/api/facets?category=men&subcategory=tee")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Counts struct {
			Categories map[string]int `json:"categories"`
		} `json:"counts"`
		Selected struct {
			Categories []string `json:"categories"`
		} `json:"selected"`
		Scope *Scope `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Counts.Categories["Men"])
	assert.Equal(t, []string{"Men"}, resp.Selected.Categories)
	require.NotNil(t, resp.Scope)
	assert.Equal(t, "tee", resp.Scope.Term)
}

func TestHandler_Reload(t *testing.T) {
	src := &fakeSource{products: fixtures[:2]}
	r, c := newTestRouter(t, src)
	before := c.Version()

	rec := serve(r, http.MethodPost, "/api/catalog/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, c.Version())
	assert.Len(t, c.Products(), 2)
	assert.Equal(t, 1, src.calls)
}
