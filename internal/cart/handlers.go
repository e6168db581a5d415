package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"clam-storefront/internal/auth"
	"clam-storefront/internal/catalog"
	"clam-storefront/internal/logger"
	"clam-storefront/internal/metrics"
	"clam-storefront/internal/money"
)

// SessionHeader carries the anonymous session id.
const SessionHeader = "X-Session-ID"

// ErrLineNotFound is returned when updating a line the cart does not hold.
var ErrLineNotFound = errors.New("item not in cart")

var tracer = otel.Tracer("clam-storefront/cart")

// ProductLookup resolves product ids for add-to-cart and the wishlist.
type ProductLookup interface {
	Product(id string) (catalog.Product, error)
}

// Handler handles HTTP requests for cart and wishlist operations
type Handler struct {
	sessions *Sessions
	products ProductLookup
	verifier *auth.Verifier
	currency string

	// PromosEnabled gates promo application; nil means always enabled.
	PromosEnabled func() bool
}

// NewHandler creates a new cart handler. verifier may be nil, in which case
// carts are keyed by session header only.
func NewHandler(sessions *Sessions, products ProductLookup, verifier *auth.Verifier, currency string) *Handler {
	return &Handler{
		sessions: sessions,
		products: products,
		verifier: verifier,
		currency: currency,
	}
}

// ownerID identifies the cart owner: the token subject when a valid bearer
// token is sent, else the session header, else a freshly issued session id
// that is echoed back in SessionHeader.
func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) string {
	if h.verifier != nil && auth.BearerToken(r) != "" {
		if claims, err := h.verifier.FromRequest(r); err == nil && claims.Subject != "" {
			return "user:" + claims.Subject
		}
	}
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			w.Header().Set(SessionHeader, id)
			return "anon:" + id
		}
	}
	id := uuid.NewString()
	w.Header().Set(SessionHeader, id)
	return "anon:" + id
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	metrics.CartOperations.WithLabelValues(op, "error").Inc()

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, ErrLineNotFound):
		http.Error(w, "item not in cart", http.StatusNotFound)
	case errors.Is(err, ErrVariantRequired),
		errors.Is(err, ErrUnknownVariant),
		errors.Is(err, ErrInvalidPromoCode):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.Errorf("%s: %v", op, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("encode response: %v", err)
	}
}

// LineView is a cart line as rendered to clients.
type LineView struct {
	Line
	LineTotal        decimal.Decimal `json:"line_total"`
	DisplayLineTotal string          `json:"display_line_total"`
}

// View is the cart payload returned by every cart endpoint.
type View struct {
	Lines   []LineView        `json:"lines"`
	Totals  Totals            `json:"totals"`
	Display map[string]string `json:"display"`
}

func (h *Handler) view(c *Cart) View {
	lines, totals := c.Contents()
	out := View{Lines: make([]LineView, len(lines)), Totals: totals}
	for i, l := range lines {
		out.Lines[i] = LineView{
			Line:             l,
			LineTotal:        l.Amount(),
			DisplayLineTotal: money.Format(l.Amount(), h.currency),
		}
	}
	out.Display = map[string]string{
		"subtotal": money.Format(totals.Subtotal, h.currency),
		"discount": money.Format(totals.Discount, h.currency),
		"tax":      money.Format(totals.Tax, h.currency),
		"total":    money.Format(totals.Total, h.currency),
	}
	return out
}

// update runs fn on the owner's session, saves it and answers with the
// cart view taken under the same owner lock.
func (h *Handler) update(ctx context.Context, w http.ResponseWriter, r *http.Request, op string, fn func(*Session) error) {
	var v View
	err := h.sessions.Do(ctx, h.ownerID(w, r), func(sess *Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		v = h.view(sess.Cart)
		return nil
	})
	if err != nil {
		h.fail(w, op, err)
		return
	}
	metrics.CartOperations.WithLabelValues(op, "ok").Inc()
	writeJSON(w, http.StatusOK, v)
}

// GetCart handles GET /api/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	var v View
	err := h.sessions.View(r.Context(), h.ownerID(w, r), func(sess *Session) error {
		v = h.view(sess.Cart)
		return nil
	})
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	metrics.CartOperations.WithLabelValues("get", "ok").Inc()
	writeJSON(w, http.StatusOK, v)
}

// ClearCart handles DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.update(r.Context(), w, r, "clear", func(sess *Session) error {
		sess.Cart.Clear()
		return nil
	})
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity"`
}

// AddItem handles POST /api/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "cart.AddItem")
	defer span.End()

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	span.SetAttributes(
		attribute.String("cart.product_id", req.ProductID),
		attribute.Int("cart.quantity", qty),
	)

	product, err := h.products.Product(req.ProductID)
	if err != nil {
		h.fail(w, "add", err)
		return
	}

	h.update(ctx, w, r, "add", func(sess *Session) error {
		_, err := sess.Cart.AddItem(product, catalog.Size(req.Size), qty)
		return err
	})
}

type updateItemRequest struct {
	Size     string `json:"size"`
	Quantity *int   `json:"quantity"`
}

// UpdateItem handles PUT /api/cart/items/{productId}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		http.Error(w, "invalid request body: quantity is required", http.StatusBadRequest)
		return
	}

	key := LineKey{ProductID: mux.Vars(r)["productId"], Size: catalog.Size(req.Size)}
	h.update(r.Context(), w, r, "update", func(sess *Session) error {
		if !sess.Cart.SetQuantity(key, *req.Quantity) {
			return errors.Wrapf(ErrLineNotFound, "%s size %q", key.ProductID, key.Size)
		}
		return nil
	})
}

// RemoveItem handles DELETE /api/cart/items/{productId}?size=
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key := LineKey{
		ProductID: mux.Vars(r)["productId"],
		Size:      catalog.Size(r.URL.Query().Get("size")),
	}
	h.update(r.Context(), w, r, "remove", func(sess *Session) error {
		sess.Cart.RemoveItem(key)
		return nil
	})
}

type promoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo handles POST /api/cart/promo
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "cart.ApplyPromo")
	defer span.End()

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if h.PromosEnabled != nil && !h.PromosEnabled() {
		metrics.PromoRejections.Inc()
		h.fail(w, "promo", errors.Wrap(ErrInvalidPromoCode, "promo codes are disabled"))
		return
	}

	h.update(ctx, w, r, "promo", func(sess *Session) error {
		if _, err := sess.Cart.ApplyPromoCode(strings.TrimSpace(req.Code)); err != nil {
			span.RecordError(err)
			metrics.PromoRejections.Inc()
			return err
		}
		return nil
	})
}

// RemovePromo handles DELETE /api/cart/promo
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	h.update(r.Context(), w, r, "unpromo", func(sess *Session) error {
		sess.Cart.RemovePromoCode()
		return nil
	})
}

// GetWishlist handles GET /api/wishlist
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	var items []string
	err := h.sessions.View(r.Context(), h.ownerID(w, r), func(sess *Session) error {
		items = sess.Wishlist.Items()
		return nil
	})
	if err != nil {
		h.fail(w, "wishlist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"items": items})
}

// ToggleWishlist handles POST /api/wishlist/{productId}
func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["productId"]
	if _, err := h.products.Product(id); err != nil {
		h.fail(w, "wishlist", err)
		return
	}

	var (
		saved bool
		items []string
	)
	err := h.sessions.Do(r.Context(), h.ownerID(w, r), func(sess *Session) error {
		saved = sess.Wishlist.Toggle(id)
		items = sess.Wishlist.Items()
		return nil
	})
	if err != nil {
		h.fail(w, "wishlist", err)
		return
	}

	metrics.CartOperations.WithLabelValues("wishlist", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product_id": id,
		"saved":      saved,
		"items":      items,
	})
}
