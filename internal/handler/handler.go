// Package handler implements the storefront JSON API on net/http.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
	"github.com/xenking/storefront/internal/session"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// HeaderSessionToken carries the session token. "Authorization: Bearer" is
// accepted as well.
const HeaderSessionToken = "X-Session-Token"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative product image paths. When empty,
	// images are returned as stored.
	ImageBaseURL string
}

// Sessions resolves a session id to its state.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Handler serves the storefront API.
type Handler struct {
	products product.Repository
	sessions Sessions
	signer   *session.Signer
	checkout *order.Checkout

	imageBaseURL string
}

// New creates a Handler.
func New(
	cfg Config,
	products product.Repository,
	sessions Sessions,
	signer *session.Signer,
	checkout *order.Checkout,
) *Handler {
	return &Handler{
		products:     products,
		sessions:     sessions,
		signer:       signer,
		checkout:     checkout,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
	}
}

// sessionHandler is a handler bound to the caller's session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

// Register adds the API routes to mux under prefix.
func (h *Handler) Register(mux *http.ServeMux, prefix string) {
	route := func(pattern string, fn http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+prefix+path, fn)
	}

	route("POST /sessions", h.createSession)

	route("GET /products", h.listProducts)
	route("GET /products/{id}", h.getProduct)
	route("GET /categories", h.listCategories)

	route("GET /session/cart", h.withSession(h.getCart))
	route("DELETE /session/cart", h.withSession(h.clearCart))
	route("POST /session/cart/items", h.withSession(h.addCartItem))
	route("POST /session/cart/items/{id}/decrement", h.withSession(h.decrementCartItem))
	route("DELETE /session/cart/items/{id}", h.withSession(h.removeCartItem))
	route("PUT /session/cart/items/{id}/size", h.withSession(h.updateCartItemSize))

	route("GET /session/favorites", h.withSession(h.getFavorites))
	route("DELETE /session/favorites", h.withSession(h.clearFavorites))
	route("PUT /session/favorites/{id}", h.withSession(h.addFavorite))
	route("DELETE /session/favorites/{id}", h.withSession(h.removeFavorite))
	route("POST /session/favorites/{id}/toggle", h.withSession(h.toggleFavorite))

	route("GET /session/viewed", h.withSession(h.getViewed))
	route("DELETE /session/viewed", h.withSession(h.clearViewed))
	route("POST /session/viewed/{id}", h.withSession(h.addViewed))

	route("GET /session/checkout/draft", h.withSession(h.getDraft))
	route("PATCH /session/checkout/draft", h.withSession(h.patchDraft))
	route("POST /session/checkout", h.withSession(h.placeOrder))

	route("GET /session/orders", h.withSession(h.listOrders))
	route("DELETE /session/orders", h.withSession(h.clearOrders))
	route("GET /session/orders/{id}", h.withSession(h.getOrder))
}

func (h *Handler) withSession(fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.signer.Verify(sessionToken(r))
		if err != nil {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s, err := h.sessions.Get(r.Context(), id)
		if err != nil {
			h.fail(w, r, errors.Wrap(err, "load session"))
			return
		}
		fn(w, r, s)
	}
}

func sessionToken(r *http.Request) string {
	if t := r.Header.Get(HeaderSessionToken); t != "" {
		return t
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// pathID parses the {id} path value as a product id.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &badRequestError{msg: "invalid id " + strconv.Quote(r.PathValue("id"))}
	}
	return id, nil
}

// badRequestError marks malformed input.
type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *badRequestError) Unwrap() error { return e.err }

// errorStatus maps err to an HTTP status code.
func errorStatus(err error) int {
	var (
		badReq  *badRequestError
		missing *order.MissingFieldError
	)
	switch {
	case errors.Is(err, product.ErrNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &missing),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidDelivery),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, promo.ErrInvalidPromo),
		errors.Is(err, promo.ErrPromoExpired),
		errors.Is(err, promo.ErrUsageLimitReached):
		return http.StatusUnprocessableEntity
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response for err. Unexpected errors are logged and
// reported without details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, status, "internal error")
		return
	}

	var (
		badReq  *badRequestError
		missing *order.MissingFieldError
	)
	msg := rootMessage(err)
	switch {
	case errors.As(err, &missing):
		msg = missing.Error()
	case status == http.StatusBadRequest && errors.As(err, &badReq):
		msg = badReq.Error()
	}
	httpmiddleware.WriteError(w, status, msg)
}

// rootMessage returns the message of the innermost wrapped error.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
