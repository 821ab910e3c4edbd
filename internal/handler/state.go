package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/session"
)

func (h *Handler) writeCart(w http.ResponseWriter, s *session.Session) {
	lines := s.Cart.Lines()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCart(e, lines)
	})
}

func (h *Handler) getCart(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	h.writeCart(w, s)
}

func (h *Handler) clearCart(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	s.Cart.Clear()
	h.writeCart(w, s)
}

// addCartItem serves POST /session/cart/items with the body
// {"product_id":1,"quantity":2,"size":"M"}. The product snapshot is taken
// from the catalog.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var (
		id       int64
		quantity int64 = 1
		size     string
	)
	if err := readBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			id = persist.Int64(d)
		case "quantity":
			quantity = persist.Int64(d)
		case "size":
			size = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	if id <= 0 {
		h.fail(w, r, &badRequestError{msg: "product_id is required"})
		return
	}
	if quantity > cart.MaxQuantity {
		h.fail(w, r, &badRequestError{msg: "quantity must not exceed " + strconv.Itoa(cart.MaxQuantity)})
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, errors.Wrapf(err, "get product %d", id))
		return
	}
	s.Cart.Add(*p, int(quantity), size)
	h.writeCart(w, s)
}

func (h *Handler) decrementCartItem(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Cart.Remove(id, r.URL.Query().Get("size"))
	h.writeCart(w, s)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Cart.RemoveLine(id, r.URL.Query().Get("size"))
	h.writeCart(w, s)
}

// updateCartItemSize serves PUT /session/cart/items/{id}/size with the body
// {"from":"M","to":"L"}.
func (h *Handler) updateCartItemSize(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var from, to string
	if err := readBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "from":
			from = persist.Str(d)
		case "to":
			to = persist.Str(d)
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	s.Cart.UpdateSize(id, from, to)
	h.writeCart(w, s)
}

func writeFavorites(w http.ResponseWriter, s *session.Session) {
	ids := s.Favorites.IDs()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeIDs(e, ids)
	})
}

func (h *Handler) getFavorites(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	writeFavorites(w, s)
}

func (h *Handler) clearFavorites(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	s.Favorites.Clear()
	writeFavorites(w, s)
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Favorites.Add(id)
	writeFavorites(w, s)
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Favorites.Remove(id)
	writeFavorites(w, s)
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	on := s.Favorites.Toggle(id)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(id)
		e.FieldStart("favorite")
		e.Bool(on)
		e.ObjEnd()
	})
}

func (h *Handler) writeViewed(w http.ResponseWriter, s *session.Session) {
	entries := s.Viewed.List()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeViewed(e, entries)
	})
}

func (h *Handler) getViewed(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	h.writeViewed(w, s)
}

func (h *Handler) clearViewed(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	s.Viewed.Clear()
	h.writeViewed(w, s)
}

func (h *Handler) addViewed(w http.ResponseWriter, r *http.Request, s *session.Session) {
	p, err := h.lookupProduct(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s.Viewed.Add(*p)
	h.writeViewed(w, s)
}
