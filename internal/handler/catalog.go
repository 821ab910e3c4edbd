package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) createSession(w http.ResponseWriter, _ *http.Request) {
	token, id := h.signer.Issue()
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("token")
		e.Str(token)
		e.FieldStart("session_id")
		e.Str(id)
		e.ObjEnd()
	})
}

// listProducts serves GET /products?q=&category=&sort=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order := product.SortOrder(q.Get("sort"))
	if order == "" {
		order = product.SortDefault
	}
	if !order.Valid() {
		h.fail(w, r, &badRequestError{msg: "unknown sort order " + string(order)})
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"))
		return
	}
	products = product.FilterCategory(products, q.Get("category"))
	products = product.Filter(products, q.Get("q"))
	products = product.Sort(products, order)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProducts(e, products)
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookupProduct(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.product(*p).Encode)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list categories"))
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range categories {
			e.Str(c)
		}
		e.ArrEnd()
	})
}

// lookupProduct resolves the {id} path value against the catalog.
func (h *Handler) lookupProduct(r *http.Request) (*product.Product, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return p, nil
}
