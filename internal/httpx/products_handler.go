package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-grocery-orders/internal/catalog"
	"github.com/go-chi/chi/v5"
)

func productList(w http.ResponseWriter, ps []catalog.Product) {
	respond(w, http.StatusOK, envelope{"products": ps, "count": len(ps)})
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.ListActive(r.Context())
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	productList(w, ps)
}

func (a *API) searchProductsByName(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.SearchByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	productList(w, ps)
}

func (a *API) searchProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.Search(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	productList(w, ps)
}

func (a *API) inStockProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.InStock(r.Context())
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	productList(w, ps)
}

func (a *API) categories(w http.ResponseWriter, r *http.Request) {
	cs, err := a.Catalog.Categories(r.Context())
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"categories": cs, "count": len(cs)})
}

func (a *API) productsByCategory(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	productList(w, ps)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	p, err := a.Catalog.GetByID(r.Context(), id)
	if err != nil {
		respondErr(w, r, a.Log, err)
		return
	}
	respond(w, http.StatusOK, envelope{"product": p})
}
