package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront's HTTP surface. Auth applies to everything
// under /api/v1; health stays open for probes.
func NewRouter(
	cart *CartHandler,
	co *CheckoutHandler,
	orders *OrdersHandler,
	products *ProductHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Delete("/", cart.ClearCart)
			r.Post("/items", cart.AddItem)
			r.Put("/items/{product_id}", cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", co.PlaceOrder)
			r.Post("/validate", co.ValidateStock)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListOrders)
			r.Get("/{order_id}", orders.GetOrder)
			r.Post("/{order_id}/cancel", orders.CancelOrder)
			r.Put("/{order_id}/status", orders.SetStatus)
		})

		r.Get("/products/{product_id}", products.GetProduct)
	})

	return r
}
