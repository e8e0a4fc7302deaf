package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/service/cart"
	"github.com/vladislavdragonenkov/ims/internal/service/catalog"
	"github.com/vladislavdragonenkov/ims/internal/service/order"
)

// Handler связывает HTTP-поверхность с сервисами движка.
type Handler struct {
	Catalog *catalog.Service
	Engine  *order.Engine
	Cart    *cart.Service
	Ledger  domain.LedgerRepository
	Logger  *log.Entry
}

// NewHandler создаёт HTTP-handler сервиса.
func NewHandler(
	catalogService *catalog.Service,
	engine *order.Engine,
	cartService *cart.Service,
	ledger domain.LedgerRepository,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	return &Handler{
		Catalog: catalogService,
		Engine:  engine,
		Cart:    cartService,
		Ledger:  ledger,
		Logger:  logger,
	}
}

// Register вешает маршруты сервиса на роутер.
func (h *Handler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.addProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products/{id}/restock", h.restockProduct)
	r.Post("/products/{id}/adjust", h.adjustStock)
	r.Get("/products/{id}/reconciliation", h.reconcileProduct)

	r.Get("/ledger", h.listLedger)

	r.Get("/cart", h.listCart)
	r.Post("/cart", h.addToCart)
	r.Delete("/cart/{productID}", h.removeFromCart)
	r.Delete("/cart", h.clearCart)

	r.Post("/checkout", h.checkout)

	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.updateOrderStatus)
	r.Post("/orders/{id}/cancel", h.cancelOrder)

	r.Get("/stats", h.stats)
}

// owner достаёт идентичность вызывающего; пустая строка — анонимный запрос.
func owner(r *http.Request) string {
	return r.Header.Get(headerUser)
}

// requireOwner пишет 401, если идентичность не передана.
func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := owner(r)
	if id == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + headerUser + " header"})
		return "", false
	}
	return id, true
}
