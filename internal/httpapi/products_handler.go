package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type addProductRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	PriceMinor        int64  `json:"price_minor"`
	Stock             int32  `json:"stock"`
	Category          string `json:"category"`
	LowStockThreshold *int32 `json:"low_stock_threshold"`
}

type productResponse struct {
	ID                string    `json:"id"`
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	PriceMinor        int64     `json:"price_minor"`
	Stock             int32     `json:"stock"`
	Category          string    `json:"category,omitempty"`
	LowStockThreshold int32     `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type restockRequest struct {
	AddQty int32  `json:"add_qty"`
	Notes  string `json:"notes"`
}

type adjustStockRequest struct {
	NewQty int32  `json:"new_qty"`
	Notes  string `json:"notes"`
}

type reconciliationResponse struct {
	ProductID     string `json:"product_id"`
	Stock         int32  `json:"stock"`
	LedgerBalance int32  `json:"ledger_balance"`
	Match         bool   `json:"match"`
}

type ledgerEntryResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Kind      string    `json:"kind"`
	Delta     int32     `json:"delta"`
	RefID     string    `json:"ref_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		PriceMinor:        p.PriceMinor,
		Stock:             p.Stock,
		Category:          p.Category,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	lowStockOnly := r.URL.Query().Get("low_stock") == "1"

	products, err := h.Catalog.ListProducts(lowStockOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	threshold := domain.DefaultLowStockThreshold
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}

	id, err := h.Catalog.AddProduct(domain.Product{
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		PriceMinor:        req.PriceMinor,
		Stock:             req.Stock,
		Category:          req.Category,
		LowStockThreshold: threshold,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.Catalog.GetProduct(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.Catalog.GetProduct(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) restockProduct(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	product, err := h.Catalog.Restock(chi.URLParam(r, "id"), req.AddQty, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	product, err := h.Catalog.AdjustStock(chi.URLParam(r, "id"), req.NewQty, domain.EntryKindManualAdjust, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) reconcileProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Catalog.Reconcile(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reconciliationResponse{
		ProductID:     rec.ProductID,
		Stock:         rec.Stock,
		LedgerBalance: rec.LedgerBalance,
		Match:         rec.Match,
	})
}

func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	var entries []domain.LedgerEntry
	var err error
	if productID := r.URL.Query().Get("product_id"); productID != "" {
		entries, err = h.Ledger.ListByProduct(productID, limit)
	} else {
		entries, err = h.Ledger.List(limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryResponse{
			ID:        e.ID,
			ProductID: e.ProductID,
			Kind:      string(e.Kind),
			Delta:     e.Delta,
			RefID:     e.RefID,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
