package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type checkoutResponse struct {
	OrderID string `json:"order_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int32  `json:"qty"`
	PriceMinor  int64  `json:"price_minor"`
	Subtotal    int64  `json:"subtotal_minor"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	Owner       string              `json:"owner"`
	Status      string              `json:"status"`
	AmountMinor int64               `json:"amount_minor"`
	Lines       []orderLineResponse `json:"lines"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type statsResponse struct {
	TotalOrders         int     `json:"total_orders"`
	RevenueMinor        int64   `json:"revenue_minor"`
	AvgOrderValueMinor  int64   `json:"avg_order_value_minor"`
	CompletionRate      float64 `json:"completion_rate"`
	InventoryValueMinor int64   `json:"inventory_value_minor"`
}

func toOrderResponse(o domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Qty:         line.Qty,
			PriceMinor:  line.PriceMinor,
			Subtotal:    line.Subtotal(),
		})
	}
	return orderResponse{
		ID:          o.ID,
		Owner:       o.Owner,
		Status:      string(o.Status),
		AmountMinor: o.AmountMinor,
		Lines:       lines,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// checkout оформляет заказ по текущей корзине вызывающего.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	lines, err := h.Cart.List(id)
	if err != nil {
		writeError(w, err)
		return
	}

	orderID, err := h.Engine.Checkout(id, lines)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{OrderID: orderID})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := ""
	if r.URL.Query().Get("owner") == "me" {
		id, ok := h.requireOwner(w, r)
		if !ok {
			return
		}
		filter = id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	orders, err := h.Engine.ListOrders(filter, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Engine.GetOrder(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	if err := h.Engine.UpdateStatus(chi.URLParam(r, "id"), domain.OrderStatus(req.Status)); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.Engine.GetOrder(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Cancel(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.Engine.GetOrder(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// stats отдаёт сводку заказов и стоимость склада.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.Summary("")
	if err != nil {
		writeError(w, err)
		return
	}
	inventory, err := h.Catalog.InventoryValue()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalOrders:         summary.TotalOrders,
		RevenueMinor:        summary.RevenueMinor,
		AvgOrderValueMinor:  summary.AvgOrderValueMinor,
		CompletionRate:      summary.CompletionRate,
		InventoryValueMinor: inventory,
	})
}
