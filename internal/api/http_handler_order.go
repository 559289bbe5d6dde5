package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ecommerce-service/internal/auth"
	"ecommerce-service/internal/domain"
	"ecommerce-service/internal/store"
)

// CheckoutItemInput is one cart line of a checkout request.
type CheckoutItemInput struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gte=1"`
}

// CheckoutInput defines the expected input for creating an order.
type CheckoutInput struct {
	Items   []CheckoutItemInput `json:"items" validate:"required,min=1,dive"`
	Address string              `json:"address" validate:"required,max=512"`
}

// CreateOrder is the checkout endpoint. The heavy lifting (stock validation,
// price snapshots, the atomic multi-row write) happens in the order store's
// transaction; this handler validates the payload and maps the outcome.
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	lines := make([]domain.CartLine, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, domain.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderStore.CreateOrder(r.Context(), identity.UserID, lines, input.Address)
	if err != nil {
		var stockErr *store.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			respondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("Insufficient stock for %s. Available: %d", stockErr.ProductName, stockErr.Available))
		case errors.Is(err, store.ErrProductNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, store.ErrEmptyCart), errors.Is(err, store.ErrInvalidQuantity):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("CreateOrder store operation failed")
			respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	h.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", identity.UserID).
		Float64("total", order.TotalAmount).
		Msg("order created")
	respondWithJSON(w, http.StatusCreated, order)
}

// ListOrders returns every order for privileged callers and only the caller's
// own orders otherwise.
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var (
		orders []domain.Order
		err    error
	)
	if auth.IsAllowed(identity.Role, auth.ActionOrderViewAll) {
		orders, err = h.orderStore.ListOrders(r.Context())
	} else {
		orders, err = h.orderStore.ListOrdersByUser(r.Context(), identity.UserID)
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("ListOrders store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.orderStore.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrOrderNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("order_id", orderID).Msg("GetOrderByID store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	// Customers may only read their own orders.
	if order.UserID != identity.UserID && !auth.IsAllowed(identity.Role, auth.ActionOrderViewAll) {
		respondWithError(w, http.StatusForbidden, "Access denied")
		return
	}

	respondWithJSON(w, http.StatusOK, order)
}

// OrderStatusInput defines the expected input for updating an order's status.
type OrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var input OrderStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	status := domain.OrderStatus(input.Status)
	if !status.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	order, err := h.orderStore.SetOrderStatus(r.Context(), orderID, status)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrOrderNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("order_id", orderID).Msg("SetOrderStatus store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to update order status")
		return
	}

	h.logger.Info().Int64("order_id", orderID).Str("status", string(status)).Msg("order status updated")
	respondWithJSON(w, http.StatusOK, order)
}

// DeleteOrder removes an order and its lines. Stock consumed by the order is
// not restored.
func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt64(r, "orderId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	if err := h.orderStore.DeleteOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrOrderNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("order_id", orderID).Msg("DeleteOrder store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	h.logger.Info().Int64("order_id", orderID).Msg("order deleted")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}
