package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/middleware"
	"github.com/foxcode/shorter/internal/services"
)

type CreatePaymentRequest struct {
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"100"`
	PaymentProof string          `json:"payment_proof" validate:"max=2048" example:"https://files.example.com/receipt-42.png"`
}

type ProcessPaymentRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject" example:"approve"`
	Notes  string `json:"notes" validate:"max=1000" example:"receipt checked"`
}

type PaymentHandler struct {
	service   *services.PaymentService
	config    *config.ShortlinkConfig
	validator *services.ValidationHelper
}

func NewPaymentHandler(service *services.PaymentService, cfg *config.ShortlinkConfig) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		config:    cfg,
		validator: services.NewValidationHelper(),
	}
}

// CreatePayment files a top-up request for admin review
// @Summary Request a top-up
// @Description The wallet is credited only once an admin approves the request.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Account identity"
// @Param request body CreatePaymentRequest true "Top-up"
// @Success 201 {object} models.Payment
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity}/payments [post]
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	var req CreatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payment, err := h.service.RequestPayment(r.Context(), identity, req.Amount, req.PaymentProof)
	if err != nil {
		sendServiceError(w, "PAYMENT", err)
		return
	}
	services.SendJSON(w, http.StatusCreated, payment)
}

// ListPayments returns the account's top-up requests
// @Summary List top-ups
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Account identity"
// @Param limit query int false "Maximum requests"
// @Success 200 {array} models.Payment
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity}/payments [get]
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}
	limit, ok := queryLimit(w, r, h.config.DefaultEntryLimit, h.config.MaxEntryLimit)
	if !ok {
		return
	}

	payments, err := h.service.ListForAccount(r.Context(), identity, limit)
	if err != nil {
		sendServiceError(w, "PAYMENT", err)
		return
	}
	services.SendJSON(w, http.StatusOK, payments)
}

// ListAll returns top-up requests across accounts
// @Summary List top-ups (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param limit query int false "Maximum requests"
// @Success 200 {array} models.Payment
// @Failure 400 {object} services.ErrorResponse
// @Router /admin/payments [get]
func (h *PaymentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, h.config.DefaultEntryLimit, h.config.MaxEntryLimit)
	if !ok {
		return
	}

	payments, err := h.service.ListByStatus(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		sendServiceError(w, "PAYMENT", err)
		return
	}
	services.SendJSON(w, http.StatusOK, payments)
}

// ProcessPayment approves or rejects a pending top-up
// @Summary Approve or reject a top-up (admin)
// @Description Approval credits the wallet. A request can be decided once.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Param request body ProcessPaymentRequest true "Decision"
// @Success 200 {object} models.Payment
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/payments/{id} [put]
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid payment id", http.StatusBadRequest, nil)
		return
	}

	var req ProcessPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payment, err := h.service.ProcessPayment(r.Context(), id, req.Action, p.Identity, req.Notes)
	if err != nil {
		sendServiceError(w, "PAYMENT", err)
		return
	}
	services.SendJSON(w, http.StatusOK, payment)
}
