package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/services"
)

// AccountResponse is the public view of a wallet
// @Description Wallet account
type AccountResponse struct {
	ID             int64           `json:"id" example:"1"`
	Identity       string          `json:"identity" example:"123456789"`
	DisplayName    string          `json:"display_name" example:"Alice"`
	Balance        decimal.Decimal `json:"balance" swaggertype:"string" example:"90"`
	Status         string          `json:"status" example:"active"`
	LinksAvailable int64           `json:"links_available" example:"9"`
	CreatedAt      time.Time       `json:"created_at"`
}

type CreateAccountRequest struct {
	Identity    string `json:"identity" validate:"required,max=128" example:"123456789"`
	DisplayName string `json:"display_name" validate:"max=255" example:"Alice"`
}

type AdjustBalanceRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"50"`
	Action string          `json:"action" validate:"required,oneof=add deduct" example:"add"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active blocked banned" example:"blocked"`
}

type AccountHandler struct {
	ledger    *services.LedgerService
	config    *config.ShortlinkConfig
	validator *services.ValidationHelper
}

func NewAccountHandler(ledger *services.LedgerService, cfg *config.ShortlinkConfig) *AccountHandler {
	return &AccountHandler{
		ledger:    ledger,
		config:    cfg,
		validator: services.NewValidationHelper(),
	}
}

func (h *AccountHandler) toResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		Identity:       a.Identity,
		DisplayName:    a.DisplayName,
		Balance:        a.Balance,
		Status:         a.Status,
		LinksAvailable: h.config.LinksAffordable(a.Balance),
		CreatedAt:      a.CreatedAt,
	}
}

// CreateAccount registers a wallet on first contact
// @Summary Create account
// @Description Idempotent. Returns 201 when the account was created and 200 when it already existed.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAccountRequest true "Account to create"
// @Success 200 {object} AccountResponse
// @Success 201 {object} AccountResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if _, ok := principalFor(w, r, req.Identity); !ok {
		return
	}

	account, created, err := h.ledger.EnsureAccount(r.Context(), req.Identity, req.DisplayName)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	services.SendJSON(w, status, h.toResponse(account))
}

// GetAccount returns balance and status
// @Summary Get account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Account identity"
// @Success 200 {object} AccountResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), identity)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	services.SendJSON(w, http.StatusOK, h.toResponse(account))
}

// AdjustBalance adds to or deducts from a wallet
// @Summary Adjust balance (admin)
// @Description Deducting more than the balance leaves the balance at zero.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Account identity"
// @Param request body AdjustBalanceRequest true "Adjustment"
// @Success 200 {object} object{identity=string,new_balance=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity}/balance [put]
func (h *AccountHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	var req AdjustBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	newBalance, err := h.ledger.AdjustBalance(r.Context(), identity, req.Amount, req.Action)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}

	log.Printf("[ACCOUNT] balance adjusted - identity: %s, action: %s, amount: %s, new balance: %s", identity, req.Action, req.Amount, newBalance)
	services.SendJSON(w, http.StatusOK, map[string]any{
		"identity":    identity,
		"new_balance": newBalance,
	})
}

// SetStatus blocks or reactivates a wallet
// @Summary Set account status (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Account identity"
// @Param request body SetStatusRequest true "New status"
// @Success 200 {object} object{identity=string,status=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity}/status [put]
func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	var req SetStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.ledger.SetStatus(r.Context(), identity, req.Status); err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	services.SendJSON(w, http.StatusOK, map[string]string{
		"identity": identity,
		"status":   req.Status,
	})
}

// ListTransactions returns recent ledger entries
// @Summary List ledger entries
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Account identity"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} models.LedgerEntry
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity}/transactions [get]
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	limit, ok := queryLimit(w, r, h.config.DefaultEntryLimit, h.config.MaxEntryLimit)
	if !ok {
		return
	}

	entries, err := h.ledger.ListEntries(r.Context(), identity, limit)
	if err != nil {
		sendServiceError(w, "ACCOUNT", err)
		return
	}
	services.SendJSON(w, http.StatusOK, entries)
}
