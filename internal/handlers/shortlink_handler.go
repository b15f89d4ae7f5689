package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/middleware"
	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/services"
)

type CreateShortlinkRequest struct {
	DestinationURL string `json:"destination_url" validate:"required" example:"https://example.com/some/long/path"`
	ExpiryDays     *int   `json:"expiry_days,omitempty" validate:"omitempty,min=0,max=100000" example:"30"`
}

// ShortlinkSummary is one row of an owner's link listing
// @Description Shortlink summary
type ShortlinkSummary struct {
	ShortCode      string     `json:"short_code" example:"aB3dE9xZ"`
	ShortURL       string     `json:"short_url" example:"https://sho.rt/aB3dE9xZ"`
	DestinationURL string     `json:"destination_url" example:"https://example.com"`
	Status         string     `json:"status" example:"active"`
	Clicks         int64      `json:"clicks" example:"12"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty"`
}

type ShortlinkHandler struct {
	service   *services.ShortlinkService
	config    *config.ShortlinkConfig
	validator *services.ValidationHelper
}

func NewShortlinkHandler(service *services.ShortlinkService, cfg *config.ShortlinkConfig) *ShortlinkHandler {
	return &ShortlinkHandler{
		service:   service,
		config:    cfg,
		validator: services.NewValidationHelper(),
	}
}

// CreateShortlink charges the wallet and creates a shortlink
// @Summary Create shortlink
// @Description Debits the configured cost. Omit expiry_days for a link that never expires.
// @Tags Shortlinks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Owner identity"
// @Param request body CreateShortlinkRequest true "Shortlink to create"
// @Success 201 {object} services.CreateShortlinkResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /accounts/{identity}/shortlinks [post]
func (h *ShortlinkHandler) CreateShortlink(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	var req CreateShortlinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.service.CreateShortlink(r.Context(), services.CreateShortlinkRequest{
		Identity:       identity,
		DestinationURL: req.DestinationURL,
		ExpiryDays:     req.ExpiryDays,
	})
	if err != nil {
		sendServiceError(w, "SHORTLINK", err)
		return
	}
	services.SendJSON(w, http.StatusCreated, result)
}

// ListShortlinks lists the owner's links, newest first
// @Summary List shortlinks
// @Tags Shortlinks
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Owner identity"
// @Success 200 {array} ShortlinkSummary
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{identity}/shortlinks [get]
func (h *ShortlinkHandler) ListShortlinks(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	links, err := h.service.ListShortlinks(r.Context(), identity)
	if err != nil {
		sendServiceError(w, "SHORTLINK", err)
		return
	}

	summaries := make([]ShortlinkSummary, 0, len(links))
	for _, l := range links {
		summaries = append(summaries, h.summary(l))
	}
	services.SendJSON(w, http.StatusOK, summaries)
}

func (h *ShortlinkHandler) summary(l models.Shortlink) ShortlinkSummary {
	return ShortlinkSummary{
		ShortCode:      l.ShortCode,
		ShortURL:       h.config.ShortURL(l.ShortCode),
		DestinationURL: l.DestinationURL,
		Status:         l.Status,
		Clicks:         l.Clicks,
		CreatedAt:      l.CreatedAt,
		ExpiresAt:      l.ExpiresAt,
		LastClickedAt:  l.LastClickedAt,
	}
}

// GetShortlink returns one link with its click count
// @Summary Get shortlink
// @Description Owners see their own links and admins see any. Other callers get 404.
// @Tags Shortlinks
// @Produce json
// @Security BearerAuth
// @Param code path string true "Short code"
// @Success 200 {object} ShortlinkSummary
// @Failure 404 {object} services.ErrorResponse
// @Router /shortlinks/{code} [get]
func (h *ShortlinkHandler) GetShortlink(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	link, err := h.service.GetShortlink(r.Context(), chi.URLParam(r, "code"), p.Identity, p.IsAdmin())
	if err != nil {
		sendServiceError(w, "SHORTLINK", err)
		return
	}
	services.SendJSON(w, http.StatusOK, h.summary(*link))
}

// DeleteShortlink removes a link for good
// @Summary Delete shortlink
// @Description Hard delete by the owner or an admin. The code is never reissued.
// @Tags Shortlinks
// @Produce json
// @Security BearerAuth
// @Param code path string true "Short code"
// @Success 200 {object} object{deleted=string}
// @Failure 404 {object} services.ErrorResponse
// @Router /shortlinks/{code} [delete]
func (h *ShortlinkHandler) DeleteShortlink(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	code := chi.URLParam(r, "code")
	if err := h.service.DeleteShortlink(r.Context(), code, p.Identity, p.IsAdmin()); err != nil {
		sendServiceError(w, "SHORTLINK", err)
		return
	}
	services.SendJSON(w, http.StatusOK, map[string]string{"deleted": code})
}

// ExpireOverdue runs an expiry sweep now
// @Summary Expire overdue shortlinks (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{expired=int}
// @Router /admin/shortlinks/expire [post]
func (h *ShortlinkHandler) ExpireOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ExpireOverdue(r.Context())
	if err != nil {
		sendServiceError(w, "SHORTLINK", err)
		return
	}
	services.SendJSON(w, http.StatusOK, map[string]int64{"expired": n})
}

// Redirect sends the visitor to the destination and counts the click.
// Absent, deleted and expired codes all answer 404.
func (h *ShortlinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	destination, err := h.service.Redirect(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if models.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		sendServiceError(w, "REDIRECT", err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, destination, http.StatusTemporaryRedirect)
}
