package handler

import (
	"encoding/json"
	"net/http"

	"bandroom/internal/api/middleware"
	"bandroom/internal/app/service"
	"bandroom/internal/common"
	"bandroom/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type BandHandler struct {
	bandService *service.BandService
	memberRepo  repository.MembershipRepository
}

func NewBandHandler(bandService *service.BandService, memberRepo repository.MembershipRepository) *BandHandler {
	return &BandHandler{bandService: bandService, memberRepo: memberRepo}
}

func (h *BandHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createBand)
	r.Get("/", h.listBands)

	r.Route("/{bandID}", func(band chi.Router) {
		band.With(middleware.RequireBandMember(h.memberRepo)).Get("/", h.getBand)

		band.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireBandAdmin(h.memberRepo))
			admin.Post("/members", h.addMember)
			admin.Delete("/members/{userID}", h.removeMember)
		})
	})
}

func (h *BandHandler) createBand(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	var req service.CreateBandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	band, err := h.bandService.CreateBand(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, band)
}

func (h *BandHandler) listBands(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	bands, err := h.bandService.ListBands(r.Context(), user.ID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, bands)
}

func (h *BandHandler) getBand(w http.ResponseWriter, r *http.Request) {
	details, err := h.bandService.GetBand(r.Context(), chi.URLParam(r, "bandID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, details)
}

func (h *BandHandler) addMember(w http.ResponseWriter, r *http.Request) {
	var req service.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	member, err := h.bandService.AddMember(r.Context(), chi.URLParam(r, "bandID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, member)
}

func (h *BandHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	err := h.bandService.RemoveMember(r.Context(), chi.URLParam(r, "bandID"), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
