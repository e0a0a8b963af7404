package http

import (
	"net/http"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/service"
)

type EscrowHandler struct {
	escrowSvc service.EscrowService
}

func NewEscrowHandler(escrowSvc service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowSvc: escrowSvc}
}

type releaseEscrowResponse struct {
	SettlementID int32              `json:"settlement_id"`
	Settlement   *domain.Settlement `json:"settlement"`
}

func (h *EscrowHandler) ReleaseEscrow(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	st, err := h.escrowSvc.ReleaseEscrow(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, releaseEscrowResponse{SettlementID: st.ID, Settlement: st})
}

// ListSettlements returns the settlements credited to the caller.
func (h *EscrowHandler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, pageSize, ok := parsePaging(w, r)
	if !ok {
		return
	}

	settlements, count, err := h.escrowSvc.ListSettlements(r.Context(), actor.UserID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if settlements == nil {
		settlements = []domain.Settlement{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: settlements, TotalCount: count, Page: page, PageSize: pageSize})
}
