// internal/adapters/in/http/handlers/delegation_handler.go
package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	delegationapp "launchpad/internal/application/delegation"
	delegationdom "launchpad/internal/domain/delegation"
)

// ContentTypeDelegation is the media type of an issued delegation.
const ContentTypeDelegation = "application/jwt"

// DelegationHandler は POST /api/w3up-delegation を担当します。
// 成功時は署名済み delegation をそのまま body に書き、失敗時は body なしでステータスのみ返します。
type DelegationHandler struct {
	uc *delegationapp.Usecase
}

func NewDelegationHandler(uc *delegationapp.Usecase) *DelegationHandler {
	return &DelegationHandler{uc: uc}
}

func (h *DelegationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req delegationdom.Request
	if err := decodeJSON(r, w, &req); err != nil {
		log.WithError(err).Warn("[delegation] bad request body")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	d, err := h.uc.Issue(r.Context(), req)
	if err != nil {
		code := delegationStatus(err)
		entry := log.WithError(err).WithField("status", code)
		if code >= http.StatusInternalServerError {
			entry.Error("[delegation] Error creating delegation")
		} else {
			entry.Warn("[delegation] request rejected")
		}
		w.WriteHeader(code)
		return
	}

	body := d.Archive()
	w.Header().Set("Content-Type", ContentTypeDelegation)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func delegationStatus(err error) int {
	switch {
	case errors.Is(err, delegationapp.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, delegationapp.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, delegationapp.ErrCapabilityNotDelegated):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
