// internal/adapters/in/http/handlers/launch_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	usecase "launchpad/internal/application/usecase"
	launchdom "launchpad/internal/domain/launch"
)

// LaunchHandler は /api/launches 関連のエンドポイントを担当します。
type LaunchHandler struct {
	uc *usecase.LaunchRecordUsecase
}

func NewLaunchHandler(uc *usecase.LaunchRecordUsecase) *LaunchHandler {
	return &LaunchHandler{uc: uc}
}

// POST /api/launches
func (h *LaunchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateLaunchInput
	if err := decodeJSON(r, w, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, err := h.uc.Create(r.Context(), in)
	if err != nil {
		writeLaunchErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GET /api/launches?creator=&limit=
func (h *LaunchHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creator := strings.TrimSpace(q.Get("creator"))
	limit := parseIntDefault(q.Get("limit"), launchdom.DefaultListLimit)

	items, err := h.uc.List(r.Context(), creator, limit)
	if err != nil {
		writeLaunchErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GET /api/launches/{mint}
func (h *LaunchHandler) Get(w http.ResponseWriter, r *http.Request) {
	mint := strings.TrimSpace(chi.URLParam(r, "mint"))

	rec, err := h.uc.Get(r.Context(), mint)
	if err != nil {
		writeLaunchErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// エラーハンドリング
func writeLaunchErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, launchdom.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, launchdom.ErrAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, usecase.ErrLaunchNotConfirmed):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrLaunchRecordsNotConfigured):
		code = http.StatusServiceUnavailable
	case isLaunchValidation(err):
		code = http.StatusBadRequest
	}
	writeError(w, code, err.Error())
}

func isLaunchValidation(err error) bool {
	for _, target := range []error{
		launchdom.ErrInvalidMint,
		launchdom.ErrInvalidSignature,
		launchdom.ErrInvalidCreator,
		launchdom.ErrInvalidCreatedAt,
		launchdom.ErrNameRequired,
		launchdom.ErrNameTooLong,
		launchdom.ErrSymbolRequired,
		launchdom.ErrSymbolTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
