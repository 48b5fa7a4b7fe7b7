package dashhttp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/period"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/store"
)

type reportParams struct {
	Dir  string `validate:"required,oneof=pulse tickets qa dsat daily"`
	Week string `validate:"required"`
}

type monthParams struct {
	Dir   string `validate:"required,oneof=pulse qa"`
	Month string `validate:"required"`
}

func (h *Handler) handleAPIIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := h.store.Index(r.Context())
	if err != nil {
		h.logError("load index", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, idx)
}

func (h *Handler) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	params := reportParams{
		Dir:  chi.URLParam(r, "dir"),
		Week: chi.URLParam(r, "week"),
	}
	if err := h.validate.Struct(params); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if params.Week != period.Latest && !period.IsWeek(params.Week) {
		httpx.RespondError(w, fmt.Errorf("%w: bad week %q", httpx.ErrValidation, params.Week))
		return
	}

	doc, err := h.store.Report(r.Context(), params.Dir, params.Week)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) handleAPIMonth(w http.ResponseWriter, r *http.Request) {
	params := monthParams{
		Dir:   chi.URLParam(r, "dir"),
		Month: chi.URLParam(r, "month"),
	}
	if err := h.validate.Struct(params); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if params.Month != period.Latest && !period.IsMonth(params.Month) {
		httpx.RespondError(w, fmt.Errorf("%w: bad month %q", httpx.ErrValidation, params.Month))
		return
	}

	doc, err := h.router.AggregateMonth(r.Context(), params.Dir, params.Month)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) respondAPIError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNoData) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
		return
	}
	h.logError("api load", err)
	httpx.RespondError(w, err)
}
