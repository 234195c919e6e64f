package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/knoott/partners-api/internal/variants"
)

type VariantsHandler struct {
	Logger *zap.SugaredLogger
}

type MatrixReq struct {
	BaseSKU  string             `json:"base_sku"`
	Variants []variants.Variant `json:"variants"`
}

type MatrixResp struct {
	Count int            `json:"count"`
	Rows  []variants.Row `json:"rows"`
}

func (h *VariantsHandler) Register(r chi.Router, authn func(http.Handler) http.Handler) {
	r.With(authn).Post("/variants/matrix", h.matrix)
}

// matrix recomputes the combination table for the product form.
func (h *VariantsHandler) matrix(w http.ResponseWriter, r *http.Request) {
	var req MatrixReq
	if !decode(w, r, &req) {
		return
	}
	rows, err := variants.BuildMatrix(req.BaseSKU, req.Variants)
	if err != nil {
		writeFailure(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MatrixResp{Count: len(rows), Rows: rows})
}
