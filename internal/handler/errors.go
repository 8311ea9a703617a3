package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/notice"
	"github.com/xenking/wildgarden/internal/domain/order"
	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/internal/domain/validate"
)

// apiError is the JSON error body returned by every endpoint.
type apiError struct {
	Status     int
	Message    string
	MissingIDs []string
}

func (e apiError) encode(enc *jx.Encoder) {
	enc.ObjStart()
	enc.FieldStart("code")
	enc.Int(e.Status)
	enc.FieldStart("message")
	enc.Str(e.Message)
	if len(e.MissingIDs) > 0 {
		enc.FieldStart("missing_ids")
		enc.ArrStart()
		for _, id := range e.MissingIDs {
			enc.Str(id)
		}
		enc.ArrEnd()
	}
	enc.ObjEnd()
}

// classify maps a domain error to its HTTP representation.
func classify(err error) apiError {
	var (
		notFound *order.ProductNotFoundError
		lookup   *discount.LookupError
		storage  *order.StorageError
	)
	if ve, ok := validate.As(err); ok {
		return apiError{Status: http.StatusBadRequest, Message: ve.Error()}
	}
	switch {
	case errors.As(err, &notFound):
		return apiError{Status: http.StatusNotFound, Message: "products not found", MissingIDs: notFound.IDs}
	case errors.Is(err, product.ErrNotFound):
		return apiError{Status: http.StatusNotFound, Message: "product not found"}
	case errors.Is(err, discount.ErrNotFound):
		return apiError{Status: http.StatusNotFound, Message: "discount code not found"}
	case errors.Is(err, order.ErrNotFound):
		return apiError{Status: http.StatusNotFound, Message: "order not found"}
	case errors.Is(err, notice.ErrNotFound):
		return apiError{Status: http.StatusNotFound, Message: "notice not found"}
	case errors.Is(err, product.ErrAlreadyExists):
		return apiError{Status: http.StatusConflict, Message: "product already exists"}
	case errors.Is(err, discount.ErrAlreadyExists):
		return apiError{Status: http.StatusConflict, Message: "discount code already exists"}
	case errors.Is(err, order.ErrAlreadyExists):
		return apiError{Status: http.StatusConflict, Message: "order already exists"}
	case errors.As(err, &lookup):
		return apiError{Status: http.StatusInternalServerError, Message: "discount code lookup failed"}
	case errors.As(err, &storage):
		return apiError{Status: http.StatusInternalServerError, Message: "storage unavailable"}
	default:
		return apiError{Status: http.StatusInternalServerError, Message: "internal server error"}
	}
}

// fail writes err as a JSON error. Server faults are logged at error level,
// client errors at debug.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	res := classify(err)
	lg := zctx.From(r.Context())
	if res.Status >= http.StatusInternalServerError {
		lg.Error("Handler error", zap.Error(err))
	} else {
		lg.Debug("Request rejected", zap.Int("status", res.Status), zap.Error(err))
	}
	writeJSON(w, res.Status, res.encode)
}

func failStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Status: status, Message: message}.encode)
}
