package httpx

import (
	"errors"
	"net/http"

	"github.com/warung-erp/warung-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	var nf *shared.NotFoundError
	var is *shared.InsufficientStockError
	switch {
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: ve.Error(),
			Fields: ve.Fields,
		})
	case errors.As(err, &nf), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.As(err, &is):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", is.Error())
	case errors.Is(err, shared.ErrOrderCompleted), errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate", shared.ErrIdempotencyConflict.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
