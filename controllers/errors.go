package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

// statusForError memetakan error domain ke kode HTTP:
// validasi/kapasitas -> 400, not found -> 404, konflik jadwal dan
// transisi/state ilegal -> 409, sisanya -> 500
func statusForError(err error) int {
	var (
		validationErr *services.ValidationError
		capacityErr   *services.CapacityError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		stateErr      *services.InvalidStateError
		transitionErr *services.InvalidTransitionError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &capacityErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &conflictErr),
		errors.As(err, &stateErr),
		errors.As(err, &transitionErr),
		errors.Is(err, services.ErrNoAvailability):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

// respondServiceError -> kirim error domain ke client; ConflictError
// menyertakan daftar reservasi yang bentrok supaya UI bisa menampilkannya
func respondServiceError(c *gin.Context, err error) {
	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		utils.RespondErrorData(c, http.StatusConflict, err, gin.H{
			"conflicts": conflictErr.Conflicts,
		})
		return
	}
	utils.RespondError(c, statusForError(err), err)
}
