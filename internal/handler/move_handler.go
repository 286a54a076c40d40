package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/models"
	"gotimer/backend/internal/service"
)

// region --- DTOs ---

// SaveMoveRequest is one move of the timing log. Times are in seconds;
// fractional values are rounded.
type SaveMoveRequest struct {
	MoveNumber              *int                `json:"move_number" example:"12"`
	PlayerColor             *models.PlayerColor `json:"player_color" example:"black"`
	TimeTaken               *float64            `json:"time_taken" example:"7"`
	MainTimeRemaining       float64             `json:"main_time_remaining" example:"0"`
	ByoyomiTimeRemaining    float64             `json:"byoyomi_time_remaining" example:"23"`
	ByoyomiPeriodsRemaining int                 `json:"byoyomi_periods_remaining" example:"2"`
	InByoyomi               bool                `json:"in_byoyomi" example:"true"`
}

// endregion

// region --- Move Handlers ---

// SaveMove godoc
// @Summary      Record a move
// @Description  Appends a move to the caller's log for the game. Guests get a message and nothing is stored.
// @Tags         moves
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "Game ID"
// @Param        input body  SaveMoveRequest  true  "Move"
// @Success      201  {object}  MessageResponse
// @Success      200  {object}  MessageResponse "Guest mode"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Account no longer exists"
// @Router       /games/{id}/moves [post]
func (h *Handler) SaveMove(c *gin.Context) {
	var input SaveMoveRequest
	if !bind(c, &input) {
		return
	}

	mainRemaining, ok1 := seconds(input.MainTimeRemaining)
	byoyomiRemaining, ok2 := seconds(input.ByoyomiTimeRemaining)
	if !ok1 || !ok2 {
		h.fail(c, apperr.Validation(msgMoveOutOfRange))
		return
	}
	in := service.MoveInput{
		MoveNumber:              input.MoveNumber,
		PlayerColor:             input.PlayerColor,
		MainTimeRemaining:       mainRemaining,
		ByoyomiTimeRemaining:    byoyomiRemaining,
		ByoyomiPeriodsRemaining: input.ByoyomiPeriodsRemaining,
		InByoyomi:               input.InByoyomi,
	}
	if input.TimeTaken != nil {
		taken, ok := seconds(*input.TimeTaken)
		if !ok {
			h.fail(c, apperr.Validation(msgMoveOutOfRange))
			return
		}
		in.TimeTaken = &taken
	}

	persisted, err := h.moves.SaveMove(c.Request.Context(), currentSession(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !persisted {
		c.JSON(http.StatusOK, MessageResponse{Message: "Move not saved (guest mode)"})
		return
	}
	h.metrics.MoveSaved()
	c.JSON(http.StatusCreated, MessageResponse{Message: "Move saved successfully"})
}

// ListMoves godoc
// @Summary      List moves of a game
// @Description  Returns the caller's moves for the game ordered by move number.
// @Tags         moves
// @Produce      json
// @Param        id   path      string  true  "Game ID"
// @Success      200  {array}   models.MoveRecord
// @Failure      401  {object}  ErrorResponse
// @Router       /games/{id}/moves [get]
func (h *Handler) ListMoves(c *gin.Context) {
	moves, err := h.moves.ListMoves(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}

// endregion

const msgMoveOutOfRange = "Move data is out of range"

// seconds rounds v to whole seconds. It reports false when the result does
// not fit a 32-bit column.
func seconds(v float64) (int, bool) {
	r := math.Round(v)
	if math.IsNaN(r) || r > math.MaxInt32 || r < math.MinInt32 {
		return 0, false
	}
	return int(r), true
}
