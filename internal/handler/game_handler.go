package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gotimer/backend/internal/models"
	"gotimer/backend/internal/service"
)

// region --- DTOs ---

// CreateGameRequest holds optional clock settings in seconds.
type CreateGameRequest struct {
	MainTime       *int `json:"main_time" example:"600"`
	ByoyomiTime    *int `json:"byoyomi_time" example:"30"`
	ByoyomiPeriods *int `json:"byoyomi_periods" example:"3"`
}

// CompleteGameRequest names the winner; null or absent means a draw.
type CompleteGameRequest struct {
	Winner *models.PlayerColor `json:"winner" example:"white"`
}

// GameSettings are the clock settings sent with a save.
type GameSettings struct {
	MainTime       *int `json:"mainTime" example:"600"`
	ByoyomiTime    *int `json:"byoyomiTime" example:"30"`
	ByoyomiPeriods *int `json:"byoyomiPeriods" example:"3"`
}

// SaveGameRequest defines the structure for saving a game.
type SaveGameRequest struct {
	GameID   *string       `json:"gameId" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	Title    *string       `json:"title" example:"Club night"`
	Comment  *string       `json:"comment" example:"Close endgame"`
	Settings *GameSettings `json:"settings"`
}

// GameIDResponse carries a game id.
type GameIDResponse struct {
	GameID string `json:"game_id" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
}

// SaveGameResponse is returned by SaveGame.
type SaveGameResponse struct {
	Message string `json:"message" example:"Game saved successfully"`
	GameID  string `json:"game_id" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
}

// endregion

// region --- Game Handlers ---

// CreateGame godoc
// @Summary      Start a game
// @Description  Returns a new game id. Only registered users' games are stored.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        input body CreateGameRequest false "Clock settings"
// @Success      201  {object}  GameIDResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /games/new [post]
func (h *Handler) CreateGame(c *gin.Context) {
	var input CreateGameRequest
	if !bind(c, &input) {
		return
	}
	sess := currentSession(c)

	gameID, err := h.games.CreateGame(c.Request.Context(), sess, service.ClockSettings{
		MainTime:       input.MainTime,
		ByoyomiTime:    input.ByoyomiTime,
		ByoyomiPeriods: input.ByoyomiPeriods,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	_, registered := sess.Registered()
	h.metrics.GameCreated(!registered)
	c.JSON(http.StatusCreated, GameIDResponse{GameID: gameID})
}

// CompleteGame godoc
// @Summary      Complete a game
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "Game ID"
// @Param        input body  CompleteGameRequest  false  "Winner"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id}/complete [post]
func (h *Handler) CompleteGame(c *gin.Context) {
	var input CompleteGameRequest
	if !bind(c, &input) {
		return
	}

	persisted, err := h.games.CompleteGame(c.Request.Context(), currentSession(c), c.Param("id"), input.Winner)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !persisted {
		c.JSON(http.StatusOK, MessageResponse{Message: "Game not updated (guest mode)"})
		return
	}
	winner := ""
	if input.Winner != nil {
		winner = string(*input.Winner)
	}
	h.metrics.GameCompleted(winner)
	c.JSON(http.StatusOK, MessageResponse{Message: "Game completed successfully"})
}

// SaveGame godoc
// @Summary      Save a game
// @Description  Creates or updates a saved game under the client's id. Ids owned by another account get a new id.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        input body SaveGameRequest true "Game"
// @Success      200  {object}  SaveGameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /games/save [post]
func (h *Handler) SaveGame(c *gin.Context) {
	var input SaveGameRequest
	if !bind(c, &input) {
		return
	}

	in := service.SaveGameInput{GameID: input.GameID, Title: input.Title, Comment: input.Comment}
	if s := input.Settings; s != nil {
		in.Settings = service.ClockSettings{MainTime: s.MainTime, ByoyomiTime: s.ByoyomiTime, ByoyomiPeriods: s.ByoyomiPeriods}
	}

	gameID, persisted, err := h.games.SaveGame(c.Request.Context(), currentSession(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !persisted {
		c.JSON(http.StatusOK, SaveGameResponse{Message: "Game not saved (guest mode)", GameID: gameID})
		return
	}
	h.metrics.GameSaved()
	c.JSON(http.StatusOK, SaveGameResponse{Message: "Game saved successfully", GameID: gameID})
}

// ListGames godoc
// @Summary      List recent games
// @Description  Returns up to 20 of the caller's games, newest first. Guests get an empty list.
// @Tags         games
// @Produce      json
// @Success      200  {array}   models.Game
// @Failure      401  {object}  ErrorResponse
// @Router       /games [get]
func (h *Handler) ListGames(c *gin.Context) {
	games, err := h.games.ListGames(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// GetGame godoc
// @Summary      Get a game with its moves
// @Description  Guests get an empty object.
// @Tags         games
// @Produce      json
// @Param        id   path      string  true  "Game ID"
// @Success      200  {object}  service.GameDetails
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id} [get]
func (h *Handler) GetGame(c *gin.Context) {
	details, err := h.games.GetGameDetails(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if details == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, details)
}

// endregion
