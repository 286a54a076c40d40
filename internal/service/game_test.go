package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/models"
)

type GameSuite struct {
	serviceSuite
}

func TestGameSuite(t *testing.T) {
	suite.Run(t, new(GameSuite))
}

func (s *GameSuite) TestCreateGameDefaults() {
	sess := s.register("alice")
	id := s.newGame(sess)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Equal(models.DefaultMainTime, details.MainTime)
	s.Equal(models.DefaultByoyomiTime, details.ByoyomiTime)
	s.Equal(models.DefaultByoyomiPeriods, details.ByoyomiPeriods)
	s.Equal(models.StatusActive, details.Status)
	s.Empty(details.Moves)
}

func (s *GameSuite) TestCreateGameSettings() {
	sess := s.register("alice")
	id, err := s.games.CreateGame(s.ctx, sess, ClockSettings{MainTime: ptr(300), ByoyomiPeriods: ptr(5)})
	s.Require().NoError(err)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Equal(300, details.MainTime)
	s.Equal(models.DefaultByoyomiTime, details.ByoyomiTime)
	s.Equal(5, details.ByoyomiPeriods)

	_, err = s.games.CreateGame(s.ctx, sess, ClockSettings{MainTime: ptr(-1)})
	s.requireKind(err, apperr.KindValidation)

	_, err = s.games.CreateGame(s.ctx, sess, ClockSettings{MainTime: ptr(99999999999)})
	s.requireKind(err, apperr.KindValidation)
}

func (s *GameSuite) TestGuestCreateGameIgnoresSettings() {
	sess := s.guest()

	id, err := s.games.CreateGame(s.ctx, sess, ClockSettings{MainTime: ptr(-1), ByoyomiTime: ptr(99999999999)})
	s.Require().NoError(err)
	s.NotEmpty(id)
}

func (s *GameSuite) TestGuestGamesLeaveNoTrace() {
	sess := s.guest()

	id, err := s.games.CreateGame(s.ctx, sess, ClockSettings{})
	s.Require().NoError(err)
	_, err = uuid.Parse(id)
	s.NoError(err)

	persisted, err := s.games.CompleteGame(s.ctx, sess, id, ptr(models.White))
	s.Require().NoError(err)
	s.False(persisted)

	games, err := s.games.ListGames(s.ctx, sess)
	s.Require().NoError(err)
	s.NotNil(games)
	s.Empty(games)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Nil(details)

	stats, err := s.stats.GetStats(s.ctx, sess)
	s.Require().NoError(err)
	s.Equal(models.Stats{}, stats)
}

func (s *GameSuite) TestCompleteGame() {
	sess := s.register("alice")
	id := s.newGame(sess)

	persisted, err := s.games.CompleteGame(s.ctx, sess, id, ptr(models.Black))
	s.Require().NoError(err)
	s.True(persisted)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, details.Status)
	s.Require().NotNil(details.Winner)
	s.Equal(models.Black, *details.Winner)
	s.NotNil(details.CompletedAt)
}

func (s *GameSuite) TestCompleteGameDraw() {
	sess := s.register("alice")
	id := s.newGame(sess)

	_, err := s.games.CompleteGame(s.ctx, sess, id, nil)
	s.Require().NoError(err)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Nil(details.Winner)
}

func (s *GameSuite) TestCompleteGameOfAnotherAccountIsNotFound() {
	owner := s.register("alice")
	id := s.newGame(owner)
	intruder := s.register("mallory")

	_, err := s.games.CompleteGame(s.ctx, intruder, id, ptr(models.White))
	s.requireKind(err, apperr.KindNotFound)

	_, err = s.games.GetGameDetails(s.ctx, intruder, id)
	s.requireKind(err, apperr.KindNotFound)

	details, err := s.games.GetGameDetails(s.ctx, owner, id)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, details.Status)
}

func (s *GameSuite) TestCompleteGameRejectsUnknownWinner() {
	sess := s.register("alice")
	id := s.newGame(sess)

	_, err := s.games.CompleteGame(s.ctx, sess, id, ptr(models.PlayerColor("red")))
	s.requireKind(err, apperr.KindValidation)
}

func (s *GameSuite) TestSaveGameCreatesThenUpdates() {
	sess := s.register("alice")

	id, persisted, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{
		Title:    ptr("Club night"),
		Settings: ClockSettings{MainTime: ptr(900)},
	})
	s.Require().NoError(err)
	s.True(persisted)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Equal(models.StatusSaved, details.Status)
	s.Equal("Club night", *details.Title)
	s.Equal("", *details.Comment)
	s.Equal(900, details.MainTime)
	s.NotNil(details.SavedAt)

	again, _, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{
		GameID:  ptr(id),
		Title:   ptr("Renamed"),
		Comment: ptr("good game"),
	})
	s.Require().NoError(err)
	s.Equal(id, again)

	games, err := s.games.ListGames(s.ctx, sess)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal("Renamed", *games[0].Title)
	s.Equal("good game", *games[0].Comment)
}

func (s *GameSuite) TestSaveGameExistingActiveGame() {
	sess := s.register("alice")
	id := s.newGame(sess)

	saved, _, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{GameID: ptr(id), Title: ptr("Kept")})
	s.Require().NoError(err)
	s.Equal(id, saved)

	details, err := s.games.GetGameDetails(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Equal(models.StatusSaved, details.Status)
}

func (s *GameSuite) TestSaveGameKeepsClientGeneratedID() {
	sess := s.register("alice")
	clientID := uuid.NewString()

	id, _, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{GameID: ptr(clientID), Title: ptr("Offline")})
	s.Require().NoError(err)
	s.Equal(clientID, id)
}

func (s *GameSuite) TestSaveGameKeepsNonUUIDClientID() {
	sess := s.register("alice")
	const clientID = "game_1700000000000"
	s.saveMove(sess, clientID, 1, 4)

	id, persisted, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{GameID: ptr(clientID), Title: ptr("Club")})
	s.Require().NoError(err)
	s.True(persisted)
	s.Equal(clientID, id)

	details, err := s.games.GetGameDetails(s.ctx, sess, clientID)
	s.Require().NoError(err)
	s.Equal("Club", *details.Title)
	s.EqualValues(1, details.MoveCount)
	s.Len(details.Moves, 1)
}

func (s *GameSuite) TestSaveGameEmptyIDGetsNewID() {
	sess := s.register("alice")

	id, _, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{GameID: ptr(""), Title: ptr("Fresh")})
	s.Require().NoError(err)
	_, err = uuid.Parse(id)
	s.NoError(err)
}

func (s *GameSuite) TestSaveGameRejectsOverlongID() {
	sess := s.register("alice")

	_, _, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{GameID: ptr(strings.Repeat("g", MaxGameIDLength+1)), Title: ptr("Long")})
	s.requireKind(err, apperr.KindValidation)
}

func (s *GameSuite) TestSaveGameForeignIDCreatesNewGame() {
	owner := s.register("alice")
	foreign := s.newGame(owner)
	other := s.register("bobby")

	id, persisted, err := s.games.SaveGame(s.ctx, other, SaveGameInput{GameID: ptr(foreign), Title: ptr("Mine")})
	s.Require().NoError(err)
	s.True(persisted)
	s.NotEqual(foreign, id)

	details, err := s.games.GetGameDetails(s.ctx, owner, foreign)
	s.Require().NoError(err)
	s.Nil(details.Title)
}

func (s *GameSuite) TestSaveGameRequiresTitle() {
	sess := s.register("alice")
	_, _, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{Title: ptr("")})
	s.requireKind(err, apperr.KindValidation)
	_, msg := apperr.Public(err)
	s.Equal("Game title is required", msg)
}

func (s *GameSuite) TestSaveGameGuestIsNoop() {
	sess := s.guest()
	id, persisted, err := s.games.SaveGame(s.ctx, sess, SaveGameInput{})
	s.Require().NoError(err)
	s.False(persisted)
	s.NotEmpty(id)
}

func (s *GameSuite) TestListGamesNewestFirstCappedAt20() {
	sess := s.register("alice")
	var ids []string
	for i := 0; i < 23; i++ {
		ids = append(ids, s.newGame(sess))
	}
	gameID := ids[len(ids)-1]
	s.saveMove(sess, gameID, 1, 2)
	s.saveMove(sess, gameID, 2, 2)

	games, err := s.games.ListGames(s.ctx, sess)
	s.Require().NoError(err)
	s.Require().Len(games, RecentGamesLimit)
	s.Equal(gameID, games[0].ID)
	s.EqualValues(2, games[0].MoveCount)
	s.Equal(ids[3], games[len(games)-1].ID)
}
