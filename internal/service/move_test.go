package service

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/models"
	"gotimer/backend/internal/session"
)

type MoveSuite struct {
	serviceSuite
}

func TestMoveSuite(t *testing.T) {
	suite.Run(t, new(MoveSuite))
}

func (s *MoveSuite) TestMovesAreOrderedByMoveNumber() {
	sess := s.register("alice")
	id := s.newGame(sess)

	for _, n := range []int{3, 1, 4, 2} {
		s.saveMove(sess, id, n, n)
	}

	moves, err := s.moves.ListMoves(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Require().Len(moves, 4)
	for i, m := range moves {
		s.Equal(i+1, m.MoveNumber)
	}
}

func (s *MoveSuite) TestSaveMoveStoresAllFields() {
	sess := s.register("alice")
	id := s.newGame(sess)

	_, err := s.moves.SaveMove(s.ctx, sess, id, MoveInput{
		MoveNumber:              ptr(7),
		PlayerColor:             ptr(models.Black),
		TimeTaken:               ptr(12),
		MainTimeRemaining:       0,
		ByoyomiTimeRemaining:    18,
		ByoyomiPeriodsRemaining: 2,
		InByoyomi:               true,
	})
	s.Require().NoError(err)

	moves, err := s.moves.ListMoves(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Require().Len(moves, 1)
	m := moves[0]
	s.Equal(id, m.GameID)
	s.Equal(models.Black, m.PlayerColor)
	s.Equal(12, m.TimeTaken)
	s.Equal(18, m.ByoyomiTimeRemaining)
	s.Equal(2, m.ByoyomiPeriodsRemaining)
	s.True(m.InByoyomi)
}

func (s *MoveSuite) TestSaveMoveValidation() {
	sess := s.register("alice")
	id := s.newGame(sess)

	_, err := s.moves.SaveMove(s.ctx, sess, id, MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.White)})
	s.requireKind(err, apperr.KindValidation)
	_, msg := apperr.Public(err)
	s.Equal("Missing required move data", msg)

	_, err = s.moves.SaveMove(s.ctx, sess, id, MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.PlayerColor("green")), TimeTaken: ptr(1)})
	s.requireKind(err, apperr.KindValidation)

	_, err = s.moves.SaveMove(s.ctx, sess, id, MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.White), TimeTaken: ptr(-1)})
	s.requireKind(err, apperr.KindValidation)
}

func (s *MoveSuite) TestSaveMoveGuestIsNoop() {
	sess := s.guest()

	persisted, err := s.moves.SaveMove(s.ctx, sess, "whatever", MoveInput{})
	s.Require().NoError(err)
	s.False(persisted)

	moves, err := s.moves.ListMoves(s.ctx, sess, "whatever")
	s.Require().NoError(err)
	s.NotNil(moves)
	s.Empty(moves)
}

func (s *MoveSuite) TestSaveMoveUnknownGameIsStored() {
	sess := s.register("alice")
	const clientID = "game_1700000000000"

	persisted, err := s.moves.SaveMove(s.ctx, sess, clientID, MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.Black), TimeTaken: ptr(3)})
	s.Require().NoError(err)
	s.True(persisted)

	moves, err := s.moves.ListMoves(s.ctx, sess, clientID)
	s.Require().NoError(err)
	s.Require().Len(moves, 1)
	s.Equal(clientID, moves[0].GameID)
	s.Equal(3, moves[0].TimeTaken)
}

func (s *MoveSuite) TestSaveMoveRejectsOutOfRangeValues() {
	sess := s.register("alice")
	id := s.newGame(sess)

	_, err := s.moves.SaveMove(s.ctx, sess, id, MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.White), TimeTaken: ptr(math.MaxInt32 + 1)})
	s.requireKind(err, apperr.KindValidation)

	_, err = s.moves.SaveMove(s.ctx, sess, id, MoveInput{MoveNumber: ptr(math.MaxInt32 + 1), PlayerColor: ptr(models.White), TimeTaken: ptr(1)})
	s.requireKind(err, apperr.KindValidation)

	_, err = s.moves.SaveMove(s.ctx, sess, strings.Repeat("x", MaxGameIDLength+1), MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.White), TimeTaken: ptr(1)})
	s.requireKind(err, apperr.KindValidation)

	_, err = s.moves.SaveMove(s.ctx, sess, id, MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.White), TimeTaken: ptr(math.MaxInt32)})
	s.NoError(err)
}

func (s *MoveSuite) TestDeletedAccountCannotSaveMoves() {
	sess := s.register("alice")
	stale := session.Restore("stale", sess.Identity())
	s.Require().NoError(s.accounts.DeleteAccount(s.ctx, sess))

	_, err := s.moves.SaveMove(s.ctx, stale, "game_1", MoveInput{MoveNumber: ptr(1), PlayerColor: ptr(models.White), TimeTaken: ptr(1)})
	s.requireKind(err, apperr.KindNotFound)
}

func (s *MoveSuite) TestSaveMoveOnAnotherAccountsGameIsScopedToCaller() {
	owner := s.register("alice")
	id := s.newGame(owner)
	other := s.register("bobby")

	s.saveMove(other, id, 1, 4)

	ownerMoves, err := s.moves.ListMoves(s.ctx, owner, id)
	s.Require().NoError(err)
	s.Empty(ownerMoves)

	otherMoves, err := s.moves.ListMoves(s.ctx, other, id)
	s.Require().NoError(err)
	s.Len(otherMoves, 1)
}

func (s *MoveSuite) TestDuplicateMoveNumbersAreKept() {
	sess := s.register("alice")
	id := s.newGame(sess)
	s.saveMove(sess, id, 1, 1)
	s.saveMove(sess, id, 1, 2)

	moves, err := s.moves.ListMoves(s.ctx, sess, id)
	s.Require().NoError(err)
	s.Len(moves, 2)
}
