package usecase_match

import (
	"context"
	"errors"
	"fmt"

	"github.com/humanbelnik/watchparty/internal/model"
)

var (
	ErrUnableToArchive    = errors.New("unable to archive match")
	ErrUnableToGetHistory = errors.New("unable to get match history")
)

//go:generate mockery --name=MatchRepository --output=./mocks --filename=repository.go
type MatchRepository interface {
	Save(ctx context.Context, m model.Match) error
	ListByRoom(ctx context.Context, code model.RoomCode) ([]model.Match, error)
}

type Usecase struct {
	matchRepository MatchRepository
}

func New(
	r MatchRepository,
) *Usecase {
	return &Usecase{
		matchRepository: r,
	}
}

func (u *Usecase) Archive(ctx context.Context, m model.Match) error {
	if err := u.matchRepository.Save(ctx, m); err != nil {
		return fmt.Errorf("%w : %w", ErrUnableToArchive, err)
	}

	return nil
}

func (u *Usecase) History(ctx context.Context, code model.RoomCode) ([]model.Match, error) {
	matches, err := u.matchRepository.ListByRoom(ctx, model.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("%w:%w", ErrUnableToGetHistory, err)
	}

	return matches, nil
}
