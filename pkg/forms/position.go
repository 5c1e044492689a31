package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mwantia/goforms/pkg/db/store"
)

var ErrInvalidMove = errors.New("invalid move direction")

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrInvalidMove, s)
}

// MoveQuestion swaps the question with its neighbour on the given side and
// renumbers the form to 1..n. Moving the first question up or the last one
// down changes nothing.
func (s *Service) MoveQuestion(ctx context.Context, owner, formID string, questionID uint, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("%w: '%s'", ErrInvalidMove, dir)
	}

	err := s.store.Transaction(ctx, func(tx store.FormStore) error {
		if _, err := tx.GetOwnedForm(ctx, owner, formID); err != nil {
			return err
		}

		ordered, err := questionOrder(ctx, tx, formID)
		if err != nil {
			return err
		}

		index := -1
		for i, id := range ordered {
			if id == questionID {
				index = i
				break
			}
		}
		if index < 0 {
			return store.ErrNotFound
		}

		neighbour := index - 1
		if dir == Down {
			neighbour = index + 1
		}
		if neighbour < 0 || neighbour >= len(ordered) {
			return nil
		}

		ordered[index], ordered[neighbour] = ordered[neighbour], ordered[index]
		return tx.SetQuestionPositions(ctx, formID, ordered)
	})
	if err != nil {
		return wrap("move question", err)
	}

	s.log.Debug("Moved question %d of form '%s' %s", questionID, formID, dir)
	return nil
}

func questionOrder(ctx context.Context, tx store.FormStore, formID string) ([]uint, error) {
	questions, err := tx.ListQuestions(ctx, formID)
	if err != nil {
		return nil, err
	}

	ordered := make([]uint, 0, len(questions))
	for _, q := range questions {
		ordered = append(ordered, q.ID)
	}
	return ordered, nil
}

// resequence closes the gaps left behind by deleted questions.
func resequence(ctx context.Context, tx store.FormStore, formID string) error {
	ordered, err := questionOrder(ctx, tx, formID)
	if err != nil {
		return err
	}
	if len(ordered) == 0 {
		return nil
	}
	return tx.SetQuestionPositions(ctx, formID, ordered)
}
