package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// AbsenceClient reads absence records from the host platform. Absences are
// owned by the host; this extension only consumes them for hour credit.
type AbsenceClient interface {
	Absences(ctx context.Context, userID int, window engine.Window) ([]engine.Absence, error)
}

// StaticAbsences serves fixed absence lists for tests and dev.
type StaticAbsences struct {
	ByUser map[int][]engine.Absence
}

var _ AbsenceClient = (*StaticAbsences)(nil)

func (s *StaticAbsences) Absences(_ context.Context, userID int, _ engine.Window) ([]engine.Absence, error) {
	return s.ByUser[userID], nil
}

// absencesWithFallback applies the read-availability policy: a failed fetch
// collapses to an empty collection, logged, never propagated.
func (s *Service) absencesWithFallback(ctx context.Context, userID int, window engine.Window) []engine.Absence {
	if s.Absences == nil {
		return nil
	}
	absences, err := s.Absences.Absences(ctx, userID, window)
	if err != nil {
		s.Log.Warn("absence fetch failed, using empty set",
			zap.Int("userId", userID), zap.Error(err))
		return nil
	}
	return absences
}
