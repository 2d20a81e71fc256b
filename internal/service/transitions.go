package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// checkTransition validates a TransitionStatus request.
func checkTransition(current, next domain.ComplaintStatus) error {
	if !next.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(next)})
	}
	if current == next || next == domain.StatusEscalated {
		return apperrors.NewInvalidTransition(string(current), string(next))
	}
	if current.IsTerminal() && !(current == domain.StatusResolved && next == domain.StatusClosed) {
		return apperrors.NewInvalidTransition(string(current), string(next))
	}
	return nil
}

// applyTransition persists next guarded by current's status, escalation flag
// and assignee, appending entry to the history in the same write.
func applyTransition(ctx context.Context, repo repository.ComplaintRepository, current, next *domain.Complaint, entry domain.StatusEntry) error {
	next.StatusHistory = append(next.StatusHistory, entry)
	err := repo.ApplyUpdate(ctx, repository.ComplaintUpdate{
		Complaint:          next,
		ExpectedStatus:     current.Status,
		ExpectedEscalated:  current.Escalation.IsEscalated,
		ExpectedAssigneeID: current.AssigneeID,
		Appended:           []domain.StatusEntry{entry},
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStaleComplaint) {
		return apperrors.NewConflict("complaint was modified concurrently", map[string]any{"complaint_id": current.ID})
	}
	return mapComplaintErr(err, current.ID)
}

// loadComplaint fetches a complaint, translating missing rows to NotFound.
func loadComplaint(ctx context.Context, repo repository.ComplaintRepository, id string) (*domain.Complaint, error) {
	complaint, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapComplaintErr(err, id)
	}
	return complaint, nil
}

func mapComplaintErr(err error, id string) error {
	if isNotFound(err) {
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	return apperrors.MapError(err)
}

func generateTicketRef() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
