package core

import (
	"context"

	"guardianpaws/pkg/domain"
)

// UpdateStatus moves a report through the lifecycle on behalf of actor.
// Accepting a Pending report claims it for the acting NGO; the first accept
// to commit wins and later ones fail with a TransitionError. Reaching
// Rescued awards the reporter PointsForRescue in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, reportID string, to domain.ReportStatus, actor domain.Actor) (domain.RescueReport, error) {
	return s.transition(ctx, opUpdateStatus, reportID, to, actor)
}

// CloseReport is the administrative move to Closed from any other state.
func (s *Service) CloseReport(ctx context.Context, reportID string) (domain.RescueReport, error) {
	return s.transition(ctx, opCloseReport, reportID, domain.StatusClosed, domain.AdminActor())
}

func (s *Service) transition(ctx context.Context, op, reportID string, to domain.ReportStatus, actor domain.Actor) (domain.RescueReport, error) {
	var updated domain.RescueReport
	err := s.run(ctx, op, func(ctx context.Context) (string, error) {
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			report, ok := tx.FindReport(reportID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityReport, ID: reportID}
			}
			if actor.Role == domain.RoleNGO {
				if _, ok := tx.FindNGO(actor.ID); !ok {
					return domain.NotFoundError{Entity: domain.EntityNGO, ID: actor.ID}
				}
			}
			t, err := domain.CheckTransition(report, to, actor)
			if err != nil {
				return err
			}
			updated, err = tx.UpdateReport(reportID, func(r *domain.RescueReport) error {
				r.Status = t.To
				if t.Assigns && r.AssignedNGOID == nil {
					ngoID := actor.ID
					r.AssignedNGOID = &ngoID
				}
				return nil
			})
			if err != nil {
				return err
			}
			if t.Reward > 0 {
				return s.awardPoints(tx, report.ReporterID, t.Reward)
			}
			return nil
		})
		return reportID, err
	})
	if err != nil {
		return domain.RescueReport{}, err
	}
	s.logger.Info("report status changed", "report_id", reportID, "status", updated.Status, "actor", actor.ID)
	return updated, nil
}
