package core

import (
	"context"
	"fmt"

	"guardianpaws/pkg/domain"
)

// Dashboard returns the reports an actor sees on their home screen:
// reporters see their own, NGOs see pending work plus their assignments,
// and admins see everything.
func (s *Service) Dashboard(ctx context.Context, actor domain.Actor) ([]domain.RescueReport, error) {
	switch actor.Role {
	case domain.RoleReporter:
		return s.ListReportsByReporter(ctx, actor.ID), nil
	case domain.RoleNGO:
		return s.ListNGODashboard(ctx, actor.ID), nil
	case domain.RoleAdmin:
		return s.store.ListReports(), nil
	default:
		return nil, fmt.Errorf("%w: no dashboard for role %q", domain.ErrInvalidInput, actor.Role)
	}
}
