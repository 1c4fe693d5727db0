package core

import (
	"context"
	"fmt"
	"strings"

	"guardianpaws/pkg/domain"
)

// RegisterInput carries a new account. Location only applies to NGOs.
type RegisterInput struct {
	Role     domain.Role
	Name     string
	Email    string
	Password string
	Location string
}

// Register creates a reporter or NGO account. Emails are unique within a
// role, compared case-insensitively.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Actor, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return domain.Actor{}, fmt.Errorf("%w: name and a valid email are required", domain.ErrInvalidInput)
	}

	var actor domain.Actor
	switch in.Role {
	case domain.RoleReporter:
		err := s.run(ctx, opRegisterReporter, func(ctx context.Context) (string, error) {
			var created domain.Reporter
			_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
				var err error
				created, err = tx.CreateReporter(domain.Reporter{Name: name, Email: email})
				return err
			})
			actor = created.Actor()
			return created.ID, err
		})
		if err != nil {
			return domain.Actor{}, err
		}
		return actor, nil
	case domain.RoleNGO:
		err := s.run(ctx, opRegisterNGO, func(ctx context.Context) (string, error) {
			var created domain.NGO
			_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
				var err error
				created, err = tx.CreateNGO(domain.NGO{Name: name, Email: email, Location: strings.TrimSpace(in.Location)})
				return err
			})
			actor = created.Actor()
			return created.ID, err
		})
		if err != nil {
			return domain.Actor{}, err
		}
		return actor, nil
	default:
		return domain.Actor{}, fmt.Errorf("%w: cannot register role %q", domain.ErrInvalidInput, in.Role)
	}
}

// Authenticate resolves an account by role and email, then hands the
// password to the configured CredentialVerifier.
func (s *Service) Authenticate(ctx context.Context, role domain.Role, email, password string) (domain.Actor, error) {
	var actor domain.Actor
	err := s.run(ctx, opAuthenticate, func(ctx context.Context) (string, error) {
		err := s.store.View(ctx, func(view TransactionView) error {
			switch role {
			case domain.RoleReporter:
				reporter, ok := view.FindReporterByEmail(email)
				if !ok {
					return domain.NotFoundError{Entity: domain.EntityReporter, ID: email}
				}
				actor = reporter.Actor()
			case domain.RoleNGO:
				ngo, ok := view.FindNGOByEmail(email)
				if !ok {
					return domain.NotFoundError{Entity: domain.EntityNGO, ID: email}
				}
				actor = ngo.Actor()
			default:
				return fmt.Errorf("%w: cannot log in as %q", domain.ErrInvalidInput, role)
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		return actor.ID, s.verifier.Verify(ctx, actor, password)
	})
	if err != nil {
		return domain.Actor{}, err
	}
	return actor, nil
}

// GetActor loads the current view of an account.
func (s *Service) GetActor(_ context.Context, role domain.Role, id string) (domain.Actor, error) {
	switch role {
	case domain.RoleReporter:
		if reporter, ok := s.store.GetReporter(id); ok {
			return reporter.Actor(), nil
		}
		return domain.Actor{}, domain.NotFoundError{Entity: domain.EntityReporter, ID: id}
	case domain.RoleNGO:
		if ngo, ok := s.store.GetNGO(id); ok {
			return ngo.Actor(), nil
		}
		return domain.Actor{}, domain.NotFoundError{Entity: domain.EntityNGO, ID: id}
	case domain.RoleAdmin:
		if admin := domain.AdminActor(); id == admin.ID {
			return admin, nil
		}
	}
	return domain.Actor{}, fmt.Errorf("%s %s: %w", role, id, domain.ErrNotFound)
}

// AwardPoints adds amount to a reporter's balance. An unknown reporter is
// logged and ignored.
func (s *Service) AwardPoints(ctx context.Context, reporterID string, amount int) error {
	return s.run(ctx, opAwardPoints, func(ctx context.Context) (string, error) {
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return s.awardPoints(tx, reporterID, amount)
		})
		return reporterID, err
	})
}

func (s *Service) awardPoints(tx Transaction, reporterID string, amount int) error {
	if _, ok := tx.FindReporter(reporterID); !ok {
		s.logger.Warn("skipping points award for unknown reporter", "reporter_id", reporterID, "amount", amount)
		return nil
	}
	_, err := tx.UpdateReporter(reporterID, func(r *domain.Reporter) error {
		r.Points += amount
		return nil
	})
	return err
}
