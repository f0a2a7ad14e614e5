package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/internal/features/audit"
	"go-dashboards/pkg/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrDashboardNotFound is returned when inviting to an unknown dashboard.
var ErrDashboardNotFound = errors.New("dashboard not found")

// ErrWrongDashboard is returned when a valid token is used for another dashboard.
var ErrWrongDashboard = errors.New("invitation does not grant access to this dashboard")

// DashboardFinder reports whether a dashboard key exists.
type DashboardFinder interface {
	DashboardExists(ctx context.Context, key string) (bool, error)
}

type InvitationService interface {
	Create(ctx context.Context, dashboardKey string, inv *Invitation) error
	Get(ctx context.Context, id string) (*View, error)
	ListByDashboard(ctx context.Context, dashboardKey string) ([]View, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*View, error)
	Revoke(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// Validate counts a use and returns the dashboard key the token opens.
	Validate(ctx context.Context, token string) (string, error)
	// Resolve returns the dashboard key a usable token opens without counting a use.
	Resolve(ctx context.Context, token string) (string, error)
	// Check verifies the token opens dashboardKey without counting a use.
	Check(ctx context.Context, token, dashboardKey string) error
}

type InvitationServiceImpl struct {
	Repo         InvitationRepository
	Dashboards   DashboardFinder
	AuditService audit.AuditService
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewInvitationService(repo InvitationRepository, dashboards DashboardFinder, auditService audit.AuditService, logger *zap.Logger) InvitationService {
	return &InvitationServiceImpl{
		Repo:         repo,
		Dashboards:   dashboards,
		AuditService: auditService,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (s *InvitationServiceImpl) view(inv Invitation) View {
	return View{Invitation: inv, Status: inv.Status(s.Now())}
}

func (s *InvitationServiceImpl) Create(ctx context.Context, dashboardKey string, inv *Invitation) error {
	ok, err := s.Dashboards.DashboardExists(ctx, dashboardKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDashboardNotFound
	}
	if inv.MaxUses != nil && *inv.MaxUses < 1 {
		return errors.New("max_uses must be at least 1")
	}

	inv.ID = primitive.NilObjectID
	inv.Token = uuid.NewString()
	inv.DashboardKey = dashboardKey
	inv.UsesCount = 0
	inv.Revoked = false
	if claims := utils.ClaimsFromContext(ctx); claims != nil {
		inv.CreatedBy = claims.UserID
	}

	if err := s.Repo.Create(ctx, inv); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionInvitation, "invitations", inv.ID.Hex(), map[string]common_models.Change{
		"dashboard_key": {New: dashboardKey},
	})
	return nil
}

func (s *InvitationServiceImpl) Get(ctx context.Context, id string) (*View, error) {
	inv, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*inv)
	return &v, nil
}

func (s *InvitationServiceImpl) ListByDashboard(ctx context.Context, dashboardKey string) ([]View, error) {
	invitations, err := s.Repo.ListByDashboard(ctx, dashboardKey)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(invitations))
	for _, inv := range invitations {
		views = append(views, s.view(inv))
	}
	return views, nil
}

func (s *InvitationServiceImpl) Update(ctx context.Context, id string, req UpdateRequest) (*View, error) {
	inv, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *inv

	if req.Name != nil {
		inv.Name = *req.Name
	}
	if req.ClearExpiry {
		inv.ExpiresAt = nil
	} else if req.ExpiresAt != nil {
		inv.ExpiresAt = req.ExpiresAt
	}
	if req.ClearMaxUses {
		inv.MaxUses = nil
	} else if req.MaxUses != nil {
		if *req.MaxUses < 1 {
			return nil, errors.New("max_uses must be at least 1")
		}
		inv.MaxUses = req.MaxUses
	}

	if err := s.Repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "invitations", id, map[string]common_models.Change{
		"invitation": {Old: old, New: *inv},
	})
	v := s.view(*inv)
	return &v, nil
}

func (s *InvitationServiceImpl) Revoke(ctx context.Context, id string) error {
	inv, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Revoked {
		return nil
	}
	inv.Revoked = true
	if err := s.Repo.Update(ctx, inv); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "invitations", id, map[string]common_models.Change{
		"revoked": {Old: false, New: true},
	})
	return nil
}

func (s *InvitationServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "invitations", id, nil)
	return nil
}

func (s *InvitationServiceImpl) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	now := s.Now()

	inv, err := s.Repo.Consume(ctx, token, now)
	if err == nil {
		return inv.DashboardKey, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	// Nothing consumable: report why.
	inv, err = s.Repo.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	status := inv.Status(now)
	if status == StatusValid {
		// Lost a race for the last use.
		status = StatusMaxUsesReached
	}
	if s.Logger != nil {
		s.Logger.Info("invitation rejected",
			zap.String("dashboard_key", inv.DashboardKey),
			zap.String("status", string(status)))
	}
	return "", &InvalidError{Status: status}
}

func (s *InvitationServiceImpl) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	inv, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if status := inv.Status(s.Now()); status != StatusValid {
		return "", &InvalidError{Status: status}
	}
	return inv.DashboardKey, nil
}

func (s *InvitationServiceImpl) Check(ctx context.Context, token, dashboardKey string) error {
	inv, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv.DashboardKey != dashboardKey {
		return ErrWrongDashboard
	}
	// Sessions admitted by Validate keep reading after the last use was
	// counted, so only revocation and expiry close them.
	switch status := inv.Status(s.Now()); status {
	case StatusRevoked, StatusExpired:
		return &InvalidError{Status: status}
	}
	return nil
}
