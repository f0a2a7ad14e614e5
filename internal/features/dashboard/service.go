package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/internal/config"
	"go-dashboards/internal/features/audit"
	"go-dashboards/internal/features/widget"
	"go-dashboards/internal/logger"
	"go-dashboards/pkg/filters"
	"go-dashboards/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// InvitationChecker verifies that an invitation token opens a dashboard.
// Validate counts a use; Check does not.
type InvitationChecker interface {
	Validate(ctx context.Context, token string) (string, error)
	Check(ctx context.Context, token, dashboardKey string) error
}

type DashboardService interface {
	CreateDashboard(ctx context.Context, d *Dashboard, user *utils.UserClaims) error
	GetDashboard(ctx context.Context, key string, user *utils.UserClaims) (*Dashboard, error)
	ListDashboards(ctx context.Context, user *utils.UserClaims) ([]Dashboard, error)
	UpdateDashboard(ctx context.Context, key string, d *Dashboard, user *utils.UserClaims) error
	DeleteDashboard(ctx context.Context, key string, user *utils.UserClaims) error

	SetHome(ctx context.Context, key string, user *utils.UserClaims) error
	GetHome(ctx context.Context, user *utils.UserClaims) (*Dashboard, error)

	// GetStructure loads a dashboard with its active sections and widgets.
	// A non-empty invitation token grants read access to that dashboard.
	GetStructure(ctx context.Context, key string, user *utils.UserClaims, token string) (*Structure, error)
	// OpenStructure is GetStructure for a viewer entering the dashboard: an
	// invitation token is charged one use.
	OpenStructure(ctx context.Context, key string, user *utils.UserClaims, token string) (*Structure, error)

	CreateSection(ctx context.Context, key string, s *Section, user *utils.UserClaims) error
	UpdateSection(ctx context.Context, id string, s *Section, user *utils.UserClaims) error
	DeleteSection(ctx context.Context, id string, user *utils.UserClaims) error
	ListSections(ctx context.Context, key string, user *utils.UserClaims) ([]Section, error)

	// AuthorizeSection resolves a section and checks read access to its dashboard.
	AuthorizeSection(ctx context.Context, sectionID string, user *utils.UserClaims, token string) (*Dashboard, *Section, error)
}

type DashboardServiceImpl struct {
	DashboardRepo DashboardRepository
	SectionRepo   SectionRepository
	HomeRepo      HomeRepository
	WidgetService widget.WidgetService
	Invitations   InvitationChecker
	AuditService  audit.AuditService
	Config        *config.Config
	Logger        *zap.Logger
}

func NewDashboardService(
	dashboardRepo DashboardRepository,
	sectionRepo SectionRepository,
	homeRepo HomeRepository,
	widgetService widget.WidgetService,
	invitations InvitationChecker,
	auditService audit.AuditService,
	cfg *config.Config,
	log *zap.Logger,
) DashboardService {
	return &DashboardServiceImpl{
		DashboardRepo: dashboardRepo,
		SectionRepo:   sectionRepo,
		HomeRepo:      homeRepo,
		WidgetService: widgetService,
		Invitations:   invitations,
		AuditService:  auditService,
		Config:        cfg,
		Logger:        logger.OrNop(log),
	}
}

func isAdmin(user *utils.UserClaims) bool { return user.HasRole(utils.RoleAdmin) }

// canRead applies the visibility rules. An invitation token, when given,
// is the only thing checked.
func (s *DashboardServiceImpl) canRead(ctx context.Context, d *Dashboard, user *utils.UserClaims, token string) error {
	if token != "" {
		if !d.Active {
			return ErrNotFound
		}
		return s.Invitations.Check(ctx, token, d.Key)
	}
	if !d.Active && !isAdmin(user) {
		return ErrNotFound
	}
	switch d.Visibility {
	case VisibilityPublic:
		return nil
	case VisibilityAuthenticated:
		if user != nil {
			return nil
		}
	case VisibilityRestricted:
		if user != nil && (user.UserID == d.OwnerID || isAdmin(user)) {
			return nil
		}
	}
	return ErrAccessDenied
}

func canWrite(d *Dashboard, user *utils.UserClaims) error {
	if user != nil && (user.UserID == d.OwnerID || isAdmin(user)) {
		return nil
	}
	return ErrAccessDenied
}

func (s *DashboardServiceImpl) markHome(ctx context.Context, user *utils.UserClaims, dashboards []Dashboard) {
	if user == nil || len(dashboards) == 0 {
		return
	}
	home, err := s.HomeRepo.GetHome(ctx, user.UserID)
	if err != nil {
		s.Logger.Warn("home dashboard lookup failed", zap.String("user_id", user.UserID), zap.Error(err))
		return
	}
	for i := range dashboards {
		dashboards[i].IsHome = home != "" && dashboards[i].Key == home
	}
}

func (s *DashboardServiceImpl) CreateDashboard(ctx context.Context, d *Dashboard, user *utils.UserClaims) error {
	if user == nil {
		return ErrAccessDenied
	}
	if d.Key == "" {
		d.Key = utils.Slugify(d.Name)
	}
	if d.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalid)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.ID = primitive.NilObjectID
	d.OwnerID = user.UserID
	d.IsHome = false

	if err := s.DashboardRepo.Create(ctx, d); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "dashboards", d.Key, map[string]common_models.Change{
		"dashboard": {New: d},
	})
	return nil
}

func (s *DashboardServiceImpl) GetDashboard(ctx context.Context, key string, user *utils.UserClaims) (*Dashboard, error) {
	d, err := s.DashboardRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, d, user, ""); err != nil {
		return nil, err
	}
	list := []Dashboard{*d}
	s.markHome(ctx, user, list)
	return &list[0], nil
}

func (s *DashboardServiceImpl) ListDashboards(ctx context.Context, user *utils.UserClaims) ([]Dashboard, error) {
	all, err := s.DashboardRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]Dashboard, 0, len(all))
	for i := range all {
		if s.canRead(ctx, &all[i], user, "") == nil {
			visible = append(visible, all[i])
		}
	}
	s.markHome(ctx, user, visible)
	return visible, nil
}

func (s *DashboardServiceImpl) UpdateDashboard(ctx context.Context, key string, d *Dashboard, user *utils.UserClaims) error {
	existing, err := s.DashboardRepo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := canWrite(existing, user); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}

	d.ID = existing.ID
	d.Key = existing.Key
	d.OwnerID = existing.OwnerID
	d.CreatedAt = existing.CreatedAt

	if err := s.DashboardRepo.Update(ctx, key, d); err != nil {
		return err
	}
	changes := common_models.ChangeSet{}.
		Track("name", existing.Name, d.Name).
		Track("description", existing.Description, d.Description).
		Track("visibility", existing.Visibility, d.Visibility).
		Track("active", existing.Active, d.Active).
		Track("is_navigable", existing.IsNavigable, d.IsNavigable).
		Track("filters", existing.Filters, d.Filters).
		Track("auto_refresh", existing.AutoRefresh, d.AutoRefresh).
		Track("refresh_interval_seconds", existing.RefreshIntervalSeconds, d.RefreshIntervalSeconds)
	if !changes.Empty() {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "dashboards", key, changes)
	}
	return nil
}

func (s *DashboardServiceImpl) DeleteDashboard(ctx context.Context, key string, user *utils.UserClaims) error {
	existing, err := s.DashboardRepo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := canWrite(existing, user); err != nil {
		return err
	}

	sections, err := s.SectionRepo.ListByDashboard(ctx, existing.ID)
	if err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, len(sections))
	for i, sec := range sections {
		ids[i] = sec.ID
	}
	if err := s.WidgetService.DeleteBySections(ctx, ids); err != nil {
		return fmt.Errorf("delete widgets: %w", err)
	}
	if err := s.SectionRepo.DeleteMany(ctx, ids); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}
	if err := s.HomeRepo.ClearDashboard(ctx, key); err != nil {
		s.Logger.Warn("clearing home preferences failed", zap.String("dashboard_key", key), zap.Error(err))
	}
	if err := s.DashboardRepo.Delete(ctx, key); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "dashboards", key, map[string]common_models.Change{
		"dashboard": {Old: existing, New: "DELETED"},
	})
	return nil
}

func (s *DashboardServiceImpl) SetHome(ctx context.Context, key string, user *utils.UserClaims) error {
	if user == nil {
		return ErrAccessDenied
	}
	if _, err := s.GetDashboard(ctx, key, user); err != nil {
		return err
	}
	return s.HomeRepo.SetHome(ctx, user.UserID, key)
}

func (s *DashboardServiceImpl) GetHome(ctx context.Context, user *utils.UserClaims) (*Dashboard, error) {
	if user == nil {
		return nil, ErrAccessDenied
	}
	key, err := s.HomeRepo.GetHome(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrNotFound
	}
	return s.GetDashboard(ctx, key, user)
}

func (s *DashboardServiceImpl) GetStructure(ctx context.Context, key string, user *utils.UserClaims, token string) (*Structure, error) {
	return s.structure(ctx, key, user, token, false)
}

func (s *DashboardServiceImpl) OpenStructure(ctx context.Context, key string, user *utils.UserClaims, token string) (*Structure, error) {
	return s.structure(ctx, key, user, token, true)
}

func (s *DashboardServiceImpl) structure(ctx context.Context, key string, user *utils.UserClaims, token string, enter bool) (*Structure, error) {
	d, err := s.DashboardRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, d, user, token); err != nil {
		return nil, err
	}
	if enter && token != "" {
		if _, err := s.Invitations.Validate(ctx, token); err != nil {
			return nil, err
		}
	}
	if token == "" {
		list := []Dashboard{*d}
		s.markHome(ctx, user, list)
		d = &list[0]
	}

	sections, err := s.SectionRepo.ListByDashboard(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	views := flattenSections(sections)

	widgets, err := s.WidgetService.ListBySections(ctx, sectionIDs(views))
	if err != nil {
		return nil, fmt.Errorf("load widgets: %w", err)
	}
	attachWidgets(views, widgets)

	defs := d.Filters
	if defs == nil {
		defs = []filters.Definition{}
	}
	return &Structure{
		Dashboard:      *d,
		Sections:       views,
		Filters:        defs,
		RefreshSeconds: d.RefreshSeconds(s.Config.DefaultRefreshSeconds),
	}, nil
}

func (s *DashboardServiceImpl) writableDashboard(ctx context.Context, id primitive.ObjectID, user *utils.UserClaims) (*Dashboard, error) {
	d, err := s.DashboardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, canWrite(d, user)
}

func (s *DashboardServiceImpl) checkParent(ctx context.Context, sec *Section) error {
	if sec.ParentSectionID == nil {
		return nil
	}
	if *sec.ParentSectionID == sec.ID {
		return fmt.Errorf("%w: a section cannot be its own parent", ErrInvalid)
	}
	parent, err := s.SectionRepo.Get(ctx, *sec.ParentSectionID)
	if err != nil {
		return err
	}
	if parent.DashboardID != sec.DashboardID {
		return fmt.Errorf("%w: parent section belongs to another dashboard", ErrInvalid)
	}
	return nil
}

func (s *DashboardServiceImpl) CreateSection(ctx context.Context, key string, sec *Section, user *utils.UserClaims) error {
	d, err := s.DashboardRepo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := canWrite(d, user); err != nil {
		return err
	}
	if sec.Key == "" {
		sec.Key = utils.Slugify(sec.Title)
	}
	if sec.Key == "" {
		return fmt.Errorf("%w: section key is required", ErrInvalid)
	}

	sec.ID = primitive.NilObjectID
	sec.DashboardID = d.ID
	if err := s.checkParent(ctx, sec); err != nil {
		return err
	}
	if err := s.SectionRepo.Create(ctx, sec); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "sections", sec.ID.Hex(), map[string]common_models.Change{
		"section": {New: sec},
	})
	return nil
}

func (s *DashboardServiceImpl) UpdateSection(ctx context.Context, id string, sec *Section, user *utils.UserClaims) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrSectionNotFound
	}
	existing, err := s.SectionRepo.Get(ctx, oid)
	if err != nil {
		return err
	}
	if _, err := s.writableDashboard(ctx, existing.DashboardID, user); err != nil {
		return err
	}

	sec.ID = existing.ID
	sec.DashboardID = existing.DashboardID
	sec.CreatedAt = existing.CreatedAt
	if sec.Key == "" {
		sec.Key = existing.Key
	}
	if sec.ParentSectionID != nil {
		all, err := s.SectionRepo.ListByDashboard(ctx, existing.DashboardID)
		if err != nil {
			return err
		}
		for _, descendant := range subtree(all, existing.ID) {
			if descendant == *sec.ParentSectionID {
				return fmt.Errorf("%w: section cannot be moved under itself", ErrInvalid)
			}
		}
	}
	if err := s.checkParent(ctx, sec); err != nil {
		return err
	}

	if err := s.SectionRepo.Update(ctx, sec); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "sections", id, map[string]common_models.Change{
		"section": {Old: existing, New: sec},
	})
	return nil
}

// DeleteSection removes a section with its child sections and all their widgets.
func (s *DashboardServiceImpl) DeleteSection(ctx context.Context, id string, user *utils.UserClaims) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrSectionNotFound
	}
	existing, err := s.SectionRepo.Get(ctx, oid)
	if err != nil {
		return err
	}
	if _, err := s.writableDashboard(ctx, existing.DashboardID, user); err != nil {
		return err
	}

	all, err := s.SectionRepo.ListByDashboard(ctx, existing.DashboardID)
	if err != nil {
		return err
	}
	ids := subtree(all, existing.ID)
	if err := s.WidgetService.DeleteBySections(ctx, ids); err != nil {
		return fmt.Errorf("delete widgets: %w", err)
	}
	if err := s.SectionRepo.DeleteMany(ctx, ids); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "sections", id, map[string]common_models.Change{
		"section": {Old: existing, New: "DELETED"},
	})
	return nil
}

func (s *DashboardServiceImpl) ListSections(ctx context.Context, key string, user *utils.UserClaims) ([]Section, error) {
	d, err := s.DashboardRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, d, user, ""); err != nil {
		return nil, err
	}
	return s.SectionRepo.ListByDashboard(ctx, d.ID)
}

func (s *DashboardServiceImpl) AuthorizeSection(ctx context.Context, sectionID string, user *utils.UserClaims, token string) (*Dashboard, *Section, error) {
	oid, err := primitive.ObjectIDFromHex(sectionID)
	if err != nil {
		return nil, nil, ErrSectionNotFound
	}
	sec, err := s.SectionRepo.Get(ctx, oid)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.DashboardRepo.GetByID(ctx, sec.DashboardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrSectionNotFound
		}
		return nil, nil, err
	}
	if err := s.canRead(ctx, d, user, token); err != nil {
		return nil, nil, err
	}
	visible, err := s.sectionVisible(ctx, sec)
	if err != nil {
		return nil, nil, err
	}
	if !visible {
		return nil, nil, ErrSectionNotFound
	}
	return d, sec, nil
}

// sectionVisible reports whether sec is part of its dashboard's structure:
// active, and not hidden under an inactive parent.
func (s *DashboardServiceImpl) sectionVisible(ctx context.Context, sec *Section) (bool, error) {
	if !sec.Active {
		return false, nil
	}
	if sec.ParentSectionID == nil {
		return true, nil
	}
	sections, err := s.SectionRepo.ListByDashboard(ctx, sec.DashboardID)
	if err != nil {
		return false, fmt.Errorf("load sections: %w", err)
	}
	return slices.ContainsFunc(flattenSections(sections), func(v SectionView) bool { return v.ID == sec.ID }), nil
}
