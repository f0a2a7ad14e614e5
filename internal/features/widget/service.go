package widget

import (
	"context"
	"errors"
	"fmt"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrSectionNotFound is returned when a widget is attached to an unknown section.
var ErrSectionNotFound = errors.New("section not found")

// SectionFinder reports whether a section exists.
type SectionFinder interface {
	SectionExists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type WidgetService interface {
	CreateWidget(ctx context.Context, sectionID string, w *Widget) error
	GetWidget(ctx context.Context, id string) (*Widget, error)
	UpdateWidget(ctx context.Context, id string, w *Widget) error
	DeleteWidget(ctx context.Context, id string) error
	ListBySection(ctx context.Context, sectionID primitive.ObjectID) ([]Widget, error)
	ListBySections(ctx context.Context, sectionIDs []primitive.ObjectID) ([]Widget, error)
	DeleteBySections(ctx context.Context, sectionIDs []primitive.ObjectID) error
}

type WidgetServiceImpl struct {
	Repo         WidgetRepository
	Sections     SectionFinder
	AuditService audit.AuditService
}

func NewWidgetService(repo WidgetRepository, sections SectionFinder, auditService audit.AuditService) WidgetService {
	return &WidgetServiceImpl{
		Repo:         repo,
		Sections:     sections,
		AuditService: auditService,
	}
}

func (s *WidgetServiceImpl) CreateWidget(ctx context.Context, sectionID string, w *Widget) error {
	oid, err := primitive.ObjectIDFromHex(sectionID)
	if err != nil {
		return ErrSectionNotFound
	}
	ok, err := s.Sections.SectionExists(ctx, oid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSectionNotFound
	}

	w.ID = primitive.NilObjectID
	w.SectionID = oid
	if err := w.Validate(); err != nil {
		return err
	}

	if err := s.Repo.Create(ctx, w); err != nil {
		return fmt.Errorf("create widget: %w", err)
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "widgets", w.ID.Hex(), map[string]common_models.Change{
		"widget": {New: w},
	})
	return nil
}

func (s *WidgetServiceImpl) GetWidget(ctx context.Context, id string) (*Widget, error) {
	return s.Repo.Get(ctx, id)
}

func (s *WidgetServiceImpl) UpdateWidget(ctx context.Context, id string, w *Widget) error {
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	w.ID = existing.ID
	w.SectionID = existing.SectionID
	w.CreatedAt = existing.CreatedAt
	if err := w.Validate(); err != nil {
		return err
	}

	if err := s.Repo.Update(ctx, id, w); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "widgets", id, map[string]common_models.Change{
		"widget": {Old: existing, New: w},
	})
	return nil
}

func (s *WidgetServiceImpl) DeleteWidget(ctx context.Context, id string) error {
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "widgets", id, map[string]common_models.Change{
		"widget": {Old: existing, New: "DELETED"},
	})
	return nil
}

func (s *WidgetServiceImpl) ListBySection(ctx context.Context, sectionID primitive.ObjectID) ([]Widget, error) {
	return s.Repo.ListBySections(ctx, []primitive.ObjectID{sectionID})
}

func (s *WidgetServiceImpl) ListBySections(ctx context.Context, sectionIDs []primitive.ObjectID) ([]Widget, error) {
	return s.Repo.ListBySections(ctx, sectionIDs)
}

func (s *WidgetServiceImpl) DeleteBySections(ctx context.Context, sectionIDs []primitive.ObjectID) error {
	return s.Repo.DeleteBySections(ctx, sectionIDs)
}
