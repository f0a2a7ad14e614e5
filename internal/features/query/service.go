package query

import (
	"context"
	"errors"
	"fmt"
	"sync"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/internal/features/audit"
	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/widget"
	"go-dashboards/internal/logger"
	"go-dashboards/pkg/filters"
	"go-dashboards/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// widgetParallelism bounds concurrent widget queries within one section.
const widgetParallelism = 4

// Runner executes a dynamic query.
type Runner interface {
	Run(ctx context.Context, q *DynamicQuery, values filters.Values) (any, error)
}

type QueryService interface {
	CreateQuery(ctx context.Context, q *DynamicQuery) error
	GetQuery(ctx context.Context, id string) (*DynamicQuery, error)
	ListQueries(ctx context.Context) ([]DynamicQuery, error)
	UpdateQuery(ctx context.Context, id string, q *DynamicQuery) error
	DeleteQuery(ctx context.Context, id string) error
	RunQuery(ctx context.Context, id string, values filters.Values) (any, error)

	// SectionData runs every active widget of a section. Widget failures are
	// reported per widget; only access and lookup failures are returned.
	SectionData(ctx context.Context, sectionID string, values filters.Values, user *utils.UserClaims, token string) (*SectionData, error)
	WidgetData(ctx context.Context, widgetID string, values filters.Values, user *utils.UserClaims) (any, error)
}

type QueryServiceImpl struct {
	Repo          QueryRepository
	Runner        Runner
	Dashboards    dashboard.DashboardService
	WidgetService widget.WidgetService
	AuditService  audit.AuditService
	Logger        *zap.Logger
}

func NewQueryService(
	repo QueryRepository,
	executor *Executor,
	dashboards dashboard.DashboardService,
	widgetService widget.WidgetService,
	auditService audit.AuditService,
	log *zap.Logger,
) QueryService {
	return newQueryService(repo, executor, dashboards, widgetService, auditService, log)
}

func newQueryService(repo QueryRepository, runner Runner, dashboards dashboard.DashboardService, widgetService widget.WidgetService, auditService audit.AuditService, log *zap.Logger) *QueryServiceImpl {
	return &QueryServiceImpl{
		Repo:          repo,
		Runner:        runner,
		Dashboards:    dashboards,
		WidgetService: widgetService,
		AuditService:  auditService,
		Logger:        logger.OrNop(log),
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func (s *QueryServiceImpl) CreateQuery(ctx context.Context, q *DynamicQuery) error {
	if err := q.Validate(); err != nil {
		return err
	}
	q.ID = primitive.NilObjectID
	if err := s.Repo.Create(ctx, q); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "dynamic_queries", q.ID.Hex(), map[string]common_models.Change{
		"query": {New: q.Name},
	})
	return nil
}

func (s *QueryServiceImpl) GetQuery(ctx context.Context, id string) (*DynamicQuery, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, oid)
}

func (s *QueryServiceImpl) ListQueries(ctx context.Context) ([]DynamicQuery, error) {
	return s.Repo.List(ctx)
}

func (s *QueryServiceImpl) UpdateQuery(ctx context.Context, id string, q *DynamicQuery) error {
	existing, err := s.GetQuery(ctx, id)
	if err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	q.ID = existing.ID
	q.CreatedAt = existing.CreatedAt
	if err := s.Repo.Update(ctx, q); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "dynamic_queries", id, map[string]common_models.Change{
		"source": {Old: existing.Source, New: q.Source},
	})
	return nil
}

func (s *QueryServiceImpl) DeleteQuery(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, oid); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "dynamic_queries", id, nil)
	return nil
}

func (s *QueryServiceImpl) RunQuery(ctx context.Context, id string, values filters.Values) (any, error) {
	q, err := s.GetQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Runner.Run(ctx, q, values)
}

// queryCache shares query lookups between the widgets of one request.
type queryCache struct {
	mu      sync.Mutex
	repo    QueryRepository
	entries map[primitive.ObjectID]*DynamicQuery
}

func (c *queryCache) get(ctx context.Context, id primitive.ObjectID) (*DynamicQuery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.entries[id]; ok {
		return q, nil
	}
	q, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.entries[id] = q
	return q, nil
}

func (s *QueryServiceImpl) runWidget(ctx context.Context, w *widget.Widget, cache *queryCache, payload filters.Values) (any, error) {
	if w.DynamicQueryID == nil {
		return nil, ErrNoQuery
	}
	q, err := cache.get(ctx, *w.DynamicQueryID)
	if err != nil {
		return nil, err
	}
	return s.Runner.Run(ctx, q, payload)
}

func (s *QueryServiceImpl) SectionData(ctx context.Context, sectionID string, values filters.Values, user *utils.UserClaims, token string) (*SectionData, error) {
	d, sec, err := s.Dashboards.AuthorizeSection(ctx, sectionID, user, token)
	if err != nil {
		return nil, err
	}
	widgets, err := s.WidgetService.ListBySection(ctx, sec.ID)
	if err != nil {
		return nil, fmt.Errorf("load widgets: %w", err)
	}

	payload := filters.Payload(d.Filters, values)
	cache := &queryCache{repo: s.Repo, entries: map[primitive.ObjectID]*DynamicQuery{}}
	result := &SectionData{Widgets: make(map[string]WidgetResult, len(widgets))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(widgetParallelism)
	for i := range widgets {
		w := &widgets[i]
		if !w.Active {
			continue
		}
		g.Go(func() error {
			data, err := s.runWidget(gctx, w, cache, payload)
			entry := WidgetResult{Data: data}
			if err != nil {
				entry = WidgetResult{Error: err.Error()}
				if !errors.Is(err, ErrNoQuery) {
					s.Logger.Warn("widget query failed",
						zap.String(logger.FieldDashboardKey, d.Key),
						zap.String(logger.FieldSectionID, sectionID),
						zap.String(logger.FieldWidgetID, w.ID.Hex()),
						zap.Error(err))
				}
			}
			mu.Lock()
			result.Widgets[w.ID.Hex()] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

func (s *QueryServiceImpl) WidgetData(ctx context.Context, widgetID string, values filters.Values, user *utils.UserClaims) (any, error) {
	w, err := s.WidgetService.GetWidget(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	d, _, err := s.Dashboards.AuthorizeSection(ctx, w.SectionID.Hex(), user, "")
	if err != nil {
		return nil, err
	}
	cache := &queryCache{repo: s.Repo, entries: map[primitive.ObjectID]*DynamicQuery{}}
	return s.runWidget(ctx, w, cache, filters.Payload(d.Filters, values))
}
