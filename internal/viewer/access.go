// Package viewer runs a dashboard view: it loads the structure, gates and
// fetches section data, keeps the widget data store and drives auto refresh.
package viewer

import (
	"context"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/query"
	"go-dashboards/pkg/filters"
	"go-dashboards/pkg/utils"
)

// DataAccess is the backend a session reads from.
type DataAccess interface {
	GetDashboard(ctx context.Context, key, token string) (*dashboard.Structure, error)
	GetSectionData(ctx context.Context, sectionID string, values filters.Values, token string) (*query.SectionData, error)
	GetWidgetData(ctx context.Context, widgetID string, values filters.Values) (any, error)
}

// LocalAccess serves a session from the services of the same process, on
// behalf of User (nil for anonymous and invitation viewers).
type LocalAccess struct {
	Dashboards dashboard.DashboardService
	Queries    query.QueryService
	User       *utils.UserClaims
}

func NewLocalAccess(dashboards dashboard.DashboardService, queries query.QueryService, user *utils.UserClaims) *LocalAccess {
	return &LocalAccess{Dashboards: dashboards, Queries: queries, User: user}
}

func (a *LocalAccess) GetDashboard(ctx context.Context, key, token string) (*dashboard.Structure, error) {
	return a.Dashboards.OpenStructure(ctx, key, a.User, token)
}

func (a *LocalAccess) GetSectionData(ctx context.Context, sectionID string, values filters.Values, token string) (*query.SectionData, error) {
	return a.Queries.SectionData(ctx, sectionID, values, a.User, token)
}

func (a *LocalAccess) GetWidgetData(ctx context.Context, widgetID string, values filters.Values) (any, error) {
	return a.Queries.WidgetData(ctx, widgetID, values, a.User)
}
