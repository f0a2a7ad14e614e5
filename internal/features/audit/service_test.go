package audit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type MockAuditRepo struct {
	created []common_models.AuditLog
	err     error

	listed ListQuery
}

func (m *MockAuditRepo) Create(ctx context.Context, log common_models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, log)
	return nil
}

func (m *MockAuditRepo) List(ctx context.Context, q ListQuery) ([]common_models.AuditLog, error) {
	m.listed = q
	return m.created, nil
}

func TestLogChange_ActorFromContext(t *testing.T) {
	repo := &MockAuditRepo{}
	svc := NewAuditService(repo, nil)

	ctx := utils.WithClaims(context.Background(), &utils.UserClaims{UserID: "u-1"})
	err := svc.LogChange(ctx, common_models.AuditActionCreate, "dashboards", "sales", map[string]common_models.Change{
		"dashboard": {New: "sales"},
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "u-1", repo.created[0].ActorID)
	assert.Equal(t, "dashboards", repo.created[0].Module)
	assert.False(t, repo.created[0].ID.IsZero())
}

func TestLogChange_SystemActor(t *testing.T) {
	repo := &MockAuditRepo{}
	svc := NewAuditService(repo, nil)

	require.NoError(t, svc.LogChange(context.Background(), common_models.AuditActionDelete, "widgets", "w1", nil))
	assert.Equal(t, "system", repo.created[0].ActorID)
}

func TestLogChange_RepoError(t *testing.T) {
	svc := NewAuditService(&MockAuditRepo{err: errors.New("down")}, nil)
	assert.Error(t, svc.LogChange(context.Background(), common_models.AuditActionUpdate, "widgets", "w1", nil))
}

func TestListLogs_Normalizes(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int64
		wantPage    int64
		wantLimit   int64
	}{
		{"as given", 3, 20, 3, 20},
		{"defaults", 0, 0, 1, defaultLimit},
		{"capped", 2, 1000, 2, maxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockAuditRepo{}
			svc := NewAuditService(repo, nil)

			_, err := svc.ListLogs(context.Background(), ListQuery{Page: tt.page, Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, repo.listed.Page)
			assert.Equal(t, tt.wantLimit, repo.listed.Limit)
		})
	}
}

func TestListQuery_Filter(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{}, ListQuery{}.filter())

	f := ListQuery{Module: "dashboards", RecordID: "sales", Action: common_models.AuditActionDelete, Since: since}.filter()
	assert.Equal(t, bson.M{
		"module":    "dashboards",
		"record_id": "sales",
		"action":    common_models.AuditActionDelete,
		"timestamp": bson.M{"$gte": since},
	}, f)
}

func TestListLogsHandler(t *testing.T) {
	repo := &MockAuditRepo{}
	ctrl := NewAuditController(NewAuditService(repo, nil))

	app := fiber.New()
	app.Get("/logs", ctrl.ListLogs)
	app.Get("/dashboards/:key/history", ctrl.HistoryFor("dashboards", "key"))

	resp, err := app.Test(httptest.NewRequest("GET", "/logs?module=widgets&since=2024-05-01T00:00:00Z&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "widgets", repo.listed.Module)
	assert.Equal(t, int64(5), repo.listed.Limit)
	assert.Equal(t, 2024, repo.listed.Since.Year())

	resp, err = app.Test(httptest.NewRequest("GET", "/logs?until=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/dashboards/sales/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "dashboards", repo.listed.Module)
	assert.Equal(t, "sales", repo.listed.RecordID)
}
