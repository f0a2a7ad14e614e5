package widget

import (
	"context"
	"testing"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/internal/features/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockWidgetRepo struct {
	widgets map[string]*Widget
}

func newMockWidgetRepo() *MockWidgetRepo {
	return &MockWidgetRepo{widgets: map[string]*Widget{}}
}

func (m *MockWidgetRepo) Create(ctx context.Context, w *Widget) error {
	w.ID = primitive.NewObjectID()
	cp := *w
	m.widgets[w.ID.Hex()] = &cp
	return nil
}

func (m *MockWidgetRepo) Get(ctx context.Context, id string) (*Widget, error) {
	w, ok := m.widgets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MockWidgetRepo) Update(ctx context.Context, id string, w *Widget) error {
	if _, ok := m.widgets[id]; !ok {
		return ErrNotFound
	}
	cp := *w
	m.widgets[id] = &cp
	return nil
}

func (m *MockWidgetRepo) Delete(ctx context.Context, id string) error {
	delete(m.widgets, id)
	return nil
}

func (m *MockWidgetRepo) ListBySections(ctx context.Context, ids []primitive.ObjectID) ([]Widget, error) {
	var out []Widget
	for _, w := range m.widgets {
		for _, id := range ids {
			if w.SectionID == id {
				out = append(out, *w)
			}
		}
	}
	return out, nil
}

func (m *MockWidgetRepo) DeleteBySections(ctx context.Context, ids []primitive.ObjectID) error {
	return nil
}

type MockSections struct {
	known map[primitive.ObjectID]bool
}

func (m *MockSections) SectionExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return m.known[id], nil
}

type MockAudit struct {
	entries []common_models.AuditAction
}

func (m *MockAudit) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.entries = append(m.entries, action)
	return nil
}

func (m *MockAudit) ListLogs(ctx context.Context, q audit.ListQuery) ([]common_models.AuditLog, error) {
	return nil, nil
}

func TestCreateWidget(t *testing.T) {
	sectionID := primitive.NewObjectID()
	repo := newMockWidgetRepo()
	auditLog := &MockAudit{}
	svc := NewWidgetService(repo, &MockSections{known: map[primitive.ObjectID]bool{sectionID: true}}, auditLog)

	w := &Widget{Key: "sales", WidgetType: TypeChartBar}
	require.NoError(t, svc.CreateWidget(context.Background(), sectionID.Hex(), w))

	assert.Equal(t, sectionID, w.SectionID)
	assert.False(t, w.ID.IsZero())
	assert.Equal(t, []common_models.AuditAction{common_models.AuditActionCreate}, auditLog.entries)

	list, err := svc.ListBySection(context.Background(), sectionID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateWidget_Errors(t *testing.T) {
	sectionID := primitive.NewObjectID()
	svc := NewWidgetService(newMockWidgetRepo(), &MockSections{known: map[primitive.ObjectID]bool{sectionID: true}}, &MockAudit{})

	err := svc.CreateWidget(context.Background(), primitive.NewObjectID().Hex(), &Widget{Key: "k", WidgetType: TypeTable})
	assert.ErrorIs(t, err, ErrSectionNotFound)

	err = svc.CreateWidget(context.Background(), "not-hex", &Widget{Key: "k", WidgetType: TypeTable})
	assert.ErrorIs(t, err, ErrSectionNotFound)

	err = svc.CreateWidget(context.Background(), sectionID.Hex(), &Widget{Key: "k", WidgetType: "gauge"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestUpdateWidget_KeepsSection(t *testing.T) {
	sectionID := primitive.NewObjectID()
	repo := newMockWidgetRepo()
	svc := NewWidgetService(repo, &MockSections{known: map[primitive.ObjectID]bool{sectionID: true}}, &MockAudit{})

	w := &Widget{Key: "k", WidgetType: TypeTable}
	require.NoError(t, svc.CreateWidget(context.Background(), sectionID.Hex(), w))

	update := &Widget{Key: "k", Title: "Renamed", WidgetType: TypeTable, SectionID: primitive.NewObjectID()}
	require.NoError(t, svc.UpdateWidget(context.Background(), w.ID.Hex(), update))

	got, err := svc.GetWidget(context.Background(), w.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, sectionID, got.SectionID)

	assert.ErrorIs(t, svc.UpdateWidget(context.Background(), primitive.NewObjectID().Hex(), update), ErrNotFound)
}
