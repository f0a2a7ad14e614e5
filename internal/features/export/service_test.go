package export

import (
	"bytes"
	"context"
	"testing"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/query"
	"go-dashboards/internal/features/widget"
	"go-dashboards/pkg/filters"
	"go-dashboards/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockDashboards struct {
	dashboard.DashboardService
	structure *dashboard.Structure
}

func (m *MockDashboards) GetStructure(ctx context.Context, key string, user *utils.UserClaims, token string) (*dashboard.Structure, error) {
	if m.structure == nil || key != m.structure.Dashboard.Key {
		return nil, dashboard.ErrNotFound
	}
	return m.structure, nil
}

type MockQueries struct {
	query.QueryService
	data map[string]*query.SectionData
}

func (m *MockQueries) SectionData(ctx context.Context, sectionID string, values filters.Values, user *utils.UserClaims, token string) (*query.SectionData, error) {
	return m.data[sectionID], nil
}

func TestExportDashboard(t *testing.T) {
	table := widget.Widget{
		ID: primitive.NewObjectID(), Key: "top", Title: "Top regions", WidgetType: widget.TypeTable, Active: true,
		Config: &widget.TableConfig{Columns: []widget.Column{{Field: "region", Label: "Region"}, {Field: "total"}}},
	}
	metric := widget.Widget{ID: primitive.NewObjectID(), Key: "revenue", WidgetType: widget.TypeMetricCard, Active: true}
	broken := widget.Widget{ID: primitive.NewObjectID(), Key: "broken", Title: "Broken", WidgetType: widget.TypeChartBar, Active: true}

	main := dashboard.SectionView{Section: dashboard.Section{ID: primitive.NewObjectID(), Key: "main", Title: "Overview"}, Widgets: []widget.Widget{table, metric}}
	other := dashboard.SectionView{Section: dashboard.Section{ID: primitive.NewObjectID(), Key: "ops"}, Widgets: []widget.Widget{broken}}

	svc := NewExportService(
		&MockDashboards{structure: &dashboard.Structure{Dashboard: dashboard.Dashboard{Key: "sales"}, Sections: []dashboard.SectionView{main, other}}},
		&MockQueries{data: map[string]*query.SectionData{
			main.ID.Hex(): {Widgets: map[string]query.WidgetResult{
				table.ID.Hex():  {Data: []any{map[string]any{"region": "south", "total": 5.0}}},
				metric.ID.Hex(): {Data: 42.0},
			}},
			other.ID.Hex(): {Widgets: map[string]query.WidgetResult{
				broken.ID.Hex(): {Error: "timeout"},
			}},
		}},
	)

	data, filename, err := svc.ExportDashboard(context.Background(), "sales", nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "ops"}, f.GetSheetList())

	get := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Top regions", get("Overview", "A1"))
	assert.Equal(t, "Region", get("Overview", "A2"))
	assert.Equal(t, "total", get("Overview", "B2"))
	assert.Equal(t, "south", get("Overview", "A3"))
	assert.Equal(t, "5", get("Overview", "B3"))
	assert.Equal(t, "revenue", get("Overview", "A5"))
	assert.Equal(t, "42", get("Overview", "A6"))
	assert.Equal(t, "error: timeout", get("ops", "A2"))
}

func TestExportDashboard_NotFound(t *testing.T) {
	svc := NewExportService(&MockDashboards{}, &MockQueries{})
	_, _, err := svc.ExportDashboard(context.Background(), "nope", nil, nil, "")
	assert.ErrorIs(t, err, dashboard.ErrNotFound)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	sec := func(key, title string) dashboard.SectionView {
		return dashboard.SectionView{Section: dashboard.Section{Key: key, Title: title}}
	}

	assert.Equal(t, "Sales - Q1", sheetName(sec("a", "Sales / Q1"), used))
	assert.Equal(t, "Sales - Q1 (2)", sheetName(sec("b", "Sales / Q1"), used))
	assert.Equal(t, "x", sheetName(sec("x", ""), used))

	long := sheetName(sec("l", "A very long section title that goes on"), used)
	assert.Len(t, []rune(long), maxSheetName)
}
