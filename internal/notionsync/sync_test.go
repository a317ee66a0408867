package notionsync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/barik-insights/internal/domain"
)

// MockNotionService is an in-memory NotionService.
type MockNotionService struct {
	Pages     []notionapi.Page
	PageSize  int
	CreateErr error

	Created  []notionapi.Properties
	Updated  map[string]notionapi.Properties
	Archived []string
	Queries  int
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created = append(m.Created, properties)
	return &notionapi.Page{}, nil
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.Updated == nil {
		m.Updated = map[string]notionapi.Properties{}
	}
	m.Updated[pageID] = properties
	return &notionapi.Page{}, nil
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.Queries++
	size := m.PageSize
	if size == 0 {
		size = len(m.Pages) + 1
	}
	start := 0
	if req.StartCursor != "" {
		for i, p := range m.Pages {
			if string(p.ID) == string(req.StartCursor) {
				start = i
			}
		}
	}
	end := start + size
	if end >= len(m.Pages) {
		return &notionapi.DatabaseQueryResponse{Results: m.Pages[start:]}, nil
	}
	return &notionapi.DatabaseQueryResponse{
		Results:    m.Pages[start:end],
		HasMore:    true,
		NextCursor: notionapi.Cursor(m.Pages[end].ID),
	}, nil
}

func (m *MockNotionService) DeletePage(ctx context.Context, pageID string) error {
	m.Archived = append(m.Archived, pageID)
	return nil
}

func page(id, key string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			PropKey: &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: key}},
			},
		},
	}
}

func summary2024() domain.AnnualSummary {
	months := make([]domain.MonthBucket, 12)
	for i := range months {
		months[i] = domain.MonthBucket{Month: time.Month(i + 1)}
	}
	months[0] = domain.MonthBucket{
		Month:      time.January,
		Stats:      domain.JourneyStats{Rides: 4, Spent: decimal.RequireFromString("3.88"), TravelMinutes: 50},
		ActiveDays: 2,
		Operators:  map[string]int{"METRO BILBAO": 3, "BIZKAIBUS": 1},
	}
	months[2] = domain.MonthBucket{
		Month:      time.March,
		Stats:      domain.JourneyStats{Rides: 2, Spent: decimal.RequireFromString("2.00")},
		ActiveDays: 1,
		Operators:  map[string]int{"BIZKAIBUS": 1, "BILBOBUS": 1},
	}
	return domain.AnnualSummary{
		Year:         2024,
		Totals:       domain.JourneyStats{Rides: 6, Spent: decimal.RequireFromString("5.88"), TravelMinutes: 50},
		ActiveDays:   3,
		TopOperators: []domain.OperatorUsage{{Name: "METRO BILBAO", Rides: 3}},
		Months:       months,
	}
}

func TestSummaryRows(t *testing.T) {
	rows := SummaryRows(summary2024(), "recap")
	require.Len(t, rows, 3)

	assert.Equal(t, "2024", rows[0].Key)
	assert.Equal(t, KindYear, rows[0].Kind)
	assert.Equal(t, "METRO BILBAO", rows[0].TopOperator)
	assert.Equal(t, "recap", rows[0].Recap)

	assert.Equal(t, "2024-01", rows[1].Key)
	assert.Equal(t, "METRO BILBAO", rows[1].TopOperator)
	assert.Equal(t, "2024-03", rows[2].Key)
	assert.Equal(t, "BILBOBUS", rows[2].TopOperator)
	assert.Empty(t, rows[2].Recap)
}

func TestRowToNotionProperties(t *testing.T) {
	rows := SummaryRows(summary2024(), strings.Repeat("a", 2500))
	props := RowToNotionProperties(rows[0])

	assert.Equal(t, "2024", props[PropKey].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, float64(6), props[PropRides].(notionapi.NumberProperty).Number)
	assert.InDelta(t, 5.88, props[PropSpent].(notionapi.NumberProperty).Number, 1e-9)
	assert.Equal(t, KindYear, props[PropKind].(notionapi.SelectProperty).Select.Name)
	recap := props[PropRecap].(notionapi.RichTextProperty).RichText[0].Text.Content
	assert.Len(t, []rune(recap), maxRichText)

	monthProps := RowToNotionProperties(rows[1])
	_, hasRecap := monthProps[PropRecap]
	assert.False(t, hasRecap)
	start := monthProps[PropStart].(notionapi.DateProperty).Date.Start
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time(*start))
}

func TestSyncSummary(t *testing.T) {
	svc := &MockNotionService{
		PageSize: 2,
		Pages: []notionapi.Page{
			page("p-year", "2024"),
			page("p-feb", "2024-02"),
			page("p-jan", "2024-01"),
			page("p-2023", "2023-05"),
			page("p-blank", ""),
		},
	}

	res, err := SyncSummary(context.Background(), svc, "db", summary2024(), "", false)
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Updated: 2, Archived: 1}, res)
	assert.Equal(t, 3, svc.Queries)
	assert.Contains(t, svc.Updated, "p-year")
	assert.Contains(t, svc.Updated, "p-jan")
	assert.Equal(t, []string{"p-feb"}, svc.Archived)
	require.Len(t, svc.Created, 1)
	assert.Equal(t, "2024-03", svc.Created[0][PropKey].(notionapi.TitleProperty).Title[0].Text.Content)
}

func TestSyncSummaryDryRun(t *testing.T) {
	svc := &MockNotionService{Pages: []notionapi.Page{page("p-feb", "2024-02")}}

	res, err := SyncSummary(context.Background(), svc, "db", summary2024(), "", true)
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 3, Archived: 1}, res)
	assert.Empty(t, svc.Created)
	assert.Empty(t, svc.Updated)
	assert.Empty(t, svc.Archived)
}

func TestSyncSummaryCreateError(t *testing.T) {
	svc := &MockNotionService{CreateErr: errors.New("validation_error")}

	_, err := SyncSummary(context.Background(), svc, "db", summary2024(), "", false)
	assert.ErrorContains(t, err, "create 2024")
	assert.ErrorContains(t, err, "validation_error")
}
