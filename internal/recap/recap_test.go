package recap

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dvloznov/barik-insights/internal/domain"
)

type fakeModels struct {
	text   string
	err    error
	model  string
	prompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.prompt = contents[0].Parts[0].Text
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func summary() domain.AnnualSummary {
	months := make([]domain.MonthBucket, 12)
	for i := range months {
		months[i] = domain.MonthBucket{Month: time.Month(i + 1)}
	}
	months[2].Stats.Rides = 30
	months[5].Stats.Rides = 12
	return domain.AnnualSummary{
		Year: 2024,
		Totals: domain.JourneyStats{
			Rides:         42,
			Spent:         decimal.RequireFromString("61.20"),
			Savings:       decimal.RequireFromString("8.50"),
			TravelMinutes: 515,
		},
		ActiveDays:    20,
		CalendarDays:  300,
		TopStations:   []domain.StationUsage{{Name: "ABANDO", Count: 18, TopOperator: "METRO BILBAO"}},
		TopOperators:  []domain.OperatorUsage{{Name: "METRO BILBAO", Rides: 40}},
		Months:        months,
		LongestStreak: &domain.Streak{Start: civil.Date{Year: 2024, Month: 3, Day: 4}, End: civil.Date{Year: 2024, Month: 3, Day: 8}, Days: 5},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(summary())
	assert.Contains(t, p, "Year: 2024")
	assert.Contains(t, p, "Rides: 42")
	assert.Contains(t, p, "Spent: 61,20 EUR")
	assert.Contains(t, p, "ABANDO (18 validations, METRO BILBAO)")
	assert.Contains(t, p, "Longest streak: 5 consecutive days (2024-03-04 to 2024-03-08)")
	assert.Contains(t, p, "Busiest month: March with 30 rides")
	assert.NotContains(t, p, "Busiest travel day")
}

func TestRecap(t *testing.T) {
	f := &fakeModels{text: "```\nUn gran año en metro.\n```"}
	g := NewGeneratorWith(f, "")

	text, err := g.Recap(context.Background(), summary())
	require.NoError(t, err)
	assert.Equal(t, "Un gran año en metro.", text)
	assert.Equal(t, DefaultModelName, f.model)
	assert.Contains(t, f.prompt, "Year: 2024")
}

func TestRecapErrors(t *testing.T) {
	_, err := NewGeneratorWith(&fakeModels{err: errors.New("quota")}, "m").Recap(context.Background(), summary())
	assert.ErrorContains(t, err, "quota")

	_, err = NewGeneratorWith(&fakeModels{text: "  "}, "m").Recap(context.Background(), summary())
	assert.ErrorContains(t, err, "empty response")
}
