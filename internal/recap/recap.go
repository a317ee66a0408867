// Package recap asks Gemini for a short narrative of an annual summary.
package recap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/money"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

const maxListed = 5

// ContentGenerator is the slice of the genai client used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator produces recaps with a Gemini model.
type Generator struct {
	models ContentGenerator
	model  string
}

// NewGenerator creates a genai client. Credentials come from the
// environment (GOOGLE_API_KEY or Vertex AI settings).
func NewGenerator(ctx context.Context, model string) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenerator: create genai client: %w", err)
	}
	return NewGeneratorWith(client.Models, model), nil
}

// NewGeneratorWith wraps an existing content generator.
func NewGeneratorWith(models ContentGenerator, model string) *Generator {
	if model == "" {
		model = DefaultModelName
	}
	return &Generator{models: models, model: model}
}

// Recap returns the narrative for s.
func (g *Generator) Recap(ctx context.Context, s domain.AnnualSummary) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(s)}},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Recap: generate content: %w", err)
	}
	text := cleanModelText(resp.Text())
	if text == "" {
		return "", errors.New("Recap: empty response from model")
	}
	return text, nil
}

// BuildPrompt renders the figures of s as model instructions.
func BuildPrompt(s domain.AnnualSummary) string {
	var b strings.Builder

	b.WriteString("You write a short, friendly year-in-review for a Bilbao public transport card holder.\n")
	b.WriteString("Write in Spanish, at most 150 words, second person, no Markdown, no invented figures.\n\n")

	fmt.Fprintf(&b, "Year: %d\n", s.Year)
	fmt.Fprintf(&b, "Rides: %d\n", s.Totals.Rides)
	fmt.Fprintf(&b, "Wallet recharges: %d\n", s.Totals.WalletRecharges)
	fmt.Fprintf(&b, "Pass purchases: %d\n", s.Totals.TitlePurchases)
	fmt.Fprintf(&b, "Spent: %s EUR\n", money.Format(s.Totals.Spent))
	fmt.Fprintf(&b, "Saved with passes: %s EUR\n", money.Format(s.Totals.Savings))
	fmt.Fprintf(&b, "Minutes travelling inside the metro: %d\n", s.Totals.TravelMinutes)
	fmt.Fprintf(&b, "Active days: %d of %d\n", s.ActiveDays, s.CalendarDays)

	if s.LongestStreak != nil {
		fmt.Fprintf(&b, "Longest streak: %d consecutive days (%s to %s)\n", s.LongestStreak.Days, s.LongestStreak.Start, s.LongestStreak.End)
	}
	if s.PeakTravelDay != nil {
		fmt.Fprintf(&b, "Busiest travel day: %s with %d minutes\n", s.PeakTravelDay.Date, s.PeakTravelDay.TravelMinutes)
	}

	if len(s.TopStations) > 0 {
		b.WriteString("Top stations:\n")
		for i, st := range s.TopStations {
			if i == maxListed {
				break
			}
			fmt.Fprintf(&b, "  - %s (%d validations, %s)\n", st.Name, st.Count, st.TopOperator)
		}
	}
	if len(s.TopOperators) > 0 {
		b.WriteString("Operators:\n")
		for i, op := range s.TopOperators {
			if i == maxListed {
				break
			}
			fmt.Fprintf(&b, "  - %s: %d rides\n", op.Name, op.Rides)
		}
	}

	busiest := -1
	for i, m := range s.Months {
		if m.Stats.Rides > 0 && (busiest < 0 || m.Stats.Rides > s.Months[busiest].Stats.Rides) {
			busiest = i
		}
	}
	if busiest >= 0 {
		fmt.Fprintf(&b, "Busiest month: %s with %d rides\n", s.Months[busiest].Month, s.Months[busiest].Stats.Rides)
	}

	b.WriteString("\nReturn ONLY the recap text.\n")
	return b.String()
}

func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
