package notionsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/logger"
)

// SyncResult counts the changes made by a sync.
type SyncResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
}

// SyncSummary publishes an annual summary to a Notion database: one page for
// the year and one per active month, keyed by the Period title. Existing
// pages are updated in place; pages of the same year that no longer have a
// row are archived. In dry-run mode nothing is written.
func SyncSummary(ctx context.Context, notionClient NotionService, notionDBID string, s domain.AnnualSummary, recap string, dryRun bool) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	rows := SummaryRows(s, recap)
	wanted := make(map[string]bool, len(rows))
	for _, r := range rows {
		wanted[r.Key] = true
	}

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return res, fmt.Errorf("SyncSummary: %w", err)
	}

	existing := make(map[string]string, len(pages))
	yearKey := strconv.Itoa(s.Year)
	for _, page := range pages {
		key := extractKey(page)
		if key == "" {
			continue
		}
		if _, dup := existing[key]; !dup {
			existing[key] = string(page.ID)
		}
		if belongsToYear(key, yearKey) && !wanted[key] {
			if dryRun {
				log.Info().Str("period", key).Msg("[DRY RUN] Would archive stale Notion page")
				res.Archived++
				continue
			}
			if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("period", key).Msg("Failed to archive stale Notion page")
				continue
			}
			res.Archived++
		}
	}

	for _, r := range rows {
		props := RowToNotionProperties(r)
		pageID, found := existing[r.Key]

		if dryRun {
			action := "create"
			if found {
				action = "update"
			}
			log.Info().Str("period", r.Key).Str("action", action).Msg("[DRY RUN] Would sync Notion page")
			if found {
				res.Updated++
			} else {
				res.Created++
			}
			continue
		}

		if found {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				return res, fmt.Errorf("SyncSummary: update %s: %w", r.Key, err)
			}
			res.Updated++
			continue
		}
		if _, err := notionClient.CreatePage(ctx, notionDBID, props); err != nil {
			return res, fmt.Errorf("SyncSummary: create %s: %w", r.Key, err)
		}
		res.Created++
	}

	log.Info().
		Int("year", s.Year).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Bool("dry_run", dryRun).
		Msg("Summary sync completed")
	return res, nil
}

func belongsToYear(key, year string) bool {
	return key == year || strings.HasPrefix(key, year+"-")
}

// queryAllNotionPages queries all pages from a Notion database, following
// pagination cursors.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
