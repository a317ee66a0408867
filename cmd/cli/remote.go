package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/dvloznov/barik-insights/internal/app"
	"github.com/dvloznov/barik-insights/internal/gcs"
	infra "github.com/dvloznov/barik-insights/internal/infra/bigquery"
	"github.com/dvloznov/barik-insights/internal/notionsync"
	"github.com/dvloznov/barik-insights/internal/pipeline"
	"github.com/dvloznov/barik-insights/internal/report"
)

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local statement file")
	bucketName := fs.String("bucket", "", "GCS bucket name (defaults to the configured bucket)")
	objectName := fs.String("object", "", "GCS object name (defaults to uploads/<filename>)")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *filePath)

	info, err := os.Stat(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read statement file")
	}

	a, ctx, done := setup(log, *configPath, app.Options{Storage: true})
	defer done()

	if *bucketName == "" {
		*bucketName = a.Config.GCSBucket
	}
	if *bucketName == "" || a.Storage == nil {
		log.Fatal().Msg("Usage: cli upload -file PATH [-bucket NAME]; no bucket configured")
	}
	if *objectName == "" {
		*objectName = path.Join("uploads", filepath.Base(*filePath))
	}

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("size", humanize.Bytes(uint64(info.Size()))).
		Msg("Uploading statement to GCS")

	if err := a.Storage.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s (%s) to %s\n", *filePath, humanize.Bytes(uint64(info.Size())), gcs.URI(*bucketName, *objectName))
}

func runIngest(log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	source := fs.String("source", "", "Statement path or gs:// URI")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "source", *source)

	a, ctx, done := setup(log, *configPath, app.Remote)
	defer done()

	log.Info().Str("source", *source).Msg("Starting ingestion")

	started := time.Now()
	state, err := pipeline.Run(ctx, *source, a.PipelineDeps())
	if err != nil {
		if errors.Is(err, pipeline.ErrNoRecords) {
			log.Fatal().Str("source", *source).Msg("Statement contains no records")
		}
		log.Fatal().Err(err).Str("run_id", state.RunID).Msg("Ingestion failed")
	}

	fmt.Printf("Run %s completed in %s\n", state.RunID, time.Since(started).Round(time.Millisecond))
	fmt.Printf("  %s records, %s journeys\n", report.Count(len(state.Records)), report.Count(len(state.Journeys)))
	for _, s := range state.Summaries {
		fmt.Printf("  %d: %s rides, %s", s.Year, report.Count(s.Totals.Rides), report.Euros(s.Totals.Spent))
		if uri, ok := state.Exports[fmt.Sprintf("summary-%d", s.Year)]; ok {
			fmt.Printf(", exported to %s", uri)
		}
		fmt.Println()
		if text, ok := state.Recaps[s.Year]; ok {
			fmt.Printf("\n%s\n\n", text)
		}
	}
	if a.Repo == nil {
		fmt.Println("BigQuery is not configured; results were not persisted.")
	}
}

func runRecap(log zerolog.Logger) {
	fs := flag.NewFlagSet("recap", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	year := fs.Int("year", 0, "Year to narrate (defaults to the most recent)")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	opts := storageFor(*file)
	opts.Recap = true
	a, ctx, done := setup(log, *configPath, opts)
	defer done()

	if a.Recapper == nil {
		log.Fatal().Msg("Recaps are disabled; set BARIK_RECAP=true and GEMINI_API_KEY")
	}

	state := process(ctx, a, *file)
	s := pickYear(log, state, *year)

	text, err := a.Recapper.Recap(ctx, s)
	if err != nil {
		log.Fatal().Err(err).Int("year", s.Year).Msg("Recap failed")
	}
	fmt.Println(text)
}

func runSyncNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	year := fs.Int("year", 0, "Year to publish (defaults to the most recent)")
	dryRun := fs.Bool("dry-run", false, "Preview changes without writing to Notion")
	withRecap := fs.Bool("recap", false, "Attach a Gemini recap to the year page")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	opts := storageFor(*file)
	opts.Notion = true
	opts.Recap = *withRecap
	a, ctx, done := setup(log, *configPath, opts)
	defer done()

	if a.Notion == nil {
		log.Fatal().Msg("Notion is not configured; set BARIK_NOTION_TOKEN and BARIK_NOTION_DATABASE_ID")
	}

	state := process(ctx, a, *file)
	s := pickYear(log, state, *year)

	recapText := ""
	if a.Recapper != nil {
		var err error
		if recapText, err = a.Recapper.Recap(ctx, s); err != nil {
			log.Warn().Err(err).Msg("Recap failed, syncing without it")
		}
	}

	res, err := notionsync.SyncSummary(ctx, a.Notion, a.Config.NotionDatabaseID, s, recapText, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	prefix := ""
	if *dryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Printf("%sYear %d: %d created, %d updated, %d archived\n", prefix, s.Year, res.Created, res.Updated, res.Archived)
}

func runStored(log zerolog.Logger) {
	fs := flag.NewFlagSet("stored", flag.ExitOnError)
	runID := fs.String("run-id", "", "Run ID printed by ingest")
	year := fs.Int("year", 0, "Show the full summary of this year")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "run-id", *runID)

	a, ctx, done := setup(log, *configPath, app.Options{BigQuery: true})
	defer done()

	if a.Repo == nil {
		log.Fatal().Msg("BigQuery is not configured; set BARIK_BIGQUERY_PROJECT")
	}

	if *year == 0 {
		years, err := a.Repo.ListSummaryYears(ctx, *runID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list stored years")
		}
		if len(years) == 0 {
			fmt.Printf("No summaries stored for run %s\n", *runID)
			return
		}
		for _, y := range years {
			fmt.Println(y)
		}
		return
	}

	row, err := a.Repo.GetSummary(ctx, *runID, *year)
	if errors.Is(err, infra.ErrNotFound) {
		log.Fatal().Str("run_id", *runID).Int("year", *year).Msg("Summary not found")
	}
	if err != nil {
		log.Fatal().Err(err).Int("year", *year).Msg("Failed to read stored summary")
	}
	s, err := row.Summary()
	if err != nil {
		log.Fatal().Err(err).Msg("Stored summary is unreadable")
	}

	if *asJSON {
		printJSON(log, s)
		return
	}
	fmt.Printf("Stored %s\n\n", humanize.Time(row.CreatedTS))
	if err := report.WriteSummary(os.Stdout, s, ""); err != nil {
		log.Fatal().Err(err).Msg("Failed to print summary")
	}
}
