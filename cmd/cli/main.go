package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/barik-insights/internal/app"
	"github.com/dvloznov/barik-insights/internal/config"
	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/gcs"
	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/pipeline"
)

const commandTimeout = 5 * time.Minute

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(log)
	case "insights":
		runInsights(log)
	case "journeys":
		runJourneys(log)
	case "years":
		runYears(log)
	case "summary":
		runSummary(log)
	case "path":
		runPath(log)
	case "upload":
		runUpload(log)
	case "ingest":
		runIngest(log)
	case "recap":
		runRecap(log)
	case "sync-notion":
		runSyncNotion(log)
	case "stored":
		runStored(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Barik Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract      Extract the transaction records of a statement")
	fmt.Println("  insights     Show fare usage and pass savings")
	fmt.Println("  journeys     List the journeys rebuilt from a statement")
	fmt.Println("  years        List the years present in a statement")
	fmt.Println("  summary      Show the annual summary of a year")
	fmt.Println("  path         Find the metro route between two stations")
	fmt.Println("  upload       Upload a statement to Cloud Storage")
	fmt.Println("  ingest       Process a statement and persist the results")
	fmt.Println("  recap        Write a narrative recap of a year with Gemini")
	fmt.Println("  sync-notion  Publish an annual summary to Notion")
	fmt.Println("  stored       Show summaries stored in BigQuery for a run")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nStatements are PDF files or JSON fragment files, local or gs:// URIs.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// setup loads the configuration and wires the requested collaborators. The
// returned context carries the logger and the command timeout.
func setup(log zerolog.Logger, configPath string, opts app.Options) (*app.App, context.Context, context.CancelFunc) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	ctx = logger.WithContext(ctx, a.Log)

	return a, ctx, func() {
		a.Close()
		cancel()
	}
}

// storageFor only connects Cloud Storage when the statement lives there.
func storageFor(source string) app.Options {
	return app.Options{Storage: gcs.IsURI(source)}
}

// process runs the local part of the pipeline: nothing is persisted, exported
// or narrated.
func process(ctx context.Context, a *app.App, source string) *pipeline.PipelineState {
	deps := pipeline.Deps{Annual: a.Annual}
	if a.Storage != nil {
		deps.Storage = a.Storage
	}

	state, err := pipeline.Run(ctx, source, deps)
	if err != nil {
		a.Log.Fatal().Err(err).Str("source", source).Msg("Processing failed")
	}
	return state
}

// pickYear returns the summary of year, or of the most recent year when 0.
func pickYear(log zerolog.Logger, state *pipeline.PipelineState, year int) domain.AnnualSummary {
	if year == 0 {
		years := state.Years()
		if len(years) == 0 {
			log.Fatal().Msg("Statement has no dated records")
		}
		year = years[0]
	}
	s, ok := state.Summary(year)
	if !ok {
		log.Fatal().Int("year", year).Ints("available", state.Years()).Msg("Year not present in statement")
	}
	return s
}

func requireFlag(fs *flag.FlagSet, name, value string) {
	if value == "" {
		fmt.Fprintf(os.Stderr, "Error: -%s is required\n\n", name)
		fs.Usage()
		os.Exit(2)
	}
}

func printJSON(log zerolog.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}
