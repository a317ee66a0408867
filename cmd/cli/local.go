package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"

	"github.com/dvloznov/barik-insights/internal/app"
	"github.com/dvloznov/barik-insights/internal/fares"
	"github.com/dvloznov/barik-insights/internal/report"
	"github.com/dvloznov/barik-insights/internal/transit"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func runExtract(log zerolog.Logger) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	dump := fs.Bool("dump", false, "Dump the records and extraction stats in Go syntax")
	asJSON := fs.Bool("json", false, "Print the records as JSON")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	a, ctx, done := setup(log, *configPath, storageFor(*file))
	defer done()

	state := process(ctx, a, *file)
	switch {
	case *dump:
		dumper.Fdump(os.Stdout, state.Stats, state.Report, state.Records)
	case *asJSON:
		printJSON(log, state.Records)
	default:
		if err := report.WriteRecords(os.Stdout, state.Records); err != nil {
			log.Fatal().Err(err).Msg("Failed to print records")
		}
		fmt.Printf("\n%d records from %d pages\n", len(state.Records), len(state.Pages))
	}
}

func runInsights(log zerolog.Logger) {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	asJSON := fs.Bool("json", false, "Print the insight of every record as JSON")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	a, ctx, done := setup(log, *configPath, storageFor(*file))
	defer done()

	state := process(ctx, a, *file)
	if *asJSON {
		printJSON(log, state.Insights)
		return
	}
	if err := report.WriteInsights(os.Stdout, fares.Summarize(state.Insights)); err != nil {
		log.Fatal().Err(err).Msg("Failed to print insights")
	}
}

func runJourneys(log zerolog.Logger) {
	fs := flag.NewFlagSet("journeys", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	year := fs.Int("year", 0, "Only journeys starting in this year")
	asJSON := fs.Bool("json", false, "Print the journeys as JSON")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	a, ctx, done := setup(log, *configPath, storageFor(*file))
	defer done()

	state := process(ctx, a, *file)
	js := state.Journeys
	if *year != 0 {
		js = js[:0:0]
		for _, j := range state.Journeys {
			if j.StartTime().Year() == *year {
				js = append(js, j)
			}
		}
	}

	if *asJSON {
		printJSON(log, js)
		return
	}
	if err := report.WriteJourneys(os.Stdout, js, state.Insights); err != nil {
		log.Fatal().Err(err).Msg("Failed to print journeys")
	}
}

func runYears(log zerolog.Logger) {
	fs := flag.NewFlagSet("years", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	a, ctx, done := setup(log, *configPath, storageFor(*file))
	defer done()

	state := process(ctx, a, *file)
	for _, s := range state.Summaries {
		fmt.Printf("%d\t%s rides\t%s\n", s.Year, report.Count(s.Totals.Rides), report.Euros(s.Totals.Spent))
	}
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF or fragments file (path or gs:// URI)")
	year := fs.Int("year", 0, "Year to summarise (defaults to the most recent)")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "file", *file)

	a, ctx, done := setup(log, *configPath, storageFor(*file))
	defer done()

	state := process(ctx, a, *file)
	s := pickYear(log, state, *year)

	if *asJSON {
		printJSON(log, s)
		return
	}
	if err := report.WriteSummary(os.Stdout, s, ""); err != nil {
		log.Fatal().Err(err).Msg("Failed to print summary")
	}
}

func runPath(log zerolog.Logger) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	from := fs.String("from", "", "Origin station code or name")
	to := fs.String("to", "", "Destination station code or name")
	configPath := fs.String("config", "", "Path to barik.yaml")
	fs.Parse(os.Args[2:])
	requireFlag(fs, "from", *from)
	requireFlag(fs, "to", *to)

	a, _, done := setup(log, *configPath, app.Options{})
	defer done()

	network := a.Annual.Network
	origin, ok := lookupStation(network, *from)
	if !ok {
		log.Fatal().Str("station", *from).Msg("Unknown station")
	}
	dest, ok := lookupStation(network, *to)
	if !ok {
		log.Fatal().Str("station", *to).Msg("Unknown station")
	}

	path := network.Graph.FindPath(origin.Code, dest.Code)
	if err := report.WritePath(os.Stdout, network.Graph.Names(path)); err != nil {
		log.Fatal().Err(err).Msg("Failed to print path")
	}
}

func lookupStation(network *transit.Network, label string) (transit.Station, bool) {
	if s, ok := network.Graph.Station(strings.ToUpper(label)); ok {
		return s, true
	}
	return network.Stations.Resolve(label)
}
