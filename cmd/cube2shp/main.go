package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/tm2tools/cube2shp"
)

const logFile = "cube_to_shapefile.log"

func usageAndDie() {
	fmt.Println("Create shapefiles of a Cube network, roadway and transit.\n\n" +
		"Example usage:\n" +
		"    cube2shp <roadway.net>\n" +
		"    cube2shp <roadway.net> --linefile <transit.lin> [--by_operator] [--join_link_nntime] [--trn_stop_info <transit_stops.csv>]\n\n" +
		"All output is written to the current working directory.\n" +
		"The roadway network is network_nodes.shp and network_links.shp.")
	pflag.PrintDefaults()
	os.Exit(1)
}

func main() {
	lineFile := pflag.String("linefile", "", "Cube input transit line file")
	byOperator := pflag.Bool("by_operator", false, "Split transit lines by operator")
	joinLinkNNTime := pflag.Bool("join_link_nntime", false, "Join links based on NNTIME")
	stopInfo := pflag.String("trn_stop_info", "", "CSV with extra transit stop information")

	configPath := pflag.String("config", "", "YAML file overriding the runtpp path, projection and operator groups")
	sqlitePath := pflag.String("sqlite", "", "Also write transit features to this SQLite database")
	clipFeaturePath := pflag.String("clip_feature", "", "Only export transit lines touching the GeoJSON feature in this file")
	strict := pflag.Bool("strict", false, "Fail when lines reference unknown nodes, vehicle types or fare systems")
	assumeYes := pflag.BoolP("yes", "y", false, "Re-export the roadway network without asking")

	pflag.Usage = usageAndDie
	pflag.Parse()

	if pflag.NArg() != 1 {
		usageAndDie()
	}
	netFile := pflag.Arg(0)

	runID, closeLog, err := cube2shp.SetupLogging(logFile)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := cube2shp.LoadConfig(*configPath)
	if err != nil {
		die(closeLog, err)
	}

	var clipFeature string
	if *clipFeaturePath != "" {
		feature, err := os.ReadFile(*clipFeaturePath)
		if err != nil {
			die(closeLog, err)
		}
		clipFeature = string(feature)
	}

	opts := &cube2shp.ExportOpts{
		LineFile:       *lineFile,
		ByOperator:     *byOperator,
		JoinLinkNNTime: *joinLinkNNTime,
		StopInfoPath:   *stopInfo,
		SQLitePath:     *sqlitePath,
		ClipFeature:    clipFeature,
		Strict:         *strict,
		AssumeYes:      *assumeYes,
		Prompt:         os.Stdin,
		RunID:          runID,
		Config:         cfg,
	}
	summary, err := cube2shp.Export(context.Background(), netFile, opts)
	if err != nil {
		die(closeLog, err)
	}

	if len(summary.Issues) > 0 {
		log.Warn().Msg(fmt.Sprintf("%d validation issue(s), see %s", len(summary.Issues), logFile))
	}
	log.Info().Msg("All done")
}

func die(closeLog func(), err error) {
	log.Error().Err(err).Msg("Export failed")
	closeLog()
	os.Exit(1)
}
