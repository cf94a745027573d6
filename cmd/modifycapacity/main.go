package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/tm2tools/cube2shp"
)

// Writes vehicle type (transit capacity) information from an Excel workbook
// to the transit line file.

const logFile = "modify_transit_capacity.log"

func main() {
	defaults := cube2shp.DefaultCapacityOpts(os.Getenv("USERNAME"))

	lineFile := pflag.String("linefile", defaults.LineFile, "Cube transit line file to patch")
	workbook := pflag.String("workbook", defaults.Workbook, "Workbook with Line_name and Vehicle Type columns")
	sheet := pflag.String("sheet", defaults.Sheet, "Workbook sheet to read")
	outDir := pflag.String("out", defaults.OutDir, "Directory to write transitLines.lin to")
	pflag.Parse()

	_, closeLog, err := cube2shp.SetupLogging(logFile)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	defer closeLog()

	summary, err := cube2shp.ModifyCapacity(cube2shp.CapacityOpts{
		LineFile: *lineFile,
		Workbook: *workbook,
		Sheet:    *sheet,
		OutDir:   *outDir,
	})
	if err != nil {
		log.Error().Err(err).Msg("Modifying transit capacity failed")
		closeLog()
		os.Exit(1)
	}

	log.Info().Msg(fmt.Sprintf("All done, %d of %d lines matched", summary.Matched, summary.Lines))
}
