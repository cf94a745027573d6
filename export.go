package cube2shp

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed export_network.job
var exportNetworkJob []byte

type ExportOpts struct {
	LineFile       string
	ByOperator     bool
	JoinLinkNNTime bool
	StopInfoPath   string

	// SQLitePath additionally writes the transit features to a database.
	SQLitePath string
	// ClipFeature is a GeoJSON object; lines without a node inside are skipped.
	ClipFeature string
	// Strict fails the export on validation issues.
	Strict bool

	// AssumeYes re-exports the roadway network without asking.
	AssumeYes bool
	Prompt    io.Reader
	PromptOut io.Writer

	OutDir string
	RunID  string
	Config *Config
	Runner ToolRunner
}

type ExportSummary struct {
	Lines   int
	Links   int
	Stops   int
	Clipped int
	Issues  []string
}

func (opts *ExportOpts) outDir() string {
	if opts.OutDir == "" {
		return "."
	}
	return opts.OutDir
}

func (opts *ExportOpts) config() *Config {
	if opts.Config == nil {
		return DefaultConfig()
	}
	return opts.Config
}

// Export writes the roadway node and link shapefiles for netPath and, when a
// line file is given, the transit shapefiles.
func Export(ctx context.Context, netPath string, opts *ExportOpts) (*ExportSummary, error) {
	if opts == nil {
		opts = &ExportOpts{}
	}
	if err := ExportRoadway(ctx, netPath, opts); err != nil {
		return nil, err
	}
	if opts.LineFile == "" {
		return &ExportSummary{}, nil
	}
	return ExportTransit(opts)
}

// ExportRoadway runs the Cube export script unless the existing shapefiles
// are newer than the network and the user opts out, then writes the projection.
func ExportRoadway(ctx context.Context, netPath string, opts *ExportOpts) error {
	if netPath == "" {
		panic("Missing netPath")
	}
	cfg := opts.config()
	nodePath := filepath.Join(opts.outDir(), NodeShapefile)
	linkPath := filepath.Join(opts.outDir(), LinkShapefile)

	fresh, err := outputsNewer(netPath, nodePath, linkPath)
	if err != nil {
		return err
	}
	doExport := true
	if fresh && !opts.AssumeYes {
		doExport = confirmReexport(opts)
	}

	if doExport {
		runner := opts.Runner
		if runner == nil {
			runner = &RuntppRunner{RuntppPath: cfg.RuntppPath}
		}

		script, cleanup, err := jobScript(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		absNet, err := filepath.Abs(netPath)
		if err != nil {
			return err
		}
		cmd := ToolCommand{
			Dir:    opts.outDir(),
			Script: script,
			Env: []string{
				"NET_INFILE=" + absNet,
				"NODE_OUTFILE=" + NodeShapefile,
				"LINK_OUTFILE=" + LinkShapefile,
			},
		}
		if err := runCubeScript(ctx, runner, cmd); err != nil {
			return err
		}
		log.Info().Msg(fmt.Sprintf("Wrote network node file to %s", nodePath))
		log.Info().Msg(fmt.Sprintf("Wrote network link file to %s", linkPath))
	} else {
		log.Info().Msg(fmt.Sprintf("Opted out of re-exporting roadway network file.  Using existing %s and %s", nodePath, linkPath))
	}

	if err := writeProjection(nodePath, cfg.Projection); err != nil {
		return err
	}
	return writeProjection(linkPath, cfg.Projection)
}

// outputsNewer reports whether both outputs exist and were modified after netPath.
func outputsNewer(netPath string, outputs ...string) (bool, error) {
	netInfo, err := os.Stat(netPath)
	if err != nil {
		return false, err
	}
	for _, out := range outputs {
		info, err := os.Stat(out)
		if err != nil {
			return false, nil
		}
		if !netInfo.ModTime().Before(info.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}

func confirmReexport(opts *ExportOpts) bool {
	if opts.Prompt == nil {
		return true
	}
	out := opts.PromptOut
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, "%s and %s exist with modification times after source network modification time.  Re-export? (y/n)\n",
		NodeShapefile, LinkShapefile)

	response, err := bufio.NewReader(opts.Prompt).ReadString('\n')
	if err != nil && response == "" {
		return true
	}
	response = strings.TrimSpace(response)
	return response != "n" && response != "N"
}

func jobScript(cfg *Config) (string, func(), error) {
	if cfg.JobScript != "" {
		return cfg.JobScript, func() {}, nil
	}
	f, err := os.CreateTemp("", "export_network*.job")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(exportNetworkJob); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

// ExportTransit reads the transit network and writes stops, links and lines
// for every line, grouped by operator when requested. It expects the node
// shapefile from ExportRoadway in the output directory.
func ExportTransit(opts *ExportOpts) (*ExportSummary, error) {
	if opts.LineFile == "" {
		panic("Missing LineFile")
	}
	cfg := opts.config()
	summary := &ExportSummary{}

	nodes, err := ReadNodeTable(filepath.Join(opts.outDir(), NodeShapefile))
	if err != nil {
		return nil, err
	}

	var stations map[int]string
	if opts.StopInfoPath != "" {
		stations, err = ReadStations(opts.StopInfoPath)
		if err != nil {
			return nil, err
		}
	}

	network, err := LoadTransitNetwork(opts.LineFile)
	if err != nil {
		return nil, err
	}

	validationLogLevel := zerolog.WarnLevel
	if opts.Strict {
		validationLogLevel = zerolog.ErrorLevel
	}
	summary.Issues, err = validate(network, nodes, validateOpts{strict: opts.Strict, logLevel: validationLogLevel})
	if err != nil {
		return summary, err
	}

	var clip *ClipArea
	if opts.ClipFeature != "" {
		clip, err = ParseClipArea(opts.ClipFeature)
		if err != nil {
			return nil, err
		}
		log.Info().Msg(fmt.Sprintf("Clipping transit lines (clip feature has %d points)", clip.NumPoints()))
	}

	classifier := NewClassifier(cfg.OperatorGroups, opts.ByOperator)

	shapefiles, err := NewShapefileSink(opts.outDir(), classifier.Groups(), cfg.Projection)
	if err != nil {
		return nil, err
	}
	sink := multiSink{shapefiles}
	defer func() {
		if sink != nil {
			_ = sink.Close()
		}
	}()
	if opts.SQLitePath != "" {
		db, err := NewSQLiteSink(opts.SQLitePath, RunMeta{
			RunID:          opts.RunID,
			LineFile:       opts.LineFile,
			ByOperator:     opts.ByOperator,
			JoinLinkNNTime: opts.JoinLinkNNTime,
		})
		if err != nil {
			return nil, err
		}
		sink = append(sink, db)
	}

	lookups := Lookups{Nodes: nodes, Stations: stations, PTSystem: network.PTSystem}
	deriveOpts := DeriveOpts{JoinLinkNNTime: opts.JoinLinkNNTime}
	total := len(network.Lines)

	for i, line := range network.Lines {
		if clip != nil && !clip.Keep(line, nodes) {
			log.Debug().Str("line", line.Name).Msg("Line is outside the clip feature")
			summary.Clipped++
			continue
		}

		opText := line.OperatorText()
		group := classifier.Classify(opText)
		log.Info().Msg(fmt.Sprintf("Adding line %4d/%4d %-25s operator %-40s to operator_file [%s]",
			i+1, total, line.Name, opText, group))

		features := DeriveLine(line, lookups, deriveOpts)
		if err := sink.WriteFeatures(group, features); err != nil {
			return nil, err
		}
		summary.Lines++
		summary.Links += len(features.Links)
		summary.Stops += len(features.Stops)
	}

	err = sink.Close()
	sink = nil
	if err != nil {
		return nil, err
	}

	log.Info().Msg(fmt.Sprintf("Wrote %d stops to %s", summary.Stops, fmt.Sprintf(trnStopsShapefile, "*")))
	log.Info().Msg(fmt.Sprintf("Wrote %d lines to %s", summary.Lines, fmt.Sprintf(trnLinesShapefile, "*")))
	log.Info().Msg(fmt.Sprintf("Wrote %d links to %s", summary.Links, fmt.Sprintf(trnLinksShapefile, "*")))
	if summary.Clipped > 0 {
		log.Info().Msg(fmt.Sprintf("Skipped %d lines outside the clip feature", summary.Clipped))
	}
	if opts.ByOperator {
		log.Debug().Strs("operators", classifier.Members(OtherGroup)).Msg("Operators written to " + OtherGroup)
	}
	return summary, nil
}
