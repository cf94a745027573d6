package cube2shp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrInvalidInput = errors.New("invalid input")

type validateOpts struct {
	strict   bool
	logLevel zerolog.Level
}

// validate reports references the export cannot resolve. The export falls
// back to defaults for all of them, so issues only fail the run when strict.
func validate(network *TransitNetwork, nodes NodeTable, opts validateOpts) ([]string, error) {
	v := &validator{opts: opts}

	log.Info().Msg("Validating")

	for _, line := range network.Lines {
		v.validateLine(line, nodes, network.PTSystem)
	}

	if len(v.issues) > 0 && opts.strict {
		return v.issues, ErrInvalidInput
	}
	return v.issues, nil
}

type validator struct {
	opts   validateOpts
	issues []string
}

func (v *validator) append(msg string, args ...any) {
	issue := fmt.Sprintf(msg, args...)
	log.WithLevel(v.opts.logLevel).Msg(issue)
	v.issues = append(v.issues, issue)
}

func (v *validator) validateLine(line *Line, nodes NodeTable, pt *PTSystem) {
	if len(line.Nodes) < 2 {
		v.append("line %s has %d node(s)", line.Name, len(line.Nodes))
	}

	for i, node := range line.Nodes {
		if _, ok := nodes[node.N()]; !ok {
			v.append("node %d (seq %d) of line %s is not in the roadway network", node.N(), i+1, line.Name)
		}
	}

	for _, key := range []string{"MODE", "VEHICLETYPE", "HEADWAY[1]", "HEADWAY[2]", "HEADWAY[3]", "HEADWAY[4]", "HEADWAY[5]"} {
		if _, ok := line.Attrs.Get(key); !ok {
			v.append("line %s has no %s", line.Name, key)
		}
	}

	if pt == nil {
		return
	}
	if vtype := line.Attrs.Int("VEHICLETYPE"); vtype != 0 {
		if _, ok := pt.VehicleTypes[vtype]; !ok {
			v.append("vehicle type %d of line %s is not defined", vtype, line.Name)
		}
	}
	if mode := line.Attrs.Int("MODE"); mode != 0 {
		if _, ok := pt.FareSystems[mode]; !ok {
			v.append("no fare system for mode %d of line %s", mode, line.Name)
		}
	}
}
