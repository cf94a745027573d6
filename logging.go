package cube2shp

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logTimeFormat = "01/02/2006 03:04:05 PM"

// SetupLogging sends Info and above to the console and everything to logFile,
// which is truncated. Every entry carries the run id. The returned func closes
// the log file.
func SetupLogging(logFile string) (runID string, closeFn func(), err error) {
	f, err := os.Create(logFile)
	if err != nil {
		return "", nil, err
	}

	console := zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: logTimeFormat}},
		Level:  zerolog.InfoLevel,
	}
	file := zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: logTimeFormat}}

	runID = uuid.NewString()
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(&console, file)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return runID, func() { _ = f.Close() }, nil
}
