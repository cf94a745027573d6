package cube2shp

import (
	"errors"
	"fmt"
	"os"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/rs/zerolog/log"
)

var sqlitePragmas = map[string]string{
	"synchronous": "OFF",
}

const sqliteSchema = `
CREATE TABLE runs (run_id TEXT, started_at TEXT, line_file TEXT, by_operator INTEGER, join_link_nntime INTEGER);
CREATE TABLE trn_lines (operator_file TEXT, name TEXT, headway_ea REAL, headway_am REAL, headway_md REAL,
	headway_pm REAL, headway_ev REAL, mode INTEGER, mode_type TEXT, operator_t TEXT, vehicletyp INTEGER,
	vtype_name TEXT, seatcap INTEGER, crushcap INTEGER, operator INTEGER, farestruct TEXT, iboardfare REAL,
	geometry TEXT);
CREATE TABLE trn_links (operator_file TEXT, name TEXT, a INTEGER, b INTEGER, a_station TEXT, b_station TEXT,
	seq INTEGER, nntime REAL, geometry TEXT);
CREATE TABLE trn_stops (operator_file TEXT, name TEXT, station TEXT, n INTEGER, seq INTEGER, is_stop INTEGER,
	farezone INTEGER, geometry TEXT);
`

type RunMeta struct {
	RunID          string
	LineFile       string
	ByOperator     bool
	JoinLinkNNTime bool
}

// SQLiteSink writes the derived features into a SQLite database, geometry
// as WKT. Any existing database at the path is replaced.
type SQLiteSink struct {
	db *sqlite.Conn
}

func NewSQLiteSink(path string, meta RunMeta) (*SQLiteSink, error) {
	if path == "" {
		panic("Missing path")
	}

	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	db, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, err
	}

	for pragma, value := range sqlitePragmas {
		if err := sqlitex.Exec(db, "PRAGMA "+pragma+" = "+value, sqlitexNoop); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := sqlitex.ExecScript(db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	err = sqlitex.Exec(db, "INSERT INTO runs (run_id, started_at, line_file, by_operator, join_link_nntime) VALUES (?, ?, ?, ?, ?)",
		sqlitexNoop, meta.RunID, time.Now().UTC().Format(time.RFC3339), meta.LineFile,
		boolToInt(meta.ByOperator), boolToInt(meta.JoinLinkNNTime))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Msg(fmt.Sprintf("Writing transit features to %s", path))
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) WriteFeatures(group string, features LineFeatures) (err error) {
	defer sqlitex.Save(s.db)(&err)

	for _, stop := range features.Stops {
		err = sqlitex.Exec(s.db, "INSERT INTO trn_stops VALUES (?, ?, ?, ?, ?, ?, ?, ?)", sqlitexNoop,
			group, stop.Line, stop.Station, stop.N, stop.Seq, boolToInt(stop.IsStop), stop.FareZone,
			wkt.MarshalString(stop.Point))
		if err != nil {
			return err
		}
	}
	for _, link := range features.Links {
		err = sqlitex.Exec(s.db, "INSERT INTO trn_links VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", sqlitexNoop,
			group, link.Line, link.A, link.B, link.AStation, link.BStation, link.Seq, link.NNTime,
			wkt.MarshalString(link.Path))
		if err != nil {
			return err
		}
	}

	line := features.Line
	return sqlitex.Exec(s.db, "INSERT INTO trn_lines VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", sqlitexNoop,
		group, line.Name,
		line.Headways[0], line.Headways[1], line.Headways[2], line.Headways[3], line.Headways[4],
		line.Mode, line.ModeType, line.OperatorText, line.VehicleType, line.VehicleTypeName,
		line.SeatCap, line.CrushCap, line.Operator, line.FareStructure, line.InitialBoardFare,
		wkt.MarshalString(line.Path))
}

func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func sqlitexNoop(*sqlite.Stmt) error {
	return nil
}
