package cube2shp

import "github.com/jonas-p/go-shp"

const (
	NodeShapefile = "network_nodes.shp"
	LinkShapefile = "network_links.shp"

	trnLinesShapefile = "network_trn_lines%s.shp"
	trnLinksShapefile = "network_trn_links%s.shp"
	trnStopsShapefile = "network_trn_stops%s.shp"
)

// DefaultProjection is NAD 1983 StatePlane California VI FIPS 0406 (US feet), ESRI:102646.
const DefaultProjection = `PROJCS["NAD_1983_StatePlane_California_VI_FIPS_0406_Feet",` +
	`GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983",SPHEROID["GRS_1980",6378137.0,298.257222101]],` +
	`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],` +
	`PROJECTION["Lambert_Conformal_Conic"],` +
	`PARAMETER["False_Easting",6561666.666666666],PARAMETER["False_Northing",1640416.666666667],` +
	`PARAMETER["Central_Meridian",-116.25],` +
	`PARAMETER["Standard_Parallel_1",32.78333333333333],PARAMETER["Standard_Parallel_2",33.88333333333333],` +
	`PARAMETER["Latitude_Of_Origin",32.16666666666666],UNIT["Foot_US",0.3048006096012192]]`

// DBF field widths. SHORT and LONG follow the ArcGIS integer widths.
const (
	shortWidth = 6
	longWidth  = 10
	floatWidth = 19
	floatScale = 6
)

var trnLineFields = []shp.Field{
	shp.StringField("NAME", 25),
	shp.FloatField("HEADWAY_EA", floatWidth, floatScale),
	shp.FloatField("HEADWAY_AM", floatWidth, floatScale),
	shp.FloatField("HEADWAY_MD", floatWidth, floatScale),
	shp.FloatField("HEADWAY_PM", floatWidth, floatScale),
	shp.FloatField("HEADWAY_EV", floatWidth, floatScale),
	shp.NumberField("MODE", shortWidth),
	shp.StringField("MODE_TYPE", 15),
	shp.StringField("OPERATOR_T", 40),
	shp.NumberField("VEHICLETYP", shortWidth),
	shp.StringField("VTYPE_NAME", 40),
	shp.NumberField("SEATCAP", shortWidth),
	shp.NumberField("CRUSHCAP", shortWidth),
	shp.NumberField("OPERATOR", shortWidth),
	shp.StringField("FARESTRUCT", 12),
	shp.FloatField("IBOARDFARE", floatWidth, floatScale),
}

var trnLinkFields = []shp.Field{
	shp.StringField("NAME", 25),
	shp.NumberField("A", longWidth),
	shp.NumberField("B", longWidth),
	shp.StringField("A_STATION", 40),
	shp.StringField("B_STATION", 40),
	shp.NumberField("SEQ", shortWidth),
	shp.FloatField("NNTIME", 7, 2),
}

// Stop attributes follow the TM2 node attributes. PNR attributes belong to
// TAPs and are left out.
var trnStopFields = []shp.Field{
	shp.StringField("NAME", 25),
	shp.StringField("STATION", 40),
	shp.NumberField("N", longWidth),
	shp.NumberField("SEQ", shortWidth),
	shp.NumberField("IS_STOP", shortWidth),
	shp.NumberField("FAREZONE", shortWidth),
}

func (r LineRecord) values() []any {
	return []any{
		r.Name,
		r.Headways[0], r.Headways[1], r.Headways[2], r.Headways[3], r.Headways[4],
		r.Mode, r.ModeType, r.OperatorText,
		r.VehicleType, r.VehicleTypeName, r.SeatCap, r.CrushCap,
		r.Operator, r.FareStructure, r.InitialBoardFare,
	}
}

func (r LinkRecord) values() []any {
	return []any{r.Line, r.A, r.B, r.AStation, r.BStation, r.Seq, r.NNTime}
}

func (r StopRecord) values() []any {
	return []any{r.Line, r.Station, r.N, r.Seq, boolToInt(r.IsStop), r.FareZone}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
