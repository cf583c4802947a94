package servicedef

const (
	// APIVersionPath is appended to the base URL of the target service.
	APIVersionPath = "/v2"

	// AppKeyHeader carries the access credential on every private route.
	AppKeyHeader = "X-ParsemapAppKey"

	// DefaultAppKey is the credential the standard test deployment is configured with.
	DefaultAppKey = "4g23G#$GEG#@G5Hl3;[]3f2"

	// DefaultBaseURL is where a locally started target service listens.
	DefaultBaseURL = "http://localhost:8000"

	// MaxQueryLimit is the largest number of points returned by one query. Larger limits are
	// silently capped by the service.
	MaxQueryLimit = 50

	// MaxGeohashLength is the longest geohash prefix a query may use.
	MaxGeohashLength = 17

	// MissingAppKeyMessage is the error message returned with a 401.
	MissingAppKeyMessage = "Missing or wrong api header"
)

const (
	ListsPath      = "/list/"
	PointsPath     = "/point/"
	PointMetasPath = "/pointmeta/"
	ListMetasPath  = "/listmeta/"
)

// ListPointPath is the path that attaches a point to a list.
func ListPointPath(list, point EntityRef) string {
	return "/list/" + list.String() + "/point/" + point.String() + "/"
}

// ListPointsPath is the path of the filtered retrieval endpoint for a list.
func ListPointsPath(list EntityRef) string {
	return "/list/" + list.String() + "/points/"
}

// PointPath is the path of a single point.
func PointPath(point EntityRef) string {
	return "/point/" + point.String() + "/"
}

// IdentifierResponse is the body returned by every create operation.
type IdentifierResponse struct {
	Identifier string `json:"identifier"`
}

// ErrorResponse is the body of an error. The service uses either capitalization of the
// message property depending on where the error came from.
type ErrorResponse struct {
	Message string `json:"Message"`
}
