package servicedef

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
)

// EntityRef is the opaque identifier the service returns when a list, point or metadata
// record is created.
type EntityRef string

func (r EntityRef) String() string { return string(r) }

// IsDefined returns true if the reference is non-empty.
func (r EntityRef) IsDefined() bool { return r != "" }

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ListParams describes a list to create.
type ListParams struct {
	Name string
	// Icon is the URL of the list cover image. It is sent as an empty string when undefined.
	Icon ldvalue.OptionalString
	Tags []string
}

// Body returns the JSON request body.
func (p ListParams) Body() ldvalue.Value {
	tags := ldvalue.ArrayBuild()
	for _, t := range p.Tags {
		tags.Add(ldvalue.String(t))
	}
	return ldvalue.ObjectBuild().
		SetString("name", p.Name).
		SetString("icon", p.Icon.OrElse("")).
		Set("tags", tags.Build()).
		Build()
}

// PointParams describes a point to create.
type PointParams struct {
	// Name is omitted from the request when undefined, so the service default applies.
	Name       ldvalue.OptionalString
	Latitude   float64
	Longitude  float64
	Provider   string
	ProviderID string
}

// Validate checks the coordinate ranges. Both bounds are inclusive.
func (p PointParams) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < MinLatitude || p.Latitude > MaxLatitude {
		return fmt.Errorf("latitude %v is outside [%v, %v]", p.Latitude, MinLatitude, MaxLatitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < MinLongitude || p.Longitude > MaxLongitude {
		return fmt.Errorf("longitude %v is outside [%v, %v]", p.Longitude, MinLongitude, MaxLongitude)
	}
	return nil
}

// Body returns the JSON request body.
func (p PointParams) Body() ldvalue.Value {
	b := ldvalue.ObjectBuild().
		Set("latitude", ldvalue.Float64(p.Latitude)).
		Set("longitude", ldvalue.Float64(p.Longitude)).
		SetString("provider", p.Provider).
		SetString("provider_id", p.ProviderID)
	if p.Name.IsDefined() {
		b.SetString("name", p.Name.StringValue())
	}
	return b.Build()
}

// MetaAction tells the service how to combine a metadata write with earlier writes that
// share the same uid.
type MetaAction string

const (
	// MetaMerge combines the new content with the existing content for the same uid.
	MetaMerge MetaAction = "merge"
	// MetaDisplay replaces the content for the same uid.
	MetaDisplay MetaAction = "display"
)

func (a MetaAction) Validate() error {
	switch a {
	case MetaMerge, MetaDisplay:
		return nil
	default:
		return fmt.Errorf("unknown metadata action %q", string(a))
	}
}

// PointMetaParams describes a metadata write on a point, optionally scoped to a list.
type PointMetaParams struct {
	Point   EntityRef
	List    EntityRef
	UID     string
	Action  MetaAction
	Content ldvalue.Value
	// NoEvent asks the service not to emit a change event for this write.
	NoEvent bool
}

// Body returns the JSON request body. The content is sent as a JSON-encoded string.
func (p PointMetaParams) Body() ldvalue.Value {
	b := ldvalue.ObjectBuild().
		SetString("point", p.Point.String()).
		SetString("uid", p.UID).
		SetString("action", string(p.Action)).
		SetString("content", p.Content.JSONString())
	if p.List.IsDefined() {
		b.SetString("list", p.List.String())
	}
	if p.NoEvent {
		b.SetBool("no_event", true)
	}
	return b.Build()
}

// ListMetaParams describes a metadata write on a list.
type ListMetaParams struct {
	List    EntityRef
	UID     string
	Action  MetaAction
	Content ldvalue.Value
}

// Body returns the JSON request body. The content is sent as a JSON-encoded string.
func (p ListMetaParams) Body() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("list", p.List.String()).
		SetString("uid", p.UID).
		SetString("action", string(p.Action)).
		SetString("content", p.Content.JSONString()).
		Build()
}

// PointsQuery is the filter of the retrieval endpoint.
type PointsQuery struct {
	Geohash string
	// Limit is capped at MaxQueryLimit by the service. Undefined means the service default.
	Limit ldvalue.OptionalInt
	// ExcludeGeohash lists geohash prefixes whose points are left out.
	ExcludeGeohash []string
	// LastPointDate, if set, pages past points created at or before that time.
	LastPointDate time.Time
}

// Values returns the URL query parameters.
func (q PointsQuery) Values() url.Values {
	v := url.Values{}
	v.Set("geohash", q.Geohash)
	if q.Limit.IsDefined() {
		v.Set("limit", strconv.Itoa(q.Limit.IntValue()))
	}
	for _, eg := range q.ExcludeGeohash {
		v.Add("eg[]", eg)
	}
	if !q.LastPointDate.IsZero() {
		v.Set("last_point_date", q.LastPointDate.UTC().Format(time.RFC3339Nano))
	}
	return v
}

// PointView is one element of the retrieval endpoint's response.
type PointView struct {
	Identifier  string     `json:"identifier"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Name        string     `json:"name"`
	Provider    string     `json:"provider"`
	ProviderID  string     `json:"provider_id"`
	DateCreated string     `json:"date_created"`
	Metas       []MetaView `json:"metas"`

	// Raw is the element exactly as received, including properties not listed above.
	Raw ldvalue.Value `json:"-"`
}

// MetaView is a metadata record attached to a point view.
type MetaView struct {
	Identifier string                 `json:"identifier"`
	UID        string                 `json:"uid"`
	Action     string                 `json:"action"`
	Content    string                 `json:"content"`
	List       ldvalue.OptionalString `json:"list"`
}

// ContentValue decodes the JSON-encoded content.
func (m MetaView) ContentValue() ldvalue.Value {
	return ldvalue.Parse([]byte(m.Content))
}

// ParsePointViews decodes a retrieval response, keeping the raw form of each element.
func ParsePointViews(data []byte) ([]PointView, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("malformed point list: %w", err)
	}
	views := make([]PointView, 0, len(raws))
	for i, raw := range raws {
		var view PointView
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, fmt.Errorf("malformed point at index %d: %w", i, err)
		}
		view.Raw = ldvalue.Parse(raw)
		views = append(views, view)
	}
	return views, nil
}

// RawPointViews returns the points as one JSON array, using the raw form where available.
func RawPointViews(views []PointView) ldvalue.Value {
	b := ldvalue.ArrayBuild()
	for _, v := range views {
		if v.Raw.IsDefined() {
			b.Add(v.Raw)
			continue
		}
		b.Add(helpers.AsJSONValue(v))
	}
	return b.Build()
}
