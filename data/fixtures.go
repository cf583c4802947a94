package data

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// MetaFixture is the content of a metadata write.
type MetaFixture struct {
	UID     string                `json:"uid"`
	Action  servicedef.MetaAction `json:"action"`
	Content ldvalue.Value         `json:"content"`
}

// PointMetaFixture adds the parts of point metadata that are randomized for each point.
type PointMetaFixture struct {
	MetaFixture
	ImageName     string   `json:"imageName"`
	ImageURLs     []string `json:"imageURLs"`
	AddressFormat string   `json:"addressFormat"`
}

// Fixtures are the entity contents used by the suite and by the stress runs.
type Fixtures struct {
	List struct {
		Name string   `json:"name"`
		Icon string   `json:"icon"`
		Tags []string `json:"tags"`
	} `json:"list"`
	ListMeta MetaFixture `json:"listMeta"`
	Point    struct {
		Name       string `json:"name"`
		Provider   string `json:"provider"`
		ProviderID string `json:"providerId"`
	} `json:"point"`
	PointMeta PointMetaFixture `json:"pointMeta"`
	Spread    struct {
		Count int    `json:"count"`
		List  string `json:"list"`
	} `json:"spread"`
	AddToList struct {
		Count  int             `json:"count"`
		Region scenario.Region `json:"region"`
	} `json:"addToList"`
	Query struct {
		Geohash string `json:"geohash"`
		Limit   int    `json:"limit"`
	} `json:"query"`
}

// LoadFixtures reads the embedded fixtures file.
func LoadFixtures() (Fixtures, error) {
	var f Fixtures
	sources, err := LoadDataFile("fixtures.yaml")
	if err != nil {
		return f, err
	}
	if len(sources) != 1 {
		return f, fmt.Errorf("fixtures.yaml must not have parameters, got %d variants", len(sources))
	}
	if err := sources[0].ParseInto(&f); err != nil {
		return f, err
	}
	return f, nil
}

// ListParams returns the list to create, with the given name or the fixture's name if empty.
func (f Fixtures) ListParams(name string) servicedef.ListParams {
	if name == "" {
		name = f.List.Name
	}
	return servicedef.ListParams{
		Name: name,
		Icon: ldvalue.NewOptionalString(f.List.Icon),
		Tags: append([]string(nil), f.List.Tags...),
	}
}

// PointParams returns the point to create at the given coordinates.
func (f Fixtures) PointParams(latitude, longitude float64) servicedef.PointParams {
	return servicedef.PointParams{
		Name:       ldvalue.NewOptionalString(f.Point.Name),
		Latitude:   latitude,
		Longitude:  longitude,
		Provider:   f.Point.Provider,
		ProviderID: f.Point.ProviderID,
	}
}

// ListMetaParams returns the fixture's list metadata write for a list.
func (f Fixtures) ListMetaParams(list servicedef.EntityRef) servicedef.ListMetaParams {
	return servicedef.ListMetaParams{
		List:    list,
		UID:     f.ListMeta.UID,
		Action:  f.ListMeta.Action,
		Content: f.ListMeta.Content,
	}
}

// BoundaryPoint is one case of the coordinate boundary file.
type BoundaryPoint struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// LoadBoundaryPoints reads every combination of extreme coordinates.
func LoadBoundaryPoints() ([]BoundaryPoint, error) {
	sources, err := LoadDataFile("boundary-points.yaml")
	if err != nil {
		return nil, err
	}
	ret := make([]BoundaryPoint, 0, len(sources))
	for _, s := range sources {
		var parsed struct {
			Point struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"point"`
		}
		if err := s.ParseInto(&parsed); err != nil {
			return nil, err
		}
		ret = append(ret, BoundaryPoint{
			Name:      s.ParamsString(),
			Latitude:  parsed.Point.Latitude,
			Longitude: parsed.Point.Longitude,
		})
	}
	return ret, nil
}
