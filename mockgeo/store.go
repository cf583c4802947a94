package mockgeo

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/oklog/ulid/v2"
)

// ServiceError is a failure as the service reports it: an HTTP status and a message.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func badRequest(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(kind string, id string) *ServiceError {
	return &ServiceError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s %q not found", kind, id)}
}

type listRequest struct {
	Name string   `json:"name"`
	Icon string   `json:"icon"`
	Tags []string `json:"tags"`
}

type pointRequest struct {
	Name       string   `json:"name"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Provider   string   `json:"provider"`
	ProviderID string   `json:"provider_id"`
}

type pointMetaRequest struct {
	Point   string  `json:"point"`
	List    string  `json:"list"`
	UID     string  `json:"uid"`
	Action  string  `json:"action"`
	Content *string `json:"content"`
	NoEvent bool    `json:"no_event"`
}

type listMetaRequest struct {
	List    string  `json:"list"`
	UID     string  `json:"uid"`
	Action  string  `json:"action"`
	Content *string `json:"content"`
}

type pointsRequest struct {
	list          string
	geohash       string
	limit         int
	lastPointDate time.Time
}

type listRecord struct {
	identifier string
	request    listRequest
	points     []string
	metas      []*metaRecord
}

type pointRecord struct {
	identifier string
	request    pointRequest
	created    time.Time
}

type metaRecord struct {
	identifier string
	target     string
	list       string
	uid        string
	action     string
	content    string
}

type fault struct {
	status  int
	message string
}

// Store is the state of the fake service. It is safe for concurrent use.
type Store struct {
	merge MergeFunc
	now   func() time.Time

	lists      map[string]*listRecord
	points     map[string]*pointRecord
	pointMetas []*metaRecord
	faults     map[string][]fault
	calls      map[string]int
	lock       sync.Mutex
}

// StoreOption is an option for NewStore.
type StoreOption func(*Store)

// WithMerge sets how "merge" writes combine metadata content. The default is UnionMerge.
func WithMerge(merge MergeFunc) StoreOption {
	return func(s *Store) { s.merge = merge }
}

// WithClock sets the source of creation dates.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(options ...StoreOption) *Store {
	s := &Store{
		merge:  UnionMerge,
		now:    time.Now,
		lists:  make(map[string]*listRecord),
		points: make(map[string]*pointRecord),
		faults: make(map[string][]fault),
		calls:  make(map[string]int),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// FailNext makes the next call of the named operation fail with the given status and message,
// without changing any state. Calls queue up if this is used more than once.
func (s *Store) FailNext(operation string, status int, message string) {
	s.lock.Lock()
	s.faults[operation] = append(s.faults[operation], fault{status: status, message: message})
	s.lock.Unlock()
}

// Calls returns how many times the named operation has been attempted, including failures.
func (s *Store) Calls(operation string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls[operation]
}

// PointCount returns the number of points that currently exist.
func (s *Store) PointCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.points)
}

// HasPoint returns true if the point exists.
func (s *Store) HasPoint(point servicedef.EntityRef) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.points[point.String()]
	return ok
}

// ListPoints returns the points attached to a list, in attach order.
func (s *Store) ListPoints(list servicedef.EntityRef) []servicedef.EntityRef {
	s.lock.Lock()
	defer s.lock.Unlock()
	var ret []servicedef.EntityRef
	if l := s.lists[list.String()]; l != nil {
		for _, p := range l.points {
			ret = append(ret, servicedef.EntityRef(p))
		}
	}
	return ret
}

// ListMetas returns the metadata records of a list.
func (s *Store) ListMetas(list servicedef.EntityRef) []servicedef.MetaView {
	s.lock.Lock()
	defer s.lock.Unlock()
	var ret []servicedef.MetaView
	if l := s.lists[list.String()]; l != nil {
		for _, m := range l.metas {
			ret = append(ret, m.view())
		}
	}
	return ret
}

// begin must be called with the lock held. It counts the call and returns a pending fault.
func (s *Store) begin(operation string) *ServiceError {
	s.calls[operation]++
	if queue := s.faults[operation]; len(queue) > 0 {
		f := queue[0]
		s.faults[operation] = queue[1:]
		return &ServiceError{Status: f.status, Message: f.message}
	}
	return nil
}

func newIdentifier() string {
	return ulid.Make().String()
}

func (s *Store) createList(operation string, req listRequest) (string, *ServiceError) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return "", err
	}
	if req.Name == "" {
		return "", badRequest("name is required")
	}
	id := newIdentifier()
	s.lists[id] = &listRecord{identifier: id, request: req}
	return id, nil
}

func (s *Store) createPoint(operation string, req pointRequest) (string, *ServiceError) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return "", err
	}
	if req.Latitude == nil || req.Longitude == nil {
		return "", badRequest("latitude and longitude are required")
	}
	lat, lon := *req.Latitude, *req.Longitude
	if math.IsNaN(lat) || lat < servicedef.MinLatitude || lat > servicedef.MaxLatitude {
		return "", badRequest("latitude %v is out of range", lat)
	}
	if math.IsNaN(lon) || lon < servicedef.MinLongitude || lon > servicedef.MaxLongitude {
		return "", badRequest("longitude %v is out of range", lon)
	}
	id := newIdentifier()
	s.points[id] = &pointRecord{identifier: id, request: req, created: s.now().UTC()}
	return id, nil
}

func (s *Store) attachPointToList(operation, list, point string) *ServiceError {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return err
	}
	l := s.lists[list]
	if l == nil {
		return notFound("list", list)
	}
	if s.points[point] == nil {
		return notFound("point", point)
	}
	for _, p := range l.points {
		if p == point {
			return nil
		}
	}
	l.points = append(l.points, point)
	return nil
}

func validateMeta(uid, action string, content *string) *ServiceError {
	if uid == "" {
		return badRequest("uid is required")
	}
	if err := servicedef.MetaAction(action).Validate(); err != nil {
		return badRequest("%s", err)
	}
	if content == nil {
		return badRequest("content is required")
	}
	return nil
}

// writeMeta must be called with the lock held. It returns the updated or added record.
func (s *Store) writeMeta(records []*metaRecord, target, list, uid, action, content string) (
	[]*metaRecord, *metaRecord) {
	for _, m := range records {
		if m.target == target && m.list == list && m.uid == uid {
			if action == string(servicedef.MetaMerge) {
				m.content = s.merge(m.content, content)
			} else {
				m.content = content
			}
			m.identifier = newIdentifier()
			m.action = action
			return records, m
		}
	}
	m := &metaRecord{
		identifier: newIdentifier(),
		target:     target,
		list:       list,
		uid:        uid,
		action:     action,
		content:    content,
	}
	return append(records, m), m
}

func (s *Store) setPointMeta(operation string, req pointMetaRequest) (string, *ServiceError) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return "", err
	}
	if req.Point == "" {
		return "", badRequest("point is required")
	}
	if err := validateMeta(req.UID, req.Action, req.Content); err != nil {
		return "", err
	}
	if s.points[req.Point] == nil {
		return "", notFound("point", req.Point)
	}
	if req.List != "" && s.lists[req.List] == nil {
		return "", notFound("list", req.List)
	}
	var m *metaRecord
	s.pointMetas, m = s.writeMeta(s.pointMetas, req.Point, req.List, req.UID, req.Action, *req.Content)
	return m.identifier, nil
}

func (s *Store) setListMeta(operation string, req listMetaRequest) (string, *ServiceError) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return "", err
	}
	if err := validateMeta(req.UID, req.Action, req.Content); err != nil {
		return "", err
	}
	l := s.lists[req.List]
	if l == nil {
		return "", notFound("list", req.List)
	}
	var m *metaRecord
	l.metas, m = s.writeMeta(l.metas, req.List, "", req.UID, req.Action, *req.Content)
	return m.identifier, nil
}

func (s *Store) queryListPoints(operation string, req pointsRequest) ([]servicedef.PointView, *ServiceError) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return nil, err
	}
	if req.geohash == "" {
		return nil, badRequest("geohash is required")
	}
	if len(req.geohash) > servicedef.MaxGeohashLength {
		return nil, badRequest("Wrong geohash length, must be %d digits", servicedef.MaxGeohashLength)
	}
	limit := req.limit
	if limit <= 0 || limit > servicedef.MaxQueryLimit {
		limit = servicedef.MaxQueryLimit
	}

	views := []servicedef.PointView{}
	l := s.lists[req.list]
	if l == nil {
		return views, nil
	}
	for _, id := range l.points {
		if len(views) >= limit {
			break
		}
		p := s.points[id]
		if p == nil || (!req.lastPointDate.IsZero() && !p.created.After(req.lastPointDate)) {
			continue
		}
		views = append(views, s.pointView(p, req.list))
	}
	return views, nil
}

// pointView must be called with the lock held. Metadata scoped to another list is left out.
func (s *Store) pointView(p *pointRecord, list string) servicedef.PointView {
	v := servicedef.PointView{
		Identifier:  p.identifier,
		Latitude:    *p.request.Latitude,
		Longitude:   *p.request.Longitude,
		Name:        p.request.Name,
		Provider:    p.request.Provider,
		ProviderID:  p.request.ProviderID,
		DateCreated: p.created.Format(time.RFC3339Nano),
		Metas:       []servicedef.MetaView{},
	}
	for _, m := range s.pointMetas {
		if m.target == p.identifier && (m.list == "" || m.list == list) {
			v.Metas = append(v.Metas, m.view())
		}
	}
	return v
}

func (m *metaRecord) view() servicedef.MetaView {
	v := servicedef.MetaView{
		Identifier: m.identifier,
		UID:        m.uid,
		Action:     m.action,
		Content:    m.content,
	}
	if m.list != "" {
		v.List = ldvalue.NewOptionalString(m.list)
	}
	return v
}

func (s *Store) deletePoint(operation, point string) *ServiceError {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.begin(operation); err != nil {
		return err
	}
	if s.points[point] == nil {
		return notFound("point", point)
	}
	delete(s.points, point)
	for _, l := range s.lists {
		for i, p := range l.points {
			if p == point {
				l.points = append(l.points[:i], l.points[i+1:]...)
				break
			}
		}
	}
	kept := s.pointMetas[:0]
	for _, m := range s.pointMetas {
		if m.target != point {
			kept = append(kept, m)
		}
	}
	s.pointMetas = kept
	return nil
}
