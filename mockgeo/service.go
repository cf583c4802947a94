package mockgeo

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/gorilla/mux"
)

// Service serves a Store over the REST protocol of the real service, under the /v2 prefix.
type Service struct {
	store   *Store
	appKey  string
	logger  framework.Logger
	handler http.Handler
}

// NewService creates a Service. Requests must carry appKey in the app key header; an empty
// appKey disables the check.
func NewService(store *Store, appKey string, logger framework.Logger) *Service {
	if logger == nil {
		logger = framework.NullLogger()
	}
	s := &Service{store: store, appKey: appKey, logger: logger}

	router := mux.NewRouter()
	v2 := router.PathPrefix(servicedef.APIVersionPath).Subrouter()
	v2.Use(s.checkAppKey)
	v2.HandleFunc(servicedef.ListsPath, s.createList).Methods("POST")
	v2.HandleFunc(servicedef.PointsPath, s.createPoint).Methods("POST")
	v2.HandleFunc(servicedef.PointMetasPath, s.setPointMeta).Methods("POST")
	v2.HandleFunc(servicedef.ListMetasPath, s.setListMeta).Methods("POST")
	v2.HandleFunc(servicedef.ListPointPath("{list}", "{point}"), s.attachPointToList).Methods("POST")
	v2.HandleFunc(servicedef.ListPointsPath("{list}"), s.queryListPoints).Methods("GET")
	v2.HandleFunc(servicedef.PointPath("{point}"), s.deletePoint).Methods("DELETE")
	s.handler = router

	return s
}

// Store returns the state behind the service.
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Service) checkAppKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.appKey != "" && r.Header.Get(servicedef.AppKeyHeader) != s.appKey {
			s.writeError(w, r, &ServiceError{Status: http.StatusUnauthorized, Message: servicedef.MissingAppKeyMessage})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err == nil {
		s.logger.Printf("got %s %s %s", r.Method, r.URL.Path, string(body))
		err = json.Unmarshal(body, target)
	}
	if err != nil {
		s.writeError(w, r, badRequest("malformed request body: %s", err))
		return false
	}
	return true
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	var data []byte
	if value != nil {
		data, _ = json.Marshal(value)
		_, _ = w.Write(data)
	}
	s.logger.Printf("%s %s responded with %d %s", r.Method, r.URL.Path, status, string(data))
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err *ServiceError) {
	s.writeJSON(w, r, err.Status, servicedef.ErrorResponse{Message: err.Message})
}

func (s *Service) writeCreated(w http.ResponseWriter, r *http.Request, id string, err *ServiceError) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, servicedef.IdentifierResponse{Identifier: id})
}

func (s *Service) createList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if s.decode(w, r, &req) {
		id, err := s.store.createList(geoclient.OpCreateList, req)
		s.writeCreated(w, r, id, err)
	}
}

func (s *Service) createPoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if s.decode(w, r, &req) {
		id, err := s.store.createPoint(geoclient.OpCreatePoint, req)
		s.writeCreated(w, r, id, err)
	}
}

func (s *Service) setPointMeta(w http.ResponseWriter, r *http.Request) {
	var req pointMetaRequest
	if s.decode(w, r, &req) {
		id, err := s.store.setPointMeta(geoclient.OpSetPointMeta, req)
		s.writeCreated(w, r, id, err)
	}
}

func (s *Service) setListMeta(w http.ResponseWriter, r *http.Request) {
	var req listMetaRequest
	if s.decode(w, r, &req) {
		id, err := s.store.setListMeta(geoclient.OpSetListMeta, req)
		s.writeCreated(w, r, id, err)
	}
}

func (s *Service) attachPointToList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.attachPointToList(geoclient.OpAttachPointToList, vars["list"], vars["point"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, nil)
}

func (s *Service) queryListPoints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := pointsRequest{list: mux.Vars(r)["list"], geohash: query.Get("geohash")}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			s.writeError(w, r, badRequest("invalid limit %q", limit))
			return
		}
		req.limit = n
	}
	if date := query.Get("last_point_date"); date != "" {
		t, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			s.writeError(w, r, badRequest("%s", err))
			return
		}
		req.lastPointDate = t
	}
	views, err := s.store.queryListPoints(geoclient.OpQueryListPoints, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, views)
}

func (s *Service) deletePoint(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deletePoint(geoclient.OpDeletePoint, mux.Vars(r)["point"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusAccepted, nil)
}
