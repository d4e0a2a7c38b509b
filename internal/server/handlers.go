package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sells-group/leaseboost/internal/enrich"
	"github.com/sells-group/leaseboost/internal/events"
	"github.com/sells-group/leaseboost/internal/model"
)

// Fallback messages for failures that carry no public message.
const (
	msgGeocodeFailed      = "Failed to geocode address"
	msgNearbyFailed       = "Failed to fetch nearby businesses"
	msgEventsFailed       = "Failed to fetch events"
	msgEnrichBusinesses   = "Failed to enrich businesses"
	msgEnrichEvents       = "Failed to enrich events"
	msgEnrichInstitutions = "Failed to enrich institutions"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type geocodeRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgGeocodeFailed)
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, r, model.InvalidInput("Address is required"), msgGeocodeFailed)
		return
	}
	if s.deps.Geocoder == nil {
		writeError(w, r, model.Unavailable(msgGeocodeFailed), msgGeocodeFailed)
		return
	}

	res, err := s.deps.Geocoder.Geocode(r.Context(), req.Address)
	if err != nil {
		writeError(w, r, err, msgGeocodeFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	center, err := coordinateParam(r)
	if err != nil {
		writeError(w, r, err, msgNearbyFailed)
		return
	}
	if s.deps.Nearby == nil {
		writeError(w, r, model.Unavailable(msgNearbyFailed), msgNearbyFailed)
		return
	}

	res, err := s.deps.Nearby.Find(r.Context(), center)
	if err != nil {
		writeError(w, r, err, msgNearbyFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type eventsResponse struct {
	Events  []model.Event `json:"events"`
	Source  string        `json:"source"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	center, err := coordinateParam(r)
	if err != nil {
		writeError(w, r, err, msgEventsFailed)
		return
	}
	miles, err := radiusParam(r, s.deps.DefaultRadiusMiles)
	if err != nil {
		writeError(w, r, err, msgEventsFailed)
		return
	}
	if s.deps.Events == nil {
		writeError(w, r, model.Unavailable(msgEventsFailed), msgEventsFailed)
		return
	}

	res, err := s.deps.Events.Search(r.Context(), events.Query{
		Center:       center,
		RadiusMeters: model.MilesToMeters(miles),
	})
	if err != nil {
		writeError(w, r, err, msgEventsFailed)
		return
	}

	out := eventsResponse{Events: res.Events, Source: res.Source, Message: res.Message}
	if out.Events == nil {
		out.Events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, out)
}

type enrichBusinessesRequest struct {
	Businesses []model.Business `json:"businesses"`
	Limit      *int             `json:"limit"`
	IDs        []string         `json:"ids"`
}

func (s *Server) handleEnrichBusinesses(w http.ResponseWriter, r *http.Request) {
	var req enrichBusinessesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgEnrichBusinesses)
		return
	}
	if req.Businesses == nil {
		writeError(w, r, model.InvalidInput("Businesses array is required"), msgEnrichBusinesses)
		return
	}
	sel, err := s.selection(req.Limit, req.IDs)
	if err != nil {
		writeError(w, r, err, msgEnrichBusinesses)
		return
	}
	if s.deps.Places == nil {
		writeError(w, r, model.Unavailable("Google Places API key not configured"), msgEnrichBusinesses)
		return
	}

	res, err := s.deps.Places.Businesses(r.Context(), req.Businesses, sel)
	if err != nil {
		writeError(w, r, err, msgEnrichBusinesses)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type enrichEventsRequest struct {
	Events []model.Event `json:"events"`
	Limit  *int          `json:"limit"`
	IDs    []string      `json:"ids"`
}

func (s *Server) handleEnrichEvents(w http.ResponseWriter, r *http.Request) {
	var req enrichEventsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgEnrichEvents)
		return
	}
	if req.Events == nil {
		writeError(w, r, model.InvalidInput("Events array is required"), msgEnrichEvents)
		return
	}
	sel, err := s.selection(req.Limit, req.IDs)
	if err != nil {
		writeError(w, r, err, msgEnrichEvents)
		return
	}
	if s.deps.Places == nil {
		writeError(w, r, model.Unavailable("Google Places API key not configured"), msgEnrichEvents)
		return
	}

	res, err := s.deps.Places.Events(r.Context(), req.Events, sel)
	if err != nil {
		writeError(w, r, err, msgEnrichEvents)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type enrichInstitutionsRequest struct {
	Institutions   []model.Institution `json:"institutions"`
	Limit          *int                `json:"limit"`
	InstitutionIDs []string            `json:"institutionIds"`
}

func (s *Server) handleEnrichInstitutions(w http.ResponseWriter, r *http.Request) {
	var req enrichInstitutionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err, msgEnrichInstitutions)
		return
	}
	if req.Institutions == nil {
		writeError(w, r, model.InvalidInput("Institutions array is required"), msgEnrichInstitutions)
		return
	}
	sel, err := s.selection(req.Limit, req.InstitutionIDs)
	if err != nil {
		writeError(w, r, err, msgEnrichInstitutions)
		return
	}
	if s.deps.Institutions == nil {
		writeError(w, r, model.Unavailable(msgEnrichInstitutions), msgEnrichInstitutions)
		return
	}

	res, err := s.deps.Institutions.Enrich(r.Context(), req.Institutions, sel)
	if err != nil {
		writeError(w, r, err, msgEnrichInstitutions)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMapsConfig(w http.ResponseWriter, r *http.Request) {
	if s.deps.MapsAPIKey == "" {
		writeError(w, r, model.Unavailable("Maps API key not configured"), "Maps API key not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"apiKey": s.deps.MapsAPIKey})
}

// selection applies the configured default limit when the request has none.
func (s *Server) selection(limit *int, ids []string) (enrich.Selection, error) {
	if limit == nil {
		l := s.deps.EnrichLimit
		limit = &l
	}
	if *limit < 0 {
		return enrich.Selection{}, model.InvalidInput("Limit must not be negative")
	}
	return enrich.NewSelection(limit, ids), nil
}

// coordinateParam reads the lat and lng query parameters.
func coordinateParam(r *http.Request) (model.Coordinate, error) {
	q := r.URL.Query()
	latRaw, lngRaw := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lng"))
	if latRaw == "" || lngRaw == "" {
		return model.Coordinate{}, model.InvalidInput("Latitude and longitude are required")
	}
	lat, latErr := strconv.ParseFloat(latRaw, 64)
	lng, lngErr := strconv.ParseFloat(lngRaw, 64)
	if latErr != nil || lngErr != nil {
		return model.Coordinate{}, model.InvalidInput("Latitude and longitude must be numbers")
	}
	c := model.Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return model.Coordinate{}, model.InvalidInput("Invalid latitude or longitude")
	}
	return c, nil
}

// radiusParam reads the radius query parameter in miles.
func radiusParam(r *http.Request, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("radius"))
	if raw == "" {
		return fallback, nil
	}
	miles, err := strconv.ParseFloat(raw, 64)
	if err != nil || miles <= 0 || math.IsInf(miles, 0) || math.IsNaN(miles) {
		return 0, model.InvalidInput("Radius must be a positive number of miles")
	}
	return miles, nil
}
