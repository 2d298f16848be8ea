package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sigmafelix/censuskr/internal/boundary"
	"github.com/sigmafelix/censuskr/internal/census"
	"github.com/sigmafelix/censuskr/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"years": model.Years()})
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	districts, err := s.accessor.LoadDistricts(r.Context(), year)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeFeatureCollection(w, districts)
}

func (s *Server) handleDissolved(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	prefixLen, suffix, ok := dissolveParams(w, r)
	if !ok {
		return
	}

	var districts []model.District
	var err error
	if s.pg != nil {
		// DB-side ST_Union merges shared borders; the in-memory dissolve
		// keeps multi-part geometries.
		districts, err = s.pg.DissolvedDistricts(r.Context(), year, prefixLen, suffix)
	} else {
		districts, err = s.accessor.LoadDistricts(r.Context(), year)
		if err == nil {
			districts, err = boundary.Dissolve(districts, prefixLen, suffix)
		}
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeFeatureCollection(w, districts)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	rows, err := s.accessor.Stats(r.Context(), census.StatsRequest{
		Year:     year,
		Category: chi.URLParam(r, "category"),
		Reducer:  reducerParam(r),
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "stats": rows})
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	joined, err := s.accessor.ChoroplethData(r.Context(), census.StatsRequest{
		Year:     year,
		Category: chi.URLParam(r, "category"),
		Reducer:  reducerParam(r),
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	features := make([]*geojson.Feature, 0, len(joined))
	for _, j := range joined {
		features = append(features, &geojson.Feature{
			ID:       j.Code,
			Geometry: j.Geometry,
			Properties: map[string]any{
				"code":     j.Code,
				"name":     j.Name,
				"year":     j.Year,
				"category": string(j.Category),
				"value":    j.Value,
			},
		})
	}
	writeJSON(w, http.StatusOK, &geojson.FeatureCollection{Features: features})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, eris.New("server: load status tracking is not enabled"))
		return
	}
	rows, err := s.cache.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loads": rows})
}

func writeFeatureCollection(w http.ResponseWriter, districts []model.District) {
	features := make([]*geojson.Feature, 0, len(districts))
	for _, d := range districts {
		features = append(features, &geojson.Feature{
			ID:       d.Code,
			Geometry: d.Geometry,
			Properties: map[string]any{
				"code": d.Code,
				"name": d.Name,
				"year": d.Year,
			},
		})
	}
	writeJSON(w, http.StatusOK, &geojson.FeatureCollection{Features: features})
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Errorf("server: year %q is not a number", raw))
		return 0, false
	}
	return year, true
}

func reducerParam(r *http.Request) string {
	if v := r.URL.Query().Get("reducer"); v != "" {
		return v
	}
	return "sum"
}

func dissolveParams(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	prefixLen := 4
	suffix := "0"
	if v := r.URL.Query().Get("prefix_len"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, eris.Errorf("server: prefix_len %q is not a number", v))
			return 0, "", false
		}
		prefixLen = n
	}
	if v := r.URL.Query().Get("suffix"); v != "" {
		suffix = v
	}
	return prefixLen, suffix, true
}

// statusFor maps pipeline errors to HTTP statuses: unknown years and
// missing datasets are 404, validation failures are 400, anything else
// (dataset corruption, I/O) is 500.
func statusFor(err error) int {
	switch {
	case eris.Is(err, model.ErrYearNotAvailable):
		return http.StatusNotFound
	case eris.Is(err, model.ErrInvalidValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
