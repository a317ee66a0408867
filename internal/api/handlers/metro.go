package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dvloznov/barik-insights/internal/api/middleware"
	"github.com/dvloznov/barik-insights/internal/transit"
)

// MetroHandler serves the metro station graph.
type MetroHandler struct {
	network *transit.Network
}

// NewMetroHandler creates a handler over network.
func NewMetroHandler(network *transit.Network) *MetroHandler {
	return &MetroHandler{network: network}
}

// Lines handles GET /api/metro/lines
func (h *MetroHandler) Lines(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"lines": h.network.Graph.Lines(),
	})
}

// LineStations handles GET /api/metro/lines/{line}
func (h *MetroHandler) LineStations(w http.ResponseWriter, r *http.Request) {
	line := strings.ToUpper(chi.URLParam(r, "line"))
	codes := h.network.Graph.LineStations(line)
	if len(codes) == 0 {
		middleware.WriteError(w, http.StatusNotFound, "Line not found")
		return
	}

	stations := make([]transit.Station, 0, len(codes))
	for _, code := range codes {
		if s, ok := h.network.Graph.Station(code); ok {
			stations = append(stations, s)
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"line":     line,
		"stations": stations,
	})
}

// Path handles GET /api/metro/path?from=&to=
// Endpoints may be station codes or names as printed on statements.
func (h *MetroHandler) Path(w http.ResponseWriter, r *http.Request) {
	fromLabel := r.URL.Query().Get("from")
	toLabel := r.URL.Query().Get("to")
	if fromLabel == "" || toLabel == "" {
		middleware.WriteError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	from, ok := h.lookup(fromLabel)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown station: "+fromLabel)
		return
	}
	to, ok := h.lookup(toLabel)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown station: "+toLabel)
		return
	}

	g := h.network.Graph
	path := g.FindPath(from.Code, to.Code)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"from":     from.Code,
		"to":       to.Code,
		"path":     path,
		"names":    g.Names(path),
		"stops":    len(path),
		"polyline": g.Polyline(path),
	})
}

func (h *MetroHandler) lookup(label string) (transit.Station, bool) {
	if s, ok := h.network.Graph.Station(strings.ToUpper(label)); ok {
		return s, true
	}
	return h.network.Stations.Resolve(label)
}
