package misc

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trackfit/internal/workouts/stats"
	"github.com/2beens/trackfit/pkg"
)

// OptionsResponse lists the values the statistics endpoint accepts.
type OptionsResponse struct {
	Periods       []stats.Period       `json:"periods"`
	Units         []stats.Unit         `json:"units"`
	WeekdayRanges []stats.WeekdayRange `json:"weekdayRanges"`
	Granularities []stats.Granularity  `json:"granularities"`
	DefaultUnit   stats.Unit           `json:"defaultUnit"`
}

type Handler struct {
	versionInfo string
	defaultUnit stats.Unit
}

func NewHandler(versionInfo string, defaultUnit stats.Unit) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		defaultUnit: defaultUnit,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
	mainRouter.HandleFunc("/stats/options", handler.handleStatsOptions).Methods("GET", "OPTIONS").Name("stats-options")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	if handler.versionInfo == "" {
		pkg.WriteTextResponseOK(w, "unknown")
		return
	}
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleStatsOptions(w http.ResponseWriter, _ *http.Request) {
	resp := OptionsResponse{
		Periods:       stats.Periods,
		Units:         []stats.Unit{stats.UnitKg, stats.UnitLb},
		WeekdayRanges: []stats.WeekdayRange{stats.WeekdayRangeMonth, stats.WeekdayRangeThirtyDays},
		Granularities: []stats.Granularity{stats.GranularityDay, stats.GranularityWeek, stats.GranularityMonth},
		DefaultUnit:   handler.defaultUnit,
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal stats options: %s", err)
		http.Error(w, "failed to marshal options", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
