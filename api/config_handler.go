package api

import (
	"net/http"

	"github.com/ZachStewart21/ZachStewartProjects/internal/config"
)

// ConfigResponse is the data returned by GET /api/v1/config.
type ConfigResponse struct {
	Valuation  config.ValuationConfig  `json:"valuation"`
	DataSource config.DataSourceConfig `json:"datasource"`
	Settings   []config.SettingStatus  `json:"settings"`
}

// handleGetConfig returns the running valuation defaults and where each
// setting came from. The configuration is read-only over HTTP.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Valuation:  s.cfg.Valuation,
			DataSource: s.cfg.DataSource,
			Settings:   config.Settings(s.cfg),
		},
	})
}
