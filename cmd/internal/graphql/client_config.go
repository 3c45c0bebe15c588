package graphql

import (
	"log/slog"
	"net/http"
)

type clientConfigResponse struct {
	GraphQLAPIKey string `json:"graphqlApiKey"`
}

// ClientConfigHandler serves GET /api/config to authenticated browsers.
func ClientConfigHandler(log *slog.Logger, cfg Config) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if cfg.ClientAPIKey == "" {
			log.Error("config.unconfigured", "missing", "GRAPHQL_API_KEY")
			writeError(w, http.StatusInternalServerError, "API key not configured")
			return
		}
		writeJSON(w, http.StatusOK, clientConfigResponse{GraphQLAPIKey: cfg.ClientAPIKey})
	})
}
