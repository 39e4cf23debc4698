package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/ichi0g0y/print-hole/internal/env"
	"github.com/ichi0g0y/print-hole/internal/localdb"
	"github.com/ichi0g0y/print-hole/internal/settings"
	"github.com/ichi0g0y/print-hole/internal/shared/logger"
	"go.uber.org/zap"
)

// handleSettings serves the settings catalogue. GET returns all settings
// with secret values masked; POST/PUT updates values and reloads the
// runtime environment so changes apply without a restart.
func handleSettings(w http.ResponseWriter, r *http.Request) {
	db := localdb.GetDB()
	if db == nil {
		writeError(w, http.StatusInternalServerError, "settings store not initialized")
		return
	}
	manager := settings.NewSettingsManager(db)

	switch r.Method {
	case http.MethodGet:
		all, err := manager.GetAllSettings()
		if err != nil {
			logger.Error("Failed to load settings", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"settings": all})

	case http.MethodPost, http.MethodPut:
		var req struct {
			Settings map[string]string `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if len(req.Settings) == 0 {
			writeError(w, http.StatusBadRequest, "no settings provided")
			return
		}

		for key, value := range req.Settings {
			if err := manager.SetSetting(key, value); err != nil {
				logger.Error("Failed to save setting", zap.String("key", key), zap.Error(err))
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		env.LoadEnv()

		logger.Info("Settings updated", zap.Int("count", len(req.Settings)))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
