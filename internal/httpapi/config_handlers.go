package httpapi

import (
	"net/http"

	"engage-engine/internal/config"
)

type ConfigHandler struct {
	Config config.Config
}

// Get returns the loaded configuration with its validation findings.
func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, v := config.NormalizeAndValidate(h.Config)
	WriteJSON(w, http.StatusOK, map[string]any{
		"config":     h.Config,
		"validation": v,
	})
}
