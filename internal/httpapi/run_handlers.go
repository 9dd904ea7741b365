package httpapi

import (
	"context"
	"net/http"
)

type RunHandler struct {
	Runner Runner
	RunCtx context.Context
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runner.Status())
}

func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.Runner.Trigger(h.RunCtx) {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
