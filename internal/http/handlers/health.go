package handlers

import (
	"net/http"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, statusResponse{Status: "ok", Message: "API is running"})
}
