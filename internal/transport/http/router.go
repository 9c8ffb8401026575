package http

import (
	"github.com/gorilla/mux"
)

// NewRouter configures HTTP routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/queue", handler.Queue).Methods("GET")
	r.HandleFunc("/api/queue/url", handler.AddURL).Methods("POST")
	r.HandleFunc("/api/queue/upload", handler.UploadFiles).Methods("POST")
	r.HandleFunc("/api/convert/{id}", handler.Convert).Methods("POST")
	r.HandleFunc("/api/convert-all", handler.ConvertAll).Methods("POST")
	r.HandleFunc("/api/remove/{id}", handler.Remove).Methods("POST")
	r.HandleFunc("/api/download/{id}", handler.Download).Methods("GET")
	r.HandleFunc("/api/engine", handler.Engine).Methods("GET")
	return r
}
