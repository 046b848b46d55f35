package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Packages
	mux.Handle("POST /api/v1/packages", chain(http.HandlerFunc(h.SubmitPackage)))
	mux.Handle("GET /api/v1/packages", chain(http.HandlerFunc(h.ListPackages)))
	mux.Handle("GET /api/v1/packages/{id}", chain(http.HandlerFunc(h.GetPackage)))
	mux.Handle("GET /api/v1/packages/{id}/status", chain(http.HandlerFunc(h.GetPackageStatus)))
	mux.Handle("GET /api/v1/packages/{id}/script", chain(http.HandlerFunc(h.GetPackageScript)))
	mux.Handle("DELETE /api/v1/packages/{id}", chain(http.HandlerFunc(h.DeletePackage)))
}
