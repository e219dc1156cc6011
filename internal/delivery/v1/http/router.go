package http

import (
	"net/http"

	_ "github.com/DRSN-tech/image-search/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/image-search/internal/usecase"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(searchUC usecase.SearchUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Get("/", rootBanner)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		handler := NewSearchHandler(searchUC, r.logger)
		registerSearchRoutes(v1, handler)
	})
}

func registerSearchRoutes(router chi.Router, handler *SearchHandler) {
	router.Route("/search", func(s chi.Router) {
		s.Post("/image", handler.searchByImage)
		s.Post("/url", handler.searchByURL)
	})

	router.Post("/refresh", handler.refresh)
	router.Get("/health", handler.health)
	router.Get("/status", handler.status)
}

// rootBanner отдаёт карту эндпоинтов сервиса.
func rootBanner(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"service": "image-search",
		"endpoints": map[string]string{
			"search_by_image": "POST /api/v1/search/image",
			"search_by_url":   "POST /api/v1/search/url",
			"refresh":         "POST /api/v1/refresh",
			"health":          "GET /api/v1/health",
			"status":          "GET /api/v1/status",
			"swagger":         "GET /swagger/index.html",
		},
	})
}
