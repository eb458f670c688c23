package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every handler onto a chi router with the standard
// middleware stack.
func NewRouter(tasks *TaskHandler, settings *SettingsHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", tasks.Create)
		r.Get("/", tasks.List)
		r.Delete("/", tasks.DeleteAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", tasks.Get)
			r.Delete("/", tasks.Delete)
			r.Post("/retry", tasks.Retry)
			r.Post("/download", tasks.Download)
		})
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", settings.Get)
		r.Put("/", settings.Update)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
