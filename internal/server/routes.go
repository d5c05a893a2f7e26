package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Session routes
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/abort", s.abortSession)

			// Permissions
			r.Get("/permissions", s.listPendingPermissions)
			r.Post("/permissions/{requestID}", s.respondPermission)
		})
	})

	// Task routes
	r.Route("/task", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Post("/", s.createTask)

		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Post("/status", s.updateTaskStatus)
			r.Get("/timeline", s.getTimeline)
		})
	})

	// Workspace routes
	r.Route("/workspace", func(r chi.Router) {
		r.Get("/", s.listWorkspaces)
		r.Post("/", s.createWorkspace)
		r.Get("/{workspaceID}", s.getWorkspace)
	})

	// Repository routes
	r.Route("/repository", func(r chi.Router) {
		r.Get("/", s.listRepositories)
		r.Post("/", s.createRepository)

		r.Route("/{repositoryID}", func(r chi.Router) {
			r.Get("/", s.getRepository)
			r.Post("/permissions", s.grantRepositoryPermission)
			r.Get("/settings", s.getRepositorySettings)
		})
	})

	// Event streaming (SSE). /global/event is the no-filter alias;
	// /event takes an optional sessionID query filter.
	r.Get("/event", s.allEvents)
	r.Get("/global/event", s.allEvents)

	// Health
	r.Get("/health", s.health)
}
