package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws/tasks", s.app.WSHandler.HandleWebSocket)

	// API routes - Groups
	mux.HandleFunc("/api/groups/upload", s.app.UploadHandler.UploadGroupsHandler) // POST - upload identifier file
	mux.HandleFunc("/api/groups/stats", s.app.GroupHandler.GroupStatsHandler)     // GET - stored group counts
	mux.HandleFunc("/api/groups", s.app.GroupHandler.ListGroupsHandler)           // GET - list stored groups

	// API routes - Tasks
	mux.HandleFunc("/api/tasks", s.app.TaskHandler.ListTasksHandler) // GET - list recent tasks
	mux.HandleFunc("/api/tasks/", s.handleTaskRoutes)                // GET/DELETE /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleTaskRoutes routes /api/tasks/{id} requests by method
func (s *Server) handleTaskRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.TaskHandler.GetTaskHandler(w, r)
	case http.MethodDelete:
		s.app.TaskHandler.DeleteTaskHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
