package handlers

import (
	"masslaw-api/internal/repositories"
	"masslaw-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Query    *QueryHandler
	Document *DocumentHandler
	Job      *JobHandler
}

// NewHandlers creates and returns all handler instances
func NewHandlers(services *services.Services, repos *repositories.Repositories) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(services.Health),
		Query:    NewQueryHandler(services.Query, repos.QueryLog),
		Document: NewDocumentHandler(services.Document),
		Job:      NewJobHandler(repos.Job),
	}
}
