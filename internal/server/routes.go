package server

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) registerRoutes() {
	r := s.router

	r.Route("/api", func(r chi.Router) {
		r.Use(s.serialize)

		r.Get("/pages", s.handlePages)
		r.Get("/layout", s.handleLayout)

		r.Post("/items", s.handleAddItem)
		r.Delete("/items/{key}", s.handleDeleteItem)
		r.Put("/items/{key}/badge", s.handleBadge)

		r.Post("/widgets", s.handleAddWidget)
		r.Delete("/widgets/{id}", s.handleRemoveWidget)

		r.Post("/pages", s.handleAddPage)
		r.Post("/pages/toggle", s.handleTogglePage)
		r.Post("/pages/drag", s.handleDragPage)
		r.Put("/pages/active", s.handleActivePage)

		r.Post("/folders", s.handleCreateFolder)
		r.Put("/folders/{id}/name", s.handleRenameFolder)
		r.Post("/folders/{id}/apps", s.handleAddToFolder)
		r.Put("/folders/{id}/apps", s.handleSetFolderApps)
		r.Delete("/folders/{id}/apps/{key}", s.handleRemoveFromFolder)
		r.Post("/folders/{id}/reorder", s.handleReorderFolder)
		r.Post("/folders/{id}/open", s.handleOpenFolder)

		r.Get("/dock", s.handleDock)
		r.Post("/dock", s.handleAddToDock)
		r.Delete("/dock/{key}", s.handleRemoveFromDock)
		r.Post("/dock/reorder", s.handleReorderDock)

		r.Get("/open-folder", s.handleGetOpenFolder)
		r.Put("/open-folder/page", s.handleFolderPage)
		r.Delete("/open-folder", s.handleCloseFolder)

		r.Put("/effect-area", s.handleEffectArea)
		r.Post("/pointer", s.handlePointer)
		r.Post("/longpress", s.handleLongPress)

		r.Put("/grid", s.handleGrid)
		r.Post("/config/reload", s.handleConfigReload)
	})
}
