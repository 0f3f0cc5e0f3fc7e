package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wcatz/launcher-grid/internal/catalog"
	"github.com/wcatz/launcher-grid/internal/config"
	"github.com/wcatz/launcher-grid/internal/desktop"
	"github.com/wcatz/launcher-grid/internal/drag"
	"github.com/wcatz/launcher-grid/internal/grid"
	"github.com/wcatz/launcher-grid/internal/signal"
)

// layoutResponse is returned by every call that can change the layout.
type layoutResponse struct {
	ActivePage int                `json:"activePage"`
	Geometry   grid.Geometry      `json:"geometry"`
	Pages      [][]grid.Item      `json:"pages"`
	Dock       []grid.Item        `json:"dock"`
	OpenFolder *signal.FolderView `json:"openFolder,omitempty"`
}

func (s *Server) layout() layoutResponse {
	return layoutResponse{
		ActivePage: s.desk.ActivePage(),
		Geometry:   s.desk.Snapshot().Geometry,
		Pages:      s.desk.GetGridList(),
		Dock:       s.desk.Dock(),
		OpenFolder: s.desk.Bus().OpenFolder.Get(),
	}
}

// serialize runs one request at a time.
func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonErr(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps an engine error to a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, desktop.ErrNotFound), errors.Is(err, catalog.ErrUnknownApp):
		code = http.StatusNotFound
	case errors.Is(err, desktop.ErrDuplicate), errors.Is(err, desktop.ErrMoveRejected),
		errors.Is(err, grid.ErrNoRoom), errors.Is(err, desktop.ErrDockFull),
		errors.Is(err, errNoConfig):
		code = http.StatusConflict
	case errors.Is(err, desktop.ErrHidden), errors.Is(err, desktop.ErrUnknownSize),
		errors.Is(err, desktop.ErrBadName), errors.Is(err, grid.ErrBadIndex),
		errors.Is(err, grid.ErrGeometry), errors.Is(err, grid.ErrBadArea):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	jsonErr(w, err.Error(), code)
}

// respond writes the layout after op, or the error it returned.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, code, s.layout())
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.layout())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.Snapshot())
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Key == "" {
		jsonErr(w, "key required", http.StatusBadRequest)
		return
	}
	for _, app := range s.apps.List() {
		if app.Key() == req.Key {
			s.respond(w, r, http.StatusCreated, s.desk.AddItem(app))
			return
		}
	}
	s.fail(w, r, catalog.ErrUnknownApp)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.desk.DeleteItem(chi.URLParam(r, "key")))
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.UpdateBadge(chi.URLParam(r, "key"), req.Count))
}

type createdResponse struct {
	ID any `json:"id"`
	layoutResponse
}

func (s *Server) handleAddWidget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size   string `json:"size"`
		Source string `json:"source"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := s.desk.AddWidget(req.Size, req.Source)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, layoutResponse: s.layout()})
}

func (s *Server) handleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		jsonErr(w, "widget id must be a number", http.StatusBadRequest)
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.RemoveWidget(id))
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusCreated, s.desk.AddBlankPage())
}

func (s *Server) handleTogglePage(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.desk.AddOrDeleteBlankPage())
}

func (s *Server) handleDragPage(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusCreated, s.desk.AddPageByDragging())
}

func (s *Server) handleActivePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.ChangeActivePage(req.Page))
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target  string `json:"target"`
		Dragged string `json:"dragged"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := s.desk.CreateFolder(req.Target, req.Dragged)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, layoutResponse: s.layout()})
}

func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.RenameFolder(chi.URLParam(r, "id"), req.Name))
}

func (s *Server) handleAddToFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.AddToFolder(req.Key, chi.URLParam(r, "id")))
}

func (s *Server) handleSetFolderApps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keys []string `json:"keys"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.SetFolderApps(chi.URLParam(r, "id"), req.Keys))
}

func (s *Server) handleRemoveFromFolder(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.desk.RemoveFromFolder(chi.URLParam(r, "id"), chi.URLParam(r, "key")))
}

func (s *Server) handleReorderFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.ReorderFolder(chi.URLParam(r, "id"), req.From, req.To))
}

func (s *Server) handleDock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.Dock())
}

func (s *Server) handleAddToDock(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Key   string `json:"key"`
		Index int    `json:"index"`
	}{Index: -1}
	if !decode(w, r, &req) {
		return
	}
	if req.Key == "" {
		jsonErr(w, "key required", http.StatusBadRequest)
		return
	}
	s.respond(w, r, http.StatusCreated, s.desk.AddToDock(req.Key, req.Index))
}

func (s *Server) handleRemoveFromDock(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.desk.RemoveFromDock(chi.URLParam(r, "key")))
}

func (s *Server) handleReorderDock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, http.StatusOK, s.desk.MoveInDock(req.From, req.To))
}

func (s *Server) handleOpenFolder(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.OpenFolder(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGetOpenFolder(w http.ResponseWriter, r *http.Request) {
	v := s.desk.Bus().OpenFolder.Get()
	if v == nil {
		jsonErr(w, "no open folder", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleFolderPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.desk.SetFolderPage(req.Page); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.desk.Bus().OpenFolder.Get())
}

func (s *Server) handleCloseFolder(w http.ResponseWriter, r *http.Request) {
	s.desk.CloseFolder()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEffectArea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Desktop *drag.Rect `json:"desktop"`
		Folder  *drag.Rect `json:"folder"`
		Dock    *drag.Rect `json:"dock"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Desktop != nil {
		s.desk.SetEffectArea(*req.Desktop)
	}
	if req.Folder != nil {
		s.desk.SetFolderEffectArea(*req.Folder)
	}
	if req.Dock != nil {
		s.desk.SetDockEffectArea(*req.Dock)
	}
	w.WriteHeader(http.StatusNoContent)
}

type pointerResponse struct {
	Drag signal.DragState `json:"drag"`
	layoutResponse
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		// Surface is "desktop" (default), "folder" or "dock".
		Surface string `json:"surface"`
		drag.Pointer
	}
	if !decode(w, r, &req) {
		return
	}
	switch req.Surface {
	case "", "desktop":
		s.desk.HandlePointer(req.Pointer)
	case "folder":
		s.desk.HandleFolderPointer(req.Pointer)
	case "dock":
		s.desk.HandleDockPointer(req.Pointer)
	default:
		jsonErr(w, "unknown surface "+strconv.Quote(req.Surface), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, pointerResponse{Drag: s.desk.Bus().Drag.Get(), layoutResponse: s.layout()})
}

func (s *Server) handleLongPress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.desk.SetLongPress(req.On)
	w.WriteHeader(http.StatusNoContent)
}

// handleGrid switches the grid by preset id or by explicit shape. A preset
// switch is written back to the config file when there is one.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset  *int `json:"preset"`
		Rows    int  `json:"rows"`
		Columns int  `json:"columns"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Preset == nil {
		s.respond(w, r, http.StatusOK, s.desk.SetGridConfig(desktop.GridSize{Rows: req.Rows, Columns: req.Columns}))
		return
	}

	id := *req.Preset
	if _, ok := s.cfg.GetPreset(id); !ok {
		jsonErr(w, "unknown grid preset "+strconv.Itoa(id), http.StatusBadRequest)
		return
	}
	if s.cfgPath != "" {
		if err := config.NewYAMLEditor(s.cfgPath).SetActiveGrid(id); err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, r, http.StatusOK, s.reloadConfig())
		return
	}
	cfg := *s.cfg
	cfg.Grid.Active = id
	s.respond(w, r, http.StatusOK, s.applyConfig(&cfg))
}

func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.reloadConfig())
}
