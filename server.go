package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = 8 << 20

// User-facing error messages
const (
	ErrMsgInvalidRequest      = "Invalid request. Please check your inputs."
	ErrMsgItemNotFound        = "Item not found"
	ErrMsgBackupNotFound      = "Backup not found"
	ErrMsgUnsupportedSite     = "Unsupported site. Only supported sites can be added."
	ErrMsgMetadataUnavailable = "Could not load metadata for this URL"
	ErrMsgConfigMismatch      = "Config block does not match the item type"
	ErrMsgGenericServerError  = "Something went wrong"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Server exposes the board over HTTP
type Server struct {
	board     *Board
	store     DocumentStore
	resolver  MetadataResolver
	processor *ScrapProcessor
	archive   *Archive
	validate  *validator.Validate

	// textMu serialises read-modify-write of the text and style documents
	textMu sync.Mutex
}

func NewServer(board *Board, store DocumentStore, resolver MetadataResolver, processor *ScrapProcessor, archive *Archive) *Server {
	return &Server{
		board:     board,
		store:     store,
		resolver:  resolver,
		processor: processor,
		archive:   archive,
		validate:  validator.New(),
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Post("/", s.handleIntake)
			r.Post("/manual", s.handleCreateManual)
			r.Delete("/", s.handleClearFiltered)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Delete("/", s.handleDeleteItem)
				r.Patch("/position", s.handleUpdatePosition)
				r.Patch("/metadata", s.handleUpdateMetadata)
				r.Post("/front", s.handleBringToFront)
				r.Post("/main", s.handleSetMain)
				r.Post("/favorite", s.handleToggleFavorite)
				r.Put("/border", s.handleSetBorder)
				r.Post("/gestures", s.handleGestures)
			})
		})

		r.Delete("/scopes/{key}", s.handleDeleteScope)

		r.Get("/text", s.handleGetText)
		r.Put("/text/{key}/{field}", s.handleUpdateText)
		r.Get("/style", s.handleGetStyle)
		r.Put("/style", s.handleUpdateStyle)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", s.handleListBackups)
			r.Post("/", s.handleCreateBackup)
			r.Post("/{backupID}/restore", s.handleRestoreBackup)
			r.Delete("/{backupID}", s.handleDeleteBackup)
		})
	})

	return r
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		log.Printf("✗ Failed to encode JSON response: %v", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		debugLog("writing response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps domain errors to a status and message
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrUnknownTextField):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConfigMismatch):
		respondError(w, http.StatusBadRequest, ErrMsgConfigMismatch)
	case errors.Is(err, ErrItemNotFound):
		respondError(w, http.StatusNotFound, ErrMsgItemNotFound)
	case errors.Is(err, ErrBackupNotFound):
		respondError(w, http.StatusNotFound, ErrMsgBackupNotFound)
	case errors.Is(err, ErrUnsupportedSite):
		respondError(w, http.StatusUnprocessableEntity, ErrMsgUnsupportedSite)
	case errors.Is(err, ErrMetadataUnavailable):
		respondError(w, http.StatusBadGateway, ErrMsgMetadataUnavailable)
	default:
		log.Printf("✗ Request failed: %v", err)
		respondError(w, http.StatusInternalServerError, ErrMsgGenericServerError)
	}
}

// formatValidationError turns validator errors into a field -> message map
func formatValidationError(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "url", "http_url":
			errs[field] = "Must be an absolute http(s) URL"
		case "oneof":
			errs[field] = fmt.Sprintf("Must be one of: %s", e.Param())
		case "hexcolor":
			errs[field] = "Must be a hex color"
		case "gte", "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		case "lte", "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}
	return errs
}

// decodeAndValidate reads a JSON body into dst and checks its tags. It
// writes the error response itself and reports whether the caller may go on.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		debugLog("decoding request body: %v", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  ErrMsgInvalidRequest,
			Fields: formatValidationError(err),
		})
		return false
	}
	return true
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) bool {
	if err := s.board.Save(r.Context(), s.store); err != nil {
		respondServiceError(w, err)
		return false
	}
	return true
}

// itemOr404 looks up the {id} item and writes a 404 when it is missing
func (s *Server) itemOr404(w http.ResponseWriter, r *http.Request) (ScrapItem, bool) {
	item, ok := s.board.Item(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, ErrMsgItemNotFound)
	}
	return item, ok
}

// respondItem writes the current state of the item after a mutation
func (s *Server) respondItem(w http.ResponseWriter, r *http.Request, id string) {
	if !s.save(w, r) {
		return
	}
	item, ok := s.board.Item(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrMsgItemNotFound)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scopeParams reads ?scope= and ?date=, defaulting to all items and today
func scopeParams(r *http.Request) (ScopeKind, time.Time, error) {
	kind, err := ParseScopeKind(r.URL.Query().Get("scope"))
	if err != nil {
		return "", time.Time{}, err
	}
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if date, err = ParseScopeDate(raw); err != nil {
			return "", time.Time{}, err
		}
	}
	return kind, date, nil
}

type resolveResponse struct {
	Type     ContentType `json:"type"`
	Strategy string      `json:"strategy"`
	Fallback bool        `json:"fallback"`
	Metadata *Metadata   `json:"metadata"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if err := validateURL(rawURL); err != nil {
		respondServiceError(w, err)
		return
	}

	contentType := Classify(rawURL)
	resolved := s.resolver.Resolve(r.Context(), rawURL, contentType)
	respondJSON(w, http.StatusOK, resolveResponse{
		Type:     contentType,
		Strategy: resolved.Strategy,
		Fallback: resolved.Fallback,
		Metadata: resolved.Metadata,
	})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	kind, date, err := scopeParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := s.board.Filter(kind, date)
	if items == nil {
		items = []ScrapItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// spawnRequest is the shared placement part of create requests
type spawnRequest struct {
	Layout Layout  `json:"layout" validate:"omitempty,oneof=home free monthly weekly favorites all_scraps"`
	Date   string  `json:"date"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

func (sr spawnRequest) spawnContext() (SpawnContext, error) {
	spawn := SpawnContext{Layout: sr.Layout, Width: sr.Width, Height: sr.Height}
	if sr.Date != "" {
		date, err := ParseScopeDate(sr.Date)
		if err != nil {
			return SpawnContext{}, err
		}
		spawn.Date = date
	}
	return spawn, nil
}

type intakeRequest struct {
	URL string `json:"url" validate:"required,url"`
	spawnRequest
	YouTube *YouTubeConfig `json:"youtubeConfig,omitempty"`
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	spawn, err := req.spawnContext()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.processor.Intake(r.Context(), req.URL, IntakeOptions{Spawn: spawn, YouTube: req.YouTube})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

type manualRequest struct {
	Type     ContentType `json:"type" validate:"required"`
	Metadata Metadata    `json:"metadata"`
	spawnRequest
}

func (s *Server) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !req.Type.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown content type %q", req.Type))
		return
	}
	spawn, err := req.spawnContext()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.processor.CreateManual(r.Context(), req.Type, req.Metadata, spawn)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleClearFiltered(w http.ResponseWriter, r *http.Request) {
	kind, date, err := scopeParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	removed := s.board.ClearFiltered(kind, date)
	if !s.save(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleDeleteScope(w http.ResponseWriter, r *http.Request) {
	removed := s.board.DeleteByScope(chi.URLParam(r, "key"))
	if !s.save(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	if item, ok := s.itemOr404(w, r); ok {
		respondJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.itemOr404(w, r)
	if !ok {
		return
	}
	s.board.Delete(item.ID)
	if s.save(w, r) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	item, ok := s.itemOr404(w, r)
	if !ok {
		return
	}
	var patch PositionPatch
	if !s.decodeAndValidate(w, r, &patch) {
		return
	}
	s.board.UpdatePosition(item.ID, patch)
	s.respondItem(w, r, item.ID)
}

type metadataPatchRequest struct {
	MetadataPatch
	Config json.RawMessage `json:"config,omitempty"`
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	item, ok := s.itemOr404(w, r)
	if !ok {
		return
	}
	var req metadataPatchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	patch := req.MetadataPatch
	if len(req.Config) > 0 {
		cfg, err := DecodeTypeConfig(item.Type, req.Config)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		patch.Config = cfg
	}

	if err := s.board.UpdateMetadata(item.ID, patch); err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondItem(w, r, item.ID)
}

func (s *Server) handleBringToFront(w http.ResponseWriter, r *http.Request) {
	if item, ok := s.itemOr404(w, r); ok {
		s.board.BringToFront(item.ID)
		s.respondItem(w, r, item.ID)
	}
}

func (s *Server) handleSetMain(w http.ResponseWriter, r *http.Request) {
	if item, ok := s.itemOr404(w, r); ok {
		s.board.SetMainItem(item.ID)
		s.respondItem(w, r, item.ID)
	}
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if item, ok := s.itemOr404(w, r); ok {
		s.board.ToggleFavorite(item.ID)
		s.respondItem(w, r, item.ID)
	}
}

type borderRequest struct {
	Style BorderStyle `json:"style" validate:"required,oneof=none stitch marker tape shadow"`
}

func (s *Server) handleSetBorder(w http.ResponseWriter, r *http.Request) {
	item, ok := s.itemOr404(w, r)
	if !ok {
		return
	}
	var req borderRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	s.board.SetBorderStyle(item.ID, req.Style)
	s.respondItem(w, r, item.ID)
}

type gestureRequest struct {
	SnapToGrid bool           `json:"snapToGrid"`
	Events     []PointerEvent `json:"events" validate:"required,min=1,dive"`
}

// handleGestures replays a recorded pointer sequence through a controller
// for the item and returns the final item state
func (s *Server) handleGestures(w http.ResponseWriter, r *http.Request) {
	item, ok := s.itemOr404(w, r)
	if !ok {
		return
	}
	var req gestureRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	controller := NewGestureController(s.board, item.ID, req.SnapToGrid)
	for _, ev := range req.Events {
		controller.Handle(ev)
	}
	s.respondItem(w, r, item.ID)
}

func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	text, err := LoadTextData(r.Context(), s.store)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, text)
}

type textRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	s.textMu.Lock()
	defer s.textMu.Unlock()

	text, err := LoadTextData(r.Context(), s.store)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	key := chi.URLParam(r, "key")
	next, err := text.UpdateText(key, chi.URLParam(r, "field"), req.Value)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := SaveTextData(r.Context(), s.store, next); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, next[key])
}

func (s *Server) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	style, err := LoadStyle(r.Context(), s.store)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, style)
}

func (s *Server) handleUpdateStyle(w http.ResponseWriter, r *http.Request) {
	s.textMu.Lock()
	defer s.textMu.Unlock()

	// unset fields keep their stored value
	style, err := LoadStyle(r.Context(), s.store)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !s.decodeAndValidate(w, r, &style) {
		return
	}
	if err := SaveStyle(r.Context(), s.store, style); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, style)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.archive.Export(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	var buf bytes.Buffer
	if err := WriteExport(&buf, doc, format); err != nil {
		respondServiceError(w, err)
		return
	}

	ext, contentType := "json", "application/json"
	if format == "yaml" {
		ext, contentType = "yaml", "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="scrap-diary-backup-%s.%s"`, doc.ExportDate.Format("2006-01-02"), ext))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}
	doc, err := ReadExport(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.textMu.Lock()
	defer s.textMu.Unlock()
	if err := s.archive.Import(r.Context(), doc); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"items": len(s.board.Items())})
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.archive.ListBackups(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if backups == nil {
		backups = []BackupSummary{}
	}
	respondJSON(w, http.StatusOK, backups)
}

type backupRequest struct {
	Description string `json:"description" validate:"max=200"`
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if r.ContentLength != 0 && !s.decodeAndValidate(w, r, &req) {
		return
	}
	backup, err := s.archive.CreateBackup(r.Context(), req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, BackupSummary{
		ID:          backup.ID,
		Timestamp:   backup.Timestamp,
		Items:       len(backup.Items),
		Description: backup.Description,
	})
}

func backupID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "backupID"))
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	id, err := backupID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}

	s.textMu.Lock()
	defer s.textMu.Unlock()
	backup, err := s.archive.RestoreBackup(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"id": backup.ID, "items": len(backup.Items)})
}

func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	id, err := backupID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}
	if err := s.archive.DeleteBackup(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
