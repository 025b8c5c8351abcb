package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"noteapp-server/internal/domain"
	"noteapp-server/internal/service"
	"noteapp-server/pkg/response"

	"github.com/gorilla/mux"
)

type NoteHandler struct {
	service  *service.NoteService
	validate *RequestValidator
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: NewRequestValidator(),
	}
}

// Register mounts the note routes under /api.
func (h *NoteHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/notes", h.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/notes", h.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}", h.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}/text", h.GetText).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}/stats", h.GetStats).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}", h.Update).Methods("PATCH", "PUT", "OPTIONS")
	api.HandleFunc("/notes/{id}", h.Delete).Methods("DELETE", "OPTIONS")
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	note, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Created(w, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, page, verr := parseListQuery(r)
	if verr != nil {
		writeServiceError(w, r, verr)
		return
	}

	previews, err := h.service.ListPreviews(r.Context(), filter, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, previews)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := h.service.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) GetText(w http.ResponseWriter, r *http.Request) {
	text, err := h.service.GetText(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, text)
}

func (h *NoteHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, stats)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	note, err := h.service.Update(r.Context(), mux.Vars(r)["id"], req.ToPatch())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Message(w, "Note deleted successfully")
}

// parseListQuery reads page, size and tags. Tags may repeat and each value
// may hold a comma-separated list.
func parseListQuery(r *http.Request) (domain.TagFilter, domain.PageRequest, *service.ValidationError) {
	q := r.URL.Query()
	verr := service.NewValidationError()
	page := domain.DefaultPageRequest()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr.Add("page", service.MsgPageIndex)
		} else {
			page.Page = n
		}
	}

	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > domain.MaxPageSize {
			verr.Add("size", service.MsgPageSize)
		} else {
			page.Size = n
		}
	}

	if page.OffsetOverflows() {
		verr.Add("page", service.MsgPageIndex)
	}

	var filter domain.TagFilter
	for _, value := range q["tags"] {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			tag, err := domain.ParseTag(part)
			if err != nil {
				verr.Add("tags["+strconv.Itoa(len(filter))+"]", service.MsgUnknownTag)
			}
			filter = append(filter, tag)
		}
	}

	if verr.HasErrors() {
		return nil, page, verr
	}
	return filter, page, nil
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		saveErr       *service.SaveError
		storeErr      *service.StoreError
	)

	switch {
	case errors.As(err, &validationErr):
		response.ValidationFailed(w, validationErr.Fields)
	case errors.As(err, &notFoundErr):
		response.NotFound(w, "Note not found")
	case errors.As(err, &saveErr):
		response.BadRequest(w, service.SaveMessage)
	case errors.As(err, &storeErr):
		response.BadRequest(w, service.StoreMessage)
	default:
		slog.ErrorContext(r.Context(), "unhandled request error", "path", r.URL.Path, "error", err)
		response.InternalError(w, "Internal server error")
	}
}
