package templates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rafsoh/workout-tracker/internal/telemetry/tracing"
	"github.com/rafsoh/workout-tracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=templates_mocks_test.go -package=templates_test

type templatesStore interface {
	List(ctx context.Context) ([]Template, error)
	Get(ctx context.Context, id string) (*Template, error)
	Add(ctx context.Context, template Template) (*Template, error)
	Update(ctx context.Context, template Template) error
	Delete(ctx context.Context, id string) error
}

type DeleteTemplateResponse struct {
	DeletedID string `json:"deletedId"`
}

type UpdateTemplateResponse struct {
	UpdatedID string `json:"updatedId"`
}

type Handler struct {
	store templatesStore
}

func NewHandler(store templatesStore) *Handler {
	return &Handler{
		store: store,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/templates", handler.HandleList).Methods("GET", "OPTIONS").Name("list-templates")
	router.HandleFunc("/templates", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-template")
	router.HandleFunc("/templates", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-template")
	router.HandleFunc("/templates/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-template")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.list")
	defer span.End()

	templates, err := handler.store.List(ctx)
	if err != nil {
		log.Errorf("list templates error: %s", err)
		http.Error(w, "failed to get templates", http.StatusInternalServerError)
		return
	}

	templatesJson, err := json.Marshal(templates)
	if err != nil {
		log.Errorf("marshal templates error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, templatesJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var template Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		log.Tracef("new template, unmarshal json params: %s", err)
		http.Error(w, "add template failed", http.StatusBadRequest)
		return
	}

	if template.Type == "" {
		http.Error(w, "error, template type empty", http.StatusBadRequest)
		return
	}

	addedTemplate, err := handler.store.Add(ctx, template)
	if err != nil {
		log.Errorf("failed to add new template [%s]: %s", template.Type, err)
		http.Error(w, "error, failed to add new template", http.StatusInternalServerError)
		return
	}

	addedTemplateJson, err := json.Marshal(addedTemplate)
	if err != nil {
		log.Errorf("failed to marshal new template: %s", err)
		http.Error(w, "error, failed to add new template", http.StatusInternalServerError)
		return
	}

	log.Debugf("new template added: %s", addedTemplateJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedTemplateJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.update")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var template Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		log.Errorf("update template, unmarshal json params: %s", err)
		http.Error(w, "update template failed", http.StatusBadRequest)
		return
	}

	if template.ID == "" {
		http.Error(w, "error, template id empty", http.StatusBadRequest)
		return
	}

	if err := handler.store.Update(ctx, template); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update template [%s]: %s", template.ID, err)
		http.Error(w, "error, failed to update template", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateTemplateResponse{
		UpdatedID: template.ID,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.delete")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			log.Debugf("template %s not found", id)
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete template %s: %s", id, err)
		http.Error(w, "template not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteTemplateResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
