package categories

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

//go:generate mockgen -source=$GOFILE -destination=categories_mocks_test.go -package=categories_test

type categoriesStore interface {
	List(ctx context.Context) ([]string, error)
	Suggested(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, categoryNames []string) error
	Add(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
}

type ListCategoriesResponse struct {
	Categories []string `json:"categories"`
}

type AddCategoryRequest struct {
	Name string `json:"name"`
}

type Handler struct {
	store categoriesStore
}

func NewHandler(store categoriesStore) *Handler {
	return &Handler{store: store}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/categories", handler.HandleList).Methods("GET", "OPTIONS").Name("get-categories")
	router.HandleFunc("/categories", handler.HandleReplace).Methods("PUT", "OPTIONS").Name("replace-categories")
	router.HandleFunc("/categories", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-category")
	router.HandleFunc("/categories/suggested", handler.HandleSuggested).Methods("GET", "OPTIONS").Name("get-suggested-categories")
	router.HandleFunc("/categories/{name}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-category")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.list")
	defer span.End()

	categoryNames, err := handler.store.List(ctx)
	if err != nil {
		log.Errorf("list categories error: %s", err)
		http.Error(w, "failed to get categories", http.StatusInternalServerError)
		return
	}

	handler.writeList(w, categoryNames)
}

func (handler *Handler) HandleSuggested(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.suggested")
	defer span.End()

	categoryNames, err := handler.store.Suggested(ctx)
	if err != nil {
		log.Errorf("suggested categories error: %s", err)
		http.Error(w, "failed to get suggested categories", http.StatusInternalServerError)
		return
	}

	handler.writeList(w, categoryNames)
}

func (handler *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.replace")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var replaceReq ListCategoriesResponse
	if err := json.NewDecoder(r.Body).Decode(&replaceReq); err != nil {
		log.Errorf("replace categories, unmarshal json params: %s", err)
		http.Error(w, "replace categories failed", http.StatusBadRequest)
		return
	}

	if err := handler.store.Replace(ctx, replaceReq.Categories); err != nil {
		log.Errorf("replace categories error: %s", err)
		http.Error(w, "failed to replace categories", http.StatusInternalServerError)
		return
	}

	handler.writeList(w, replaceReq.Categories)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var addReq AddCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Errorf("new category, unmarshal json params: %s", err)
		http.Error(w, "add category failed", http.StatusBadRequest)
		return
	}
	if addReq.Name == "" {
		http.Error(w, "error, category name empty", http.StatusBadRequest)
		return
	}

	if err := handler.store.Add(ctx, addReq.Name); err != nil {
		if errors.Is(err, ErrCategoryExists) {
			http.Error(w, "error, category already exists", http.StatusConflict)
			return
		}
		log.Errorf("add category [%s] error: %s", addReq.Name, err)
		http.Error(w, "failed to add category", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, []byte(`{"added":true}`), http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.categories.delete")
	defer span.End()

	vars := mux.Vars(r)
	name := vars["name"]
	if name == "" {
		http.Error(w, "error, category name empty", http.StatusBadRequest)
		return
	}

	if err := handler.store.Delete(ctx, name); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete category [%s] error: %s", name, err)
		http.Error(w, "category not deleted", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"deleted":true}`)
}

func (handler *Handler) writeList(w http.ResponseWriter, categoryNames []string) {
	listRespJson, err := json.Marshal(ListCategoriesResponse{Categories: categoryNames})
	if err != nil {
		log.Errorf("marshal categories error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listRespJson, http.StatusOK)
}
