package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rafsoh/workout-tracker/internal/telemetry/metrics"
	"github.com/rafsoh/workout-tracker/internal/telemetry/tracing"
	"github.com/rafsoh/workout-tracker/internal/templates"
	"github.com/rafsoh/workout-tracker/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, id string) (*Workout, error)
	Update(ctx context.Context, workout *Workout) error
	SetCompleted(ctx context.Context, id string, completed bool) error
	SetFavourite(ctx context.Context, id string, favourite bool) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]Workout, error)
	Count(ctx context.Context) (int, error)
}

type templateGetter interface {
	Get(ctx context.Context, id string) (*templates.Template, error)
}

type AddWorkoutRequest struct {
	Workout
	// optional, applies a stored template into the draft before normalization
	TemplateID string `json:"templateId,omitempty"`
}

type UpdateWorkoutResponse struct {
	UpdatedID string `json:"updatedId"`
}

type DeleteWorkoutResponse struct {
	DeletedID string `json:"deletedId"`
}

type ListResponse struct {
	Workouts []Workout `json:"workouts"`
	Total    int       `json:"total"`
}

type CalendarDay struct {
	Day      string    `json:"day"`
	Workouts []Workout `json:"workouts"`
}

type CalendarResponse struct {
	Days []CalendarDay `json:"days"`
}

type Handler struct {
	repo           workoutsRepo
	templates      templateGetter
	metricsManager *metrics.Manager
	// ability to inject the reference instant (for unit and dev testing)
	NowFunc func() time.Time
}

func NewHandler(repo workoutsRepo, templateStore templateGetter, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		templates:      templateStore,
		metricsManager: metricsManager,
		NowFunc:        time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	router.HandleFunc("/workouts", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	router.HandleFunc("/workouts/list/{bucket}", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	router.HandleFunc("/workouts/calendar/{year}/{month}", handler.HandleCalendar).Methods("GET", "OPTIONS").Name("workouts-calendar")
	router.HandleFunc("/workouts/day/{day}", handler.HandleDay).Methods("GET", "OPTIONS").Name("workouts-day")
	router.HandleFunc("/workouts/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	router.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")
	router.HandleFunc("/workouts/{id}/completed", handler.HandleSetCompleted).Methods("PUT", "OPTIONS").Name("workout-completed")
	router.HandleFunc("/workouts/{id}/incomplete", handler.HandleSetIncomplete).Methods("PUT", "OPTIONS").Name("workout-incomplete")
	router.HandleFunc("/workouts/{id}/favourite", handler.HandleSetFavourite).Methods("PUT", "OPTIONS").Name("workout-favourite")
	router.HandleFunc("/workouts/{id}/unfavourite", handler.HandleUnsetFavourite).Methods("PUT", "OPTIONS").Name("workout-unfavourite")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var addReq AddWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	workout := addReq.Workout
	if addReq.TemplateID != "" {
		template, err := handler.templates.Get(ctx, addReq.TemplateID)
		if err != nil {
			log.Errorf("new workout, apply template %s: %s", addReq.TemplateID, err)
			http.Error(w, "error, template not found", http.StatusBadRequest)
			return
		}
		if workout.Description == "" {
			workout.Description = template.Description
		}
		if workout.Type == "" {
			workout.Type = template.Type
		}
		if workout.Location == "" {
			workout.Location = template.Location
		}
	}

	if workout.Type == "" {
		http.Error(w, "error, workout type empty", http.StatusBadRequest)
		return
	}

	now := handler.NowFunc()
	if workout.Date.IsZero() {
		workout.Date = now
	}
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = now
	}
	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}

	workout.Normalize()
	workout.ReconcileCompletion(now)

	addedWorkout, err := handler.repo.Add(ctx, workout)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "error, workout id already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to add new workout [%s]: %s", workout.Type, err)
		http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsAdded.Inc()

	addedWorkoutJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("failed to marshal new workout: %s", err)
		http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout added: %s", addedWorkoutJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedWorkoutJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %s: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "failed to marshal workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	if workout.ID == "" {
		http.Error(w, "error, workout id empty", http.StatusBadRequest)
		return
	}
	if workout.Type == "" {
		http.Error(w, "error, workout type empty", http.StatusBadRequest)
		return
	}

	currentWorkout, err := handler.repo.Get(ctx, workout.ID)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			log.Debugf("workout %s not found", workout.ID)
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %s: %s", workout.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	log.Debugf("update workout %+v -> %+v", currentWorkout, workout)

	// the edit flow always re-derives completion from the new date, healing
	// the future-dated-but-completed state a direct toggle can produce
	workout.ReconcileCompletion(handler.NowFunc())

	if err := handler.repo.Update(ctx, &workout); err != nil {
		log.Errorf("failed to update workout [%s]: %s", workout.ID, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateWorkoutResponse{
		UpdatedID: workout.ID,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			log.Debugf("workout %s not found", id)
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout %s: %s", id, err)
		http.Error(w, "workout not deleted", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsDeleted.Inc()

	deleteRespJson, err := json.Marshal(DeleteWorkoutResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) HandleSetCompleted(w http.ResponseWriter, r *http.Request) {
	handler.handleSetFlag(w, r, "handler.workouts.completed", func(ctx context.Context, id string) error {
		return handler.repo.SetCompleted(ctx, id, true)
	})
}

func (handler *Handler) HandleSetIncomplete(w http.ResponseWriter, r *http.Request) {
	handler.handleSetFlag(w, r, "handler.workouts.incomplete", func(ctx context.Context, id string) error {
		return handler.repo.SetCompleted(ctx, id, false)
	})
}

func (handler *Handler) HandleSetFavourite(w http.ResponseWriter, r *http.Request) {
	handler.handleSetFlag(w, r, "handler.workouts.favourite", func(ctx context.Context, id string) error {
		return handler.repo.SetFavourite(ctx, id, true)
	})
}

func (handler *Handler) HandleUnsetFavourite(w http.ResponseWriter, r *http.Request) {
	handler.handleSetFlag(w, r, "handler.workouts.unfavourite", func(ctx context.Context, id string) error {
		return handler.repo.SetFavourite(ctx, id, false)
	})
}

func (handler *Handler) handleSetFlag(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	setFlag func(ctx context.Context, id string) error,
) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), spanName)
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := setFlag(ctx, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update workout %s: %s", id, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateWorkoutResponse{
		UpdatedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	vars := mux.Vars(r)
	bucketStr := vars["bucket"]

	// unknown bucket values degrade to an empty view, not an error
	bucket, _ := ParseBucket(bucketStr)

	records, err := handler.repo.ListAll(ctx)
	if err != nil {
		log.Errorf("list workouts error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	matched := Query(records, handler.NowFunc(), QueryParams{
		Bucket:     bucket,
		TypeFilter: r.URL.Query().Get("type"),
		SearchText: r.URL.Query().Get("q"),
	})

	listRespJson, err := json.Marshal(ListResponse{
		Workouts: matched,
		Total:    len(matched),
	})
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listRespJson, http.StatusOK)
}

func (handler *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.calendar")
	defer span.End()

	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "error, year NaN", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "error, invalid month", http.StatusBadRequest)
		return
	}

	records, err := handler.repo.ListAll(ctx)
	if err != nil {
		log.Errorf("workouts calendar error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	dayIndex := BuildDayIndex(records)

	var days []CalendarDay
	for day, dayWorkouts := range dayIndex {
		if day.Year() != year || int(day.Month()) != month {
			continue
		}
		days = append(days, CalendarDay{
			Day:      day.Format("2006-01-02"),
			Workouts: dayWorkouts,
		})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Day < days[j].Day
	})
	if days == nil {
		days = make([]CalendarDay, 0)
	}

	calendarRespJson, err := json.Marshal(CalendarResponse{Days: days})
	if err != nil {
		log.Errorf("marshal workouts calendar error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, calendarRespJson, http.StatusOK)
}

func (handler *Handler) HandleDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.day")
	defer span.End()

	vars := mux.Vars(r)
	day, err := time.ParseInLocation("2006-01-02", vars["day"], time.Local)
	if err != nil {
		http.Error(w, fmt.Sprintf("error, invalid day: %s", vars["day"]), http.StatusBadRequest)
		return
	}

	records, err := handler.repo.ListAll(ctx)
	if err != nil {
		log.Errorf("workouts day error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	dayWorkouts := BuildDayIndex(records)[StartOfDay(day)]
	if dayWorkouts == nil {
		dayWorkouts = make([]Workout, 0)
	}

	listRespJson, err := json.Marshal(ListResponse{
		Workouts: dayWorkouts,
		Total:    len(dayWorkouts),
	})
	if err != nil {
		log.Errorf("marshal workouts day error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listRespJson, http.StatusOK)
}
