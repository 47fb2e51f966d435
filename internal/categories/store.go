package categories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rafsoh/workout-tracker/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const (
	categoriesKey = "workout-tracker-categories"
	suggestedKey  = "workout-tracker-categories-suggested"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

// defaults served until the user stores their own list
var (
	defaultCategories = []string{"Run", "Walk", "Gym", "Swim", "Cycle", "Yoga"}
	defaultSuggested  = []string{"Football", "Basketball", "Bouldering", "Pilates", "Spin", "Calisthenics"}
)

// Store keeps the user's ordered workout type list and the suggested
// types list, each as one JSON blob in Redis.
type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redisClient: redisClient}
}

func (s *Store) List(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.categories.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.load(ctx, categoriesKey, defaultCategories)
}

func (s *Store) Suggested(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.categories.suggested")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.load(ctx, suggestedKey, defaultSuggested)
}

// Replace stores the given list as the new ordered category list.
func (s *Store) Replace(ctx context.Context, categoryNames []string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.categories.replace")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("categories.count", len(categoryNames)))

	return s.save(ctx, categoryNames)
}

// Add appends a category to the end of the list.
func (s *Store) Add(ctx context.Context, name string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.categories.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	categoryNames, err := s.load(ctx, categoriesKey, defaultCategories)
	if err != nil {
		return err
	}
	for _, existing := range categoryNames {
		if existing == name {
			return ErrCategoryExists
		}
	}

	return s.save(ctx, append(categoryNames, name))
}

// Delete removes a category from the list, keeping the order of the rest.
func (s *Store) Delete(ctx context.Context, name string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.categories.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	categoryNames, err := s.load(ctx, categoriesKey, defaultCategories)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(categoryNames))
	for _, existing := range categoryNames {
		if existing != name {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(categoryNames) {
		return ErrCategoryNotFound
	}

	return s.save(ctx, kept)
}

func (s *Store) load(ctx context.Context, key string, defaults []string) ([]string, error) {
	listJson, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return append([]string{}, defaults...), nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var categoryNames []string
	if err := json.Unmarshal([]byte(listJson), &categoryNames); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return categoryNames, nil
}

func (s *Store) save(ctx context.Context, categoryNames []string) error {
	listJson, err := json.Marshal(categoryNames)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	if err := s.redisClient.Set(ctx, categoriesKey, listJson, 0).Err(); err != nil {
		return fmt.Errorf("set categories: %w", err)
	}
	return nil
}
