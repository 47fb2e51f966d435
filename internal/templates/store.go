package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rafsoh/workout-tracker/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const templatesKey = "workout-tracker-templates"

var ErrTemplateNotFound = errors.New("template not found")

// Store keeps the whole template list as a single JSON blob in redis,
// mirroring the flat key-value persistence of the original app.
type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
	}
}

func (s *Store) List(ctx context.Context) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cmd := s.redisClient.Get(ctx, templatesKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return []Template{}, nil
		}
		return nil, err
	}

	var templates []Template
	if err := json.Unmarshal([]byte(cmd.Val()), &templates); err != nil {
		return nil, fmt.Errorf("unmarshal templates: %w", err)
	}

	span.SetAttributes(attribute.Int("templates.count", len(templates)))
	return templates, nil
}

func (s *Store) Get(ctx context.Context, id string) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.templates.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	templates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}

	return nil, ErrTemplateNotFound
}

func (s *Store) Add(ctx context.Context, template Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.templates.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	templates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("id", template.ID))

	templates = append(templates, template)
	if err := s.save(ctx, templates); err != nil {
		return nil, err
	}

	return &template, nil
}

func (s *Store) Update(ctx context.Context, template Template) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.templates.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", template.ID))

	templates, err := s.List(ctx)
	if err != nil {
		return err
	}

	for i := range templates {
		if templates[i].ID == template.ID {
			templates[i] = template
			return s.save(ctx, templates)
		}
	}

	return ErrTemplateNotFound
}

func (s *Store) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.templates.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	templates, err := s.List(ctx)
	if err != nil {
		return err
	}

	for i := range templates {
		if templates[i].ID == id {
			templates = append(templates[:i], templates[i+1:]...)
			return s.save(ctx, templates)
		}
	}

	return ErrTemplateNotFound
}

func (s *Store) save(ctx context.Context, templates []Template) error {
	templatesJson, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}
	if err := s.redisClient.Set(ctx, templatesKey, templatesJson, 0).Err(); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}
