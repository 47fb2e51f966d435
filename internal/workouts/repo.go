package workouts

import (
	"context"
	"errors"
	"time"

	"github.com/rafsoh/workout-tracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workout.ID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout
				(id, description, workout_type, location, date, is_completed, is_favourite, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		workout.ID, workout.Description, workout.Type, workout.Location,
		workout.Date, workout.IsCompleted, workout.Favourite, workout.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, description, workout_type, location, date, is_completed, is_favourite, created_at
			FROM workout
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

func (r *Repo) Update(ctx context.Context, workout *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", workout.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout
			SET description = $1, workout_type = $2, location = $3, date = $4, is_completed = $5, is_favourite = $6
			WHERE id = $7;`,
		workout.Description, workout.Type, workout.Location,
		workout.Date, workout.IsCompleted, workout.Favourite, workout.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

func (r *Repo) SetCompleted(ctx context.Context, id string, completed bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.setcompleted")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))
	span.SetAttributes(attribute.Bool("completed", completed))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET is_completed = $1 WHERE id = $2;`,
		completed, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) SetFavourite(ctx context.Context, id string, favourite bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.setfavourite")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))
	span.SetAttributes(attribute.Bool("favourite", favourite))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET is_favourite = $1 WHERE id = $2;`,
		favourite, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// ListAll returns every stored workout. Bucket/type/search narrowing happens
// in the query engine, which needs the full record set.
func (r *Repo) ListAll(ctx context.Context) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, description, workout_type, location, date, is_completed, is_favourite, created_at
			FROM workout
			ORDER BY date DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))
	return workouts, nil
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT COUNT(*) FROM workout;`)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get workouts count")
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var id string
		var description string
		var workoutType string
		var location string
		var date time.Time
		var isCompleted bool
		var favourite bool
		var createdAt time.Time
		if err := rows.Scan(&id, &description, &workoutType, &location, &date, &isCompleted, &favourite, &createdAt); err != nil {
			return nil, err
		}

		workouts = append(workouts, Workout{
			ID:          id,
			Description: description,
			Type:        workoutType,
			Location:    location,
			Date:        date,
			IsCompleted: isCompleted,
			Favourite:   favourite,
			CreatedAt:   createdAt,
		})
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}
