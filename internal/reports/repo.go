package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReportNotFound = errors.New("report not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, report *Report) (*Report, error) {
	if report.Name == "" || report.AthleteID == "" {
		return nil, errors.New("report name or athlete empty")
	}
	if report.CreatedAt.IsZero() {
		return nil, errors.New("report timestamp empty")
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO report (name, athlete_id, exercise_id, range_kind, mode, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id;`,
		report.Name, report.AthleteID, report.ExerciseID,
		report.RangeKind, report.Mode, report.Notes, report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	report.ID = id
	return report, nil
}

func (r *Repo) Get(ctx context.Context, reportID int) (*Report, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, athlete_id, exercise_id, range_kind, mode, notes, created_at
			FROM report WHERE id = $1;`,
		reportID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrReportNotFound
	}

	report, err := scanReport(rows.Scan)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Repo) Update(ctx context.Context, report *Report) error {
	if report.Name == "" {
		return errors.New("report name empty")
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE report SET name = $1, notes = $2 WHERE id = $3;`,
		report.Name, report.Notes, report.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM report WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, athleteID string) ([]Report, error) {
	query := `
		SELECT
			id, name, athlete_id, exercise_id, range_kind, mode, notes, created_at
		FROM report`
	args := []any{}
	if athleteID != "" {
		query += ` WHERE athlete_id = $1`
		args = append(args, athleteID)
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var reportsList []Report
	for rows.Next() {
		report, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		reportsList = append(reportsList, *report)
	}

	return reportsList, nil
}

func scanReport(scan func(dest ...any) error) (*Report, error) {
	var (
		id                  int
		name, athleteID     string
		exerciseID          string
		rangeKind, mode     string
		notes               string
		createdAt           time.Time
	)
	if err := scan(&id, &name, &athleteID, &exerciseID, &rangeKind, &mode, &notes, &createdAt); err != nil {
		return nil, err
	}
	return &Report{
		ID:         id,
		Name:       name,
		AthleteID:  athleteID,
		ExerciseID: exerciseID,
		RangeKind:  rangeKind,
		Mode:       mode,
		Notes:      notes,
		CreatedAt:  createdAt,
	}, nil
}
