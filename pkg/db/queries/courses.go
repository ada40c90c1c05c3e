package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
)

const courseColumns = `course_id, course_name, description, fees, start_date, end_date, video_expire_days`

// CourseFilter bounds a course listing. Both bounds are inclusive and optional.
type CourseFilter struct {
	StartFrom sql.NullTime // start_date >= StartFrom
	EndUntil  sql.NullTime // end_date <= EndUntil
}

// FindActiveCourses returns the courses whose end date is on or after today.
func FindActiveCourses(ctx context.Context, q sqlx.QueryerContext, today time.Time) ([]db.Course, error) {
	courses := []db.Course{}
	query := `SELECT ` + courseColumns + ` FROM courses WHERE end_date >= $1::date ORDER BY start_date, course_id`
	if err := sqlx.SelectContext(ctx, q, &courses, query, today.Format(time.DateOnly)); err != nil {
		log.Errorf("Error finding active courses: %v", err)
		return nil, fmt.Errorf("error finding active courses: %w", err)
	}
	return courses, nil
}

// FindCourses returns all courses matching the filter.
func FindCourses(ctx context.Context, q sqlx.QueryerContext, filter CourseFilter) ([]db.Course, error) {
	courses := []db.Course{}
	query := `SELECT ` + courseColumns + ` FROM courses
		WHERE ($1::date IS NULL OR start_date >= $1::date)
		  AND ($2::date IS NULL OR end_date <= $2::date)
		ORDER BY start_date, course_id`
	if err := sqlx.SelectContext(ctx, q, &courses, query, dateArg(filter.StartFrom), dateArg(filter.EndUntil)); err != nil {
		log.Errorf("Error finding courses: %v", err)
		return nil, fmt.Errorf("error finding courses: %w", err)
	}
	return courses, nil
}

// FindCourseByIDForUpdate retrieves a course and locks its row; use it inside
// a transaction. It returns nil, nil when the course does not exist.
func FindCourseByIDForUpdate(ctx context.Context, q sqlx.QueryerContext, id int64) (*db.Course, error) {
	course := &db.Course{}
	query := `SELECT ` + courseColumns + ` FROM courses WHERE course_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, q, course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("Course with ID '%d' not found.", id)
			return nil, nil
		}
		log.Errorf("Error finding course by ID '%d': %v", id, err)
		return nil, fmt.Errorf("error finding course by ID: %w", err)
	}
	return course, nil
}

// CourseExists reports whether a course with the given id exists.
func CourseExists(ctx context.Context, q sqlx.QueryerContext, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM courses WHERE course_id = $1)`
	if err := sqlx.GetContext(ctx, q, &exists, query, id); err != nil {
		log.Errorf("Error checking course '%d' existence: %v", id, err)
		return false, fmt.Errorf("error checking course existence: %w", err)
	}
	return exists, nil
}

// CreateCourse inserts a course and stores the generated id in course.ID.
func CreateCourse(ctx context.Context, q sqlx.ExtContext, course *db.Course) error {
	query := `
		INSERT INTO courses (course_name, description, fees, start_date, end_date, video_expire_days)
		VALUES (:course_name, :description, :fees, :start_date, :end_date, :video_expire_days)
		RETURNING course_id`

	rows, err := sqlx.NamedQueryContext(ctx, q, query, course)
	if err != nil {
		log.Errorf("Error creating course: %v", err)
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return fmt.Errorf("no rows returned after course creation")
	}
	if err := rows.Scan(&course.ID); err != nil {
		return fmt.Errorf("error scanning course id after creation: %w", err)
	}

	log.Infof("Course '%s' created with ID: %d", course.Name, course.ID)
	return nil
}

// UpdateCourse writes every column of course. It returns sql.ErrNoRows when
// no course has course.ID.
func UpdateCourse(ctx context.Context, q sqlx.ExtContext, course *db.Course) error {
	query := `
		UPDATE courses
		SET course_name = :course_name, description = :description, fees = :fees,
		    start_date = :start_date, end_date = :end_date, video_expire_days = :video_expire_days
		WHERE course_id = :course_id`

	result, err := sqlx.NamedExecContext(ctx, q, query, course)
	if err != nil {
		log.Errorf("Error updating course with ID '%d': %v", course.ID, err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Warnf("No course found with ID '%d' for update.", course.ID)
		return sql.ErrNoRows
	}

	log.Infof("Course with ID '%d' updated.", course.ID)
	return nil
}

// DeleteCourse removes a course. It returns sql.ErrNoRows when it does not exist.
func DeleteCourse(ctx context.Context, q sqlx.ExecerContext, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, id)
	if err != nil {
		log.Errorf("Error deleting course with ID '%d': %v", id, err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Warnf("No course found with ID '%d' for deletion.", id)
		return sql.ErrNoRows
	}

	log.Infof("Course with ID '%d' deleted.", id)
	return nil
}

func dateArg(t sql.NullTime) any {
	if !t.Valid {
		return nil
	}
	return t.Time.Format(time.DateOnly)
}
