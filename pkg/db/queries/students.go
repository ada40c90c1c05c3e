package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
)

// FindEnrollment retrieves the enrollment of email in courseID, or nil, nil.
func FindEnrollment(ctx context.Context, q sqlx.QueryerContext, email string, courseID int64) (*db.Student, error) {
	student := &db.Student{}
	query := `SELECT reg_no, name, email, course_id, mobile_no FROM students WHERE email = $1 AND course_id = $2`
	if err := sqlx.GetContext(ctx, q, student, query, email, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("Error finding enrollment of '%s' in course '%d': %v", email, courseID, err)
		return nil, err
	}
	return student, nil
}

// CreateStudent inserts an enrollment row and returns the number of rows written.
func CreateStudent(ctx context.Context, q sqlx.ExtContext, student *db.Student) (int64, error) {
	query := `
		INSERT INTO students (name, email, course_id, mobile_no)
		VALUES (:name, :email, :course_id, :mobile_no)`
	result, err := sqlx.NamedExecContext(ctx, q, query, student)
	if err != nil {
		log.Errorf("Error enrolling '%s' in course '%d': %v", student.Email, student.CourseID, err)
		return 0, err
	}
	return result.RowsAffected()
}
