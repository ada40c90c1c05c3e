package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/apperrors"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/db/queries"
)

var errZeroRows = errors.New("something went wrong")

type EnrollmentInput struct {
	Name     string
	Email    string
	CourseID int64
	MobileNo string
}

func courseNotFound(id int64) *apperrors.Error {
	return apperrors.NotFound(fmt.Sprintf("No course found with Id: %d", id))
}

func alreadyEnrolled() *apperrors.Error {
	return apperrors.Conflict("You're already enrolled in this course.").WithStatus(http.StatusBadRequest)
}

// RegisterToCourse enrolls email in a course as a single transaction. An
// account is auto-provisioned with the default password when none exists.
// Either the account and the enrollment both persist or neither does.
func (s *AccountService) RegisterToCourse(ctx context.Context, conn *sqlx.DB, in EnrollmentInput) error {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.CourseID <= 0 {
		return apperrors.Validation("Name, email, and courseId are required")
	}

	err := db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
		user, err := queries.FindUserByEmail(ctx, tx, in.Email)
		if err != nil {
			return apperrors.Persistence(err)
		}

		if user == nil {
			hash, err := HashPassword(s.DefaultPassword)
			if err != nil {
				return apperrors.Internal(err)
			}
			n, err := queries.CreateUser(ctx, tx, &db.User{Email: in.Email, PasswordHash: hash, Role: db.RoleStudent})
			if err != nil {
				return apperrors.Persistence(err)
			}
			if n == 0 {
				return apperrors.Persistence(errZeroRows)
			}
			log.Warnf("RegisterToCourse: auto-provisioned account '%s' with the default password.", in.Email)
		}

		existing, err := queries.FindEnrollment(ctx, tx, in.Email, in.CourseID)
		if err != nil {
			return apperrors.Persistence(err)
		}
		if existing != nil {
			return alreadyEnrolled()
		}

		n, err := queries.CreateStudent(ctx, tx, &db.Student{
			Name:     in.Name,
			Email:    in.Email,
			CourseID: in.CourseID,
			MobileNo: nullString(in.MobileNo),
		})
		if err != nil {
			// A concurrent enrollment of the same pair loses on the unique key.
			if db.IsUniqueViolation(err) {
				return alreadyEnrolled()
			}
			if db.IsForeignKeyViolation(err) {
				return courseNotFound(in.CourseID)
			}
			return apperrors.Persistence(err)
		}
		if n == 0 {
			return apperrors.Persistence(errZeroRows)
		}
		return nil
	})
	if err != nil {
		log.Debugf("RegisterToCourse: enrollment of '%s' in course %d rolled back: %v", in.Email, in.CourseID, err)
		return apperrors.From(err)
	}

	log.Infof("Student '%s' registered to course %d.", in.Email, in.CourseID)
	return nil
}
