package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/apperrors"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/db/queries"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

// CourseRequest carries the course fields of add and update. Absent fields are
// left untouched by update.
type CourseRequest struct {
	CourseName         *string  `json:"courseName" binding:"omitempty,max=100"`
	CourseNameAlt      *string  `json:"course_name" binding:"omitempty,max=100"`
	Description        *string  `json:"description"`
	Fees               *float64 `json:"fees" binding:"omitempty,gte=0"`
	StartDate          *string  `json:"startDate"`
	StartDateAlt       *string  `json:"start_date"`
	EndDate            *string  `json:"endDate"`
	EndDateAlt         *string  `json:"end_date"`
	VideoExpireDays    *int     `json:"videoExpireDays" binding:"omitempty,gte=0"`
	VideoExpireDaysAlt *int     `json:"video_expire_days" binding:"omitempty,gte=0"`
}

type CourseResponse struct {
	ID              int64   `json:"course_id"`
	Name            string  `json:"course_name"`
	Description     *string `json:"description"`
	Fees            float64 `json:"fees"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	VideoExpireDays int     `json:"video_expire_days"`
}

func toCourseResponse(course *db.Course) CourseResponse {
	resp := CourseResponse{
		ID:              course.ID,
		Name:            course.Name,
		Fees:            course.Fees,
		StartDate:       course.StartDate.Format(time.DateOnly),
		EndDate:         course.EndDate.Format(time.DateOnly),
		VideoExpireDays: course.VideoExpireDays,
	}
	if course.Description.Valid {
		resp.Description = &course.Description.String
	}
	return resp
}

func toCourseResponses(courses []db.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, toCourseResponse(&courses[i]))
	}
	return out
}

// applyTo merges the provided fields over course and validates the result.
func (r *CourseRequest) applyTo(course *db.Course) error {
	if name := firstString(r.CourseName, r.CourseNameAlt); name != nil {
		course.Name = deref(name)
	}
	if r.Description != nil {
		course.Description = sql.NullString{String: *r.Description, Valid: true}
	}
	if r.Fees != nil {
		course.Fees = *r.Fees
	}
	if s := firstString(r.StartDate, r.StartDateAlt); s != nil {
		t, err := parseDate("startDate", deref(s))
		if err != nil {
			return err
		}
		course.StartDate = t
	}
	if s := firstString(r.EndDate, r.EndDateAlt); s != nil {
		t, err := parseDate("endDate", deref(s))
		if err != nil {
			return err
		}
		course.EndDate = t
	}
	if r.VideoExpireDays != nil {
		course.VideoExpireDays = *r.VideoExpireDays
	} else if r.VideoExpireDaysAlt != nil {
		course.VideoExpireDays = *r.VideoExpireDaysAlt
	}
	return validateCourse(course)
}

func validateCourse(course *db.Course) error {
	switch {
	case course.Name == "" || course.StartDate.IsZero() || course.EndDate.IsZero():
		return apperrors.Validation("courseName, startDate and endDate are required")
	case course.EndDate.Before(course.StartDate):
		return apperrors.Validation("endDate must not be before startDate")
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperrors.Validation(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return t, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (sql.NullTime, error) {
	raw := c.Query(name)
	if raw == "" {
		return sql.NullTime{}, nil
	}
	t, err := parseDate(name, raw)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

func courseNotFound(id int64) error {
	return apperrors.NotFound(fmt.Sprintf("No course found with Id: %d", id))
}

// ListActiveCourses handles GET /courses/all-active-courses.
func (h *Handlers) ListActiveCourses(c *gin.Context) {
	conn, ok := h.conn(c)
	if !ok {
		return
	}
	courses, err := queries.FindActiveCourses(c.Request.Context(), conn, h.Now())
	if err != nil {
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	if len(courses) == 0 {
		utils.ResponseWithSuccess(c, http.StatusOK, "No Courses Found.", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Active courses fetched successfully.", toCourseResponses(courses))
}

// ListCourses handles GET /courses/all-courses?startDate&endDate.
func (h *Handlers) ListCourses(c *gin.Context) {
	var filter queries.CourseFilter
	var err error
	if filter.StartFrom, err = queryDate(c, "startDate"); err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	if filter.EndUntil, err = queryDate(c, "endDate"); err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}

	conn, ok := h.conn(c)
	if !ok {
		return
	}
	courses, err := queries.FindCourses(c.Request.Context(), conn, filter)
	if err != nil {
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	if len(courses) == 0 {
		utils.ResponseWithSuccess(c, http.StatusOK, "No Records Found.", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Courses fetched successfully.", toCourseResponses(courses))
}

// CreateCourse handles POST /courses/add.
func (h *Handlers) CreateCourse(c *gin.Context) {
	var req CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course := &db.Course{}
	if err := req.applyTo(course); err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}

	conn, ok := h.conn(c)
	if !ok {
		return
	}
	err := db.RunInTx(c.Request.Context(), conn, func(tx *sqlx.Tx) error {
		return queries.CreateCourse(c.Request.Context(), tx, course)
	})
	if err != nil {
		log.Errorf("CreateCourse: Failed to create course '%s': %v", course.Name, err)
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Course added successfully.", toCourseResponse(course))
}

// UpdateCourse handles PUT /courses/update/:id as a partial update.
func (h *Handlers) UpdateCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	var course *db.Course
	err := db.RunInTx(c.Request.Context(), conn, func(tx *sqlx.Tx) error {
		var err error
		course, err = queries.FindCourseByIDForUpdate(c.Request.Context(), tx, id)
		if err != nil {
			return apperrors.Persistence(err)
		}
		if course == nil {
			return courseNotFound(id)
		}
		if err := req.applyTo(course); err != nil {
			return err
		}
		if err := queries.UpdateCourse(c.Request.Context(), tx, course); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return courseNotFound(id)
			}
			return apperrors.Persistence(err)
		}
		return nil
	})
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Course updated successfully.", toCourseResponse(course))
}

// DeleteCourse handles DELETE /courses/delete/:id.
func (h *Handlers) DeleteCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	err := db.RunInTx(c.Request.Context(), conn, func(tx *sqlx.Tx) error {
		if err := queries.DeleteCourse(c.Request.Context(), tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return courseNotFound(id)
			}
			return apperrors.Persistence(err)
		}
		return nil
	})
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Course deleted successfully.", nil)
}
