package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

type RegisterToCourseRequest struct {
	Name        string  `json:"name" binding:"max=100"`
	Email       string  `json:"email" binding:"omitempty,email,max=100"`
	CourseID    *int64  `json:"courseId" binding:"omitempty,gt=0"`
	CourseIDAlt *int64  `json:"course_id" binding:"omitempty,gt=0"`
	MobileNo    *string `json:"mobileNo" binding:"omitempty,max=20"`
	MobileNoAlt *string `json:"mobile_no" binding:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	NewPassword        *string `json:"newPassword"`
	NewPasswordAlt     *string `json:"new_password"`
	ConfirmPassword    *string `json:"confirmPassword"`
	ConfirmPasswordAlt *string `json:"confirm_password"`
}

// RegisterToCourse handles POST /students/register-to-course.
func (h *Handlers) RegisterToCourse(c *gin.Context) {
	var req RegisterToCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	in := services.EnrollmentInput{
		Name:     req.Name,
		Email:    req.Email,
		MobileNo: deref(firstString(req.MobileNo, req.MobileNoAlt)),
	}
	if id := firstInt64(req.CourseID, req.CourseIDAlt); id != nil {
		in.CourseID = *id
	}

	if err := h.Accounts.RegisterToCourse(c.Request.Context(), conn, in); err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Registration to course successful.", nil)
}

// ChangePassword handles PUT /students/change-password/:email. An unknown
// email is answered with success and an "Incorrect email." message.
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	email := c.Param("email")
	updated, err := h.Accounts.ChangePassword(
		c.Request.Context(),
		conn,
		email,
		orEmpty(firstString(req.NewPassword, req.NewPasswordAlt)),
		orEmpty(firstString(req.ConfirmPassword, req.ConfirmPasswordAlt)),
	)
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	if !updated {
		log.Warnf("ChangePassword: No account with email '%s'.", email)
		utils.ResponseWithSuccess(c, http.StatusOK, "Incorrect email.", nil)
		return
	}

	log.Infof("ChangePassword: Password updated for '%s'.", email)
	utils.ResponseWithSuccess(c, http.StatusOK, "Password updated successfully.", nil)
}
