package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

type RegisterRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Email       string  `json:"email" binding:"required,email,max=100"`
	Password    string  `json:"password" binding:"required"`
	Role        string  `json:"role" binding:"omitempty,oneof=student admin"`
	CourseID    *int64  `json:"courseId" binding:"omitempty,gt=0"`
	CourseIDAlt *int64  `json:"course_id" binding:"omitempty,gt=0"`
	MobileNo    *string `json:"mobileNo" binding:"omitempty,max=20"`
	MobileNoAlt *string `json:"mobile_no" binding:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	conn, ok := h.conn(c)
	if !ok {
		return
	}

	in := services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		MobileNo: deref(firstString(req.MobileNo, req.MobileNoAlt)),
	}
	if id := firstInt64(req.CourseID, req.CourseIDAlt); id != nil {
		in.CourseID = sql.NullInt64{Int64: *id, Valid: true}
	}

	token, err := h.Accounts.Register(c.Request.Context(), conn, in)
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusCreated, "Registration successful", gin.H{"token": token})
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	result, err := h.Accounts.Login(c.Request.Context(), conn, req.Email, req.Password)
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Login successful", result)
}
