package utils

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/apperrors"
)

type JSONResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func ResponseWithSuccess(
	c *gin.Context,
	statusCode int,
	message string,
	data interface{},
) {
	c.JSON(statusCode, JSONResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ResponseWithError(
	c *gin.Context,
	statusCode int,
	message string,
	errorDetails interface{},
) {
	c.JSON(statusCode, JSONResponse{
		Success: false,
		Message: message,
		Error:   errorDetails,
	})
}

// ResponseWithAppError writes err using its classified status and public
// message. Unclassified errors answer 500 without exposing their cause.
func ResponseWithAppError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	status := appErr.HTTPStatus()
	if appErr.Kind == apperrors.KindInternal {
		log.Errorf("%s %s: internal error: %v", c.Request.Method, c.FullPath(), err)
	} else {
		log.Debugf("%s %s: %s", c.Request.Method, c.FullPath(), appErr.Message)
	}
	ResponseWithError(c, status, appErr.PublicMessage(), nil)
}
