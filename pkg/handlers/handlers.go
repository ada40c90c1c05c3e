package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/config"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

// Handlers holds the dependencies shared by every route.
type Handlers struct {
	Config   *config.Config
	Accounts *services.AccountService
	// Now is the clock used for course activity and video expiry.
	Now func() time.Time
}

// NewHandlers creates a new instance of Handlers
func NewHandlers(cfg *config.Config, accounts *services.AccountService) *Handlers {
	return &Handlers{
		Config:   cfg,
		Accounts: accounts,
		Now:      time.Now,
	}
}

// conn returns the process pool, answering 500 when it is unavailable.
func (h *Handlers) conn(c *gin.Context) (*sqlx.DB, bool) {
	conn, err := db.Conn()
	if err != nil {
		log.Errorf("%s: database unavailable: %v", c.FullPath(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Internal server error", nil)
		return nil, false
	}
	return conn, true
}

// bindJSON decodes the request body, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Debugf("%s: Invalid request body: %v", c.FullPath(), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

// pathID parses a positive integer path parameter, answering 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		log.Debugf("%s: Invalid %s '%s'.", c.FullPath(), name, c.Param(name))
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid "+name+": must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func firstString(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt64(values ...*int64) *int64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
