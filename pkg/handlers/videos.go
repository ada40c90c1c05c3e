package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/apperrors"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/db/queries"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

type VideoRequest struct {
	CourseID      *int64  `json:"courseId" binding:"omitempty,gt=0"`
	CourseIDAlt   *int64  `json:"course_id" binding:"omitempty,gt=0"`
	Title         *string `json:"title" binding:"omitempty,max=100"`
	YoutubeURL    *string `json:"youtubeURL" binding:"omitempty,max=255"`
	YoutubeURLAlt *string `json:"youtube_url" binding:"omitempty,max=255"`
	URL           *string `json:"url" binding:"omitempty,max=255"`
	Description   *string `json:"description"`
}

type VideoResponse struct {
	ID          int64   `json:"video_id"`
	CourseID    int64   `json:"course_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	YoutubeURL  string  `json:"youtube_url"`
	AddedAt     *string `json:"added_at"`
}

func toVideoResponse(v *db.Video) VideoResponse {
	resp := VideoResponse{
		ID:         v.ID,
		CourseID:   v.CourseID,
		Title:      v.Title,
		YoutubeURL: v.YoutubeURL,
	}
	if v.Description.Valid {
		resp.Description = &v.Description.String
	}
	if v.AddedAt.Valid {
		added := v.AddedAt.Time.Format(time.RFC3339)
		resp.AddedAt = &added
	}
	return resp
}

// toVideo validates the request and builds the row it describes.
func (r *VideoRequest) toVideo() (*db.Video, error) {
	courseID := firstInt64(r.CourseID, r.CourseIDAlt)
	title := deref(r.Title)
	url := deref(firstString(r.YoutubeURL, r.YoutubeURLAlt, r.URL))
	if courseID == nil || *courseID <= 0 || title == "" || url == "" {
		return nil, apperrors.Validation("courseId, title, and youtubeURL are required")
	}
	video := &db.Video{CourseID: *courseID, Title: title, YoutubeURL: url}
	if r.Description != nil {
		video.Description = sql.NullString{String: *r.Description, Valid: true}
	}
	return video, nil
}

// filterUnexpiredVideos keeps the videos still inside their course's expiry
// window at now. Videos without a creation time never expire.
func filterUnexpiredVideos(videos []db.StudentVideo, now time.Time) []db.StudentVideo {
	active := make([]db.StudentVideo, 0, len(videos))
	for _, v := range videos {
		if !v.AddedAt.Valid {
			active = append(active, v)
			continue
		}
		expireDays := 0
		if v.VideoExpireDays.Valid {
			expireDays = int(v.VideoExpireDays.Int64)
		}
		if !v.AddedAt.Time.AddDate(0, 0, expireDays).Before(now) {
			active = append(active, v)
		}
	}
	return active
}

func videoNotFound(id int64) error {
	return apperrors.NotFound(fmt.Sprintf("No video found with Id: %d", id))
}

func requireCourse(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	exists, err := queries.CourseExists(ctx, q, id)
	if err != nil {
		return apperrors.Persistence(err)
	}
	if !exists {
		return courseNotFound(id)
	}
	return nil
}

// ListStudentVideos handles GET /videos/all/:email/:course_id.
func (h *Handlers) ListStudentVideos(c *gin.Context) {
	courseID, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	email := services.NormalizeEmail(c.Param("email"))
	videos, err := queries.FindVideosForStudent(c.Request.Context(), conn, email, courseID)
	if err != nil {
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	if len(videos) == 0 {
		utils.ResponseWithSuccess(c, http.StatusOK, "No videos available for this course.", nil)
		return
	}

	active := filterUnexpiredVideos(videos, h.Now())
	if len(active) == 0 {
		log.Debugf("ListStudentVideos: All %d videos of course %d expired for '%s'.", len(videos), courseID, email)
		utils.ResponseWithSuccess(c, http.StatusOK, "No active videos available for this course.", nil)
		return
	}

	resp := make([]VideoResponse, 0, len(active))
	for i := range active {
		resp = append(resp, toVideoResponse(&active[i].Video))
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Videos fetched successfully.", resp)
}

// ListVideos handles GET /videos/all-videos?courseId.
func (h *Handlers) ListVideos(c *gin.Context) {
	var courseID sql.NullInt64
	if raw := c.DefaultQuery("courseId", c.Query("course_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Debugf("ListVideos: Invalid courseId '%s'.", raw)
			utils.ResponseWithError(c, http.StatusBadRequest, "courseId must be an integer", nil)
			return
		}
		courseID = sql.NullInt64{Int64: id, Valid: true}
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	videos, err := queries.FindVideos(c.Request.Context(), conn, courseID)
	if err != nil {
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	if len(videos) == 0 {
		utils.ResponseWithSuccess(c, http.StatusOK, "No videos found.", nil)
		return
	}
	resp := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		resp = append(resp, toVideoResponse(&videos[i]))
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Videos fetched successfully.", resp)
}

// CreateVideo handles POST /videos/add.
func (h *Handlers) CreateVideo(c *gin.Context) {
	var req VideoRequest
	if !bindJSON(c, &req) {
		return
	}
	video, err := req.toVideo()
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := requireCourse(ctx, conn, video.CourseID); err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	n, err := queries.CreateVideo(ctx, conn, video)
	if err != nil {
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	if n == 0 {
		utils.ResponseWithError(c, http.StatusBadRequest, "Something went wrong while adding the video.", nil)
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video added successfully.", nil)
}

// UpdateVideo handles PUT /videos/update/:id.
func (h *Handlers) UpdateVideo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req VideoRequest
	if !bindJSON(c, &req) {
		return
	}
	video, err := req.toVideo()
	if err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	video.ID = id
	conn, ok := h.conn(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := requireCourse(ctx, conn, video.CourseID); err != nil {
		utils.ResponseWithAppError(c, err)
		return
	}
	if err := queries.UpdateVideo(ctx, conn, video); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.ResponseWithAppError(c, videoNotFound(id))
			return
		}
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video updated successfully.", nil)
}

// DeleteVideo handles DELETE /videos/delete/:id.
func (h *Handlers) DeleteVideo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, ok := h.conn(c)
	if !ok {
		return
	}
	if err := queries.DeleteVideo(c.Request.Context(), conn, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.ResponseWithAppError(c, videoNotFound(id))
			return
		}
		utils.ResponseWithAppError(c, apperrors.Persistence(err))
		return
	}
	utils.ResponseWithSuccess(c, http.StatusOK, "Video deleted successfully.", nil)
}
