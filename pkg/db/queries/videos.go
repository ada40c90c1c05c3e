package queries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
)

const videoColumns = `video_id, course_id, title, description, youtube_url, added_at`

// FindVideosForStudent returns the videos of a course the student is enrolled
// in, each carrying the course's expiry window. Expiry is not applied here.
func FindVideosForStudent(ctx context.Context, q sqlx.QueryerContext, email string, courseID int64) ([]db.StudentVideo, error) {
	videos := []db.StudentVideo{}
	query := `
		SELECT v.video_id, v.course_id, v.title, v.description, v.youtube_url, v.added_at,
		       c.video_expire_days
		FROM videos AS v
		INNER JOIN students AS s ON s.course_id = v.course_id
		INNER JOIN courses AS c ON c.course_id = v.course_id
		WHERE s.email = $1 AND s.course_id = $2
		ORDER BY v.added_at, v.video_id`
	if err := sqlx.SelectContext(ctx, q, &videos, query, email, courseID); err != nil {
		log.Errorf("Error finding videos of course '%d' for '%s': %v", courseID, email, err)
		return nil, fmt.Errorf("error finding student videos: %w", err)
	}
	return videos, nil
}

// FindVideos returns all videos, optionally restricted to one course.
func FindVideos(ctx context.Context, q sqlx.QueryerContext, courseID sql.NullInt64) ([]db.Video, error) {
	videos := []db.Video{}
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE ($1::int IS NULL OR course_id = $1::int)
		ORDER BY course_id, video_id`
	if err := sqlx.SelectContext(ctx, q, &videos, query, courseID); err != nil {
		log.Errorf("Error finding videos: %v", err)
		return nil, fmt.Errorf("error finding videos: %w", err)
	}
	return videos, nil
}

// CreateVideo inserts a video and returns the number of rows written.
func CreateVideo(ctx context.Context, q sqlx.ExtContext, video *db.Video) (int64, error) {
	query := `
		INSERT INTO videos (course_id, title, youtube_url, description)
		VALUES (:course_id, :title, :youtube_url, :description)`
	result, err := sqlx.NamedExecContext(ctx, q, query, video)
	if err != nil {
		log.Errorf("Error creating video for course '%d': %v", video.CourseID, err)
		return 0, err
	}
	n, err := result.RowsAffected()
	if err == nil && n > 0 {
		log.Infof("Video '%s' added to course %d.", video.Title, video.CourseID)
	}
	return n, err
}

// UpdateVideo rewrites a video. It returns sql.ErrNoRows when no video has video.ID.
func UpdateVideo(ctx context.Context, q sqlx.ExtContext, video *db.Video) error {
	query := `
		UPDATE videos
		SET course_id = :course_id, title = :title, youtube_url = :youtube_url, description = :description
		WHERE video_id = :video_id`
	result, err := sqlx.NamedExecContext(ctx, q, query, video)
	if err != nil {
		log.Errorf("Error updating video with ID '%d': %v", video.ID, err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Warnf("No video found with ID '%d' for update.", video.ID)
		return sql.ErrNoRows
	}
	log.Infof("Video with ID '%d' updated.", video.ID)
	return nil
}

// DeleteVideo removes a video. It returns sql.ErrNoRows when it does not exist.
func DeleteVideo(ctx context.Context, q sqlx.ExecerContext, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM videos WHERE video_id = $1`, id)
	if err != nil {
		log.Errorf("Error deleting video with ID '%d': %v", id, err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Warnf("No video found with ID '%d' for deletion.", id)
		return sql.ErrNoRows
	}
	log.Infof("Video with ID '%d' deleted.", id)
	return nil
}
