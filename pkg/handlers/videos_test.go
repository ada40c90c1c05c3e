package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
)

func studentVideo(id int64, addedAt *time.Time, expireDays *int64) db.StudentVideo {
	v := db.StudentVideo{Video: db.Video{ID: id, CourseID: 1, Title: "v", YoutubeURL: "https://youtu.be/x"}}
	if addedAt != nil {
		v.AddedAt = sql.NullTime{Time: *addedAt, Valid: true}
	}
	if expireDays != nil {
		v.VideoExpireDays = sql.NullInt64{Int64: *expireDays, Valid: true}
	}
	return v
}

func ptr[T any](v T) *T { return &v }

func TestFilterUnexpiredVideos(t *testing.T) {
	now := testNow
	ist := time.FixedZone("IST", 5*3600+1800)
	cases := []struct {
		name    string
		video   db.StudentVideo
		visible bool
	}{
		{"added 100 days ago, 30 day window", studentVideo(1, ptr(now.AddDate(0, 0, -100)), ptr[int64](30)), false},
		{"added 100 days ago, 365 day window", studentVideo(2, ptr(now.AddDate(0, 0, -100)), ptr[int64](365)), true},
		{"no creation time", studentVideo(3, nil, ptr[int64](0)), true},
		{"expires exactly now", studentVideo(4, ptr(now.AddDate(0, 0, -30)), ptr[int64](30)), true},
		{"null window counts as zero days", studentVideo(5, ptr(now.Add(-time.Minute)), nil), false},
		{"offset creation time expiring now", studentVideo(6, ptr(now.AddDate(0, 0, -30).In(ist)), ptr[int64](30)), true},
		{"offset creation time a minute past", studentVideo(7, ptr(now.AddDate(0, 0, -30).Add(-time.Minute).In(ist)), ptr[int64](30)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := filterUnexpiredVideos([]db.StudentVideo{tc.video}, now)
			if (len(got) == 1) != tc.visible {
				t.Fatalf("expected visible=%v, got %d videos", tc.visible, len(got))
			}
		})
	}
}

func TestListStudentVideosAppliesExpiry(t *testing.T) {
	env := newTestEnv(t)
	added := testNow.AddDate(0, 0, -100)

	env.mock.ExpectQuery("FROM videos AS v").
		WithArgs("a@x.com", int64(1)).
		WillReturnRows(sqlmock.NewRows(videoColumns).
			AddRow(1, 1, "Old", nil, "https://youtu.be/a", added, 30))
	body := expectStatus(t, env.do(t, http.MethodGet, "/videos/all/A@x.com/1", nil, ""), http.StatusOK)
	if body.Message != "No active videos available for this course." {
		t.Fatalf("unexpected message %q", body.Message)
	}

	env.mock.ExpectQuery("FROM videos AS v").
		WithArgs("a@x.com", int64(1)).
		WillReturnRows(sqlmock.NewRows(videoColumns).
			AddRow(1, 1, "Old", nil, "https://youtu.be/a", added, 365).
			AddRow(2, 1, "Undated", "intro", "https://youtu.be/b", nil, 365))
	body = expectStatus(t, env.do(t, http.MethodGet, "/videos/all/a@x.com/1", nil, ""), http.StatusOK)
	var videos []VideoResponse
	if err := json.Unmarshal(body.Data, &videos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(videos) != 2 || videos[1].AddedAt != nil || videos[1].Description == nil {
		t.Fatalf("unexpected videos %+v", videos)
	}

	env.mock.ExpectQuery("FROM videos AS v").
		WillReturnRows(sqlmock.NewRows(videoColumns))
	body = expectStatus(t, env.do(t, http.MethodGet, "/videos/all/a@x.com/2", nil, ""), http.StatusOK)
	if body.Message != "No videos available for this course." {
		t.Fatalf("unexpected message %q", body.Message)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/videos/all/a@x.com/first", nil, ""), http.StatusBadRequest)
	env.verify(t)
}

func TestListVideosCourseFilter(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin")
	columns := videoColumns[:6]

	env.mock.ExpectQuery("FROM videos").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(9, 4, "Intro", nil, "https://youtu.be/a", testNow))
	body := expectStatus(t, env.do(t, http.MethodGet, "/videos/all-videos?courseId=4", nil, admin), http.StatusOK)
	var videos []VideoResponse
	if err := json.Unmarshal(body.Data, &videos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(videos) != 1 || videos[0].CourseID != 4 {
		t.Fatalf("unexpected videos %+v", videos)
	}

	env.mock.ExpectQuery("FROM videos").
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows(columns))
	body = expectStatus(t, env.do(t, http.MethodGet, "/videos/all-videos", nil, admin), http.StatusOK)
	if body.Message != "No videos found." {
		t.Fatalf("unexpected message %q", body.Message)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/videos/all-videos?courseId=x", nil, admin), http.StatusBadRequest)
	env.verify(t)
}

func TestCreateVideo(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin")

	body := expectStatus(t, env.do(t, http.MethodPost, "/videos/add", map[string]any{"courseId": 1, "title": "x"}, admin), http.StatusBadRequest)
	if body.Message != "courseId, title, and youtubeURL are required" {
		t.Fatalf("unexpected message %q", body.Message)
	}

	env.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	body = expectStatus(t, env.do(t, http.MethodPost, "/videos/add", map[string]any{
		"courseId": 42, "title": "x", "youtubeURL": "https://youtu.be/x",
	}, admin), http.StatusNotFound)
	if body.Message != "No course found with Id: 42" {
		t.Fatalf("unexpected message %q", body.Message)
	}

	env.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	env.mock.ExpectExec("INSERT INTO videos").
		WithArgs(int64(1), "Intro", "https://youtu.be/x", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	body = expectStatus(t, env.do(t, http.MethodPost, "/videos/add", map[string]any{
		"course_id": 1, "title": "Intro", "url": "https://youtu.be/x",
	}, admin), http.StatusOK)
	if body.Message != "Video added successfully." {
		t.Fatalf("unexpected message %q", body.Message)
	}
	env.verify(t)
}

func TestUpdateAndDeleteMissingVideo(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin")

	env.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	env.mock.ExpectExec("UPDATE videos").
		WithArgs(int64(1), "New", "https://youtu.be/y", "d", int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	body := expectStatus(t, env.do(t, http.MethodPut, "/videos/update/77", map[string]any{
		"courseId": 1, "title": "New", "youtube_url": "https://youtu.be/y", "description": "d",
	}, admin), http.StatusNotFound)
	if body.Message != "No video found with Id: 77" {
		t.Fatalf("unexpected message %q", body.Message)
	}

	env.mock.ExpectExec("DELETE FROM videos").
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	expectStatus(t, env.do(t, http.MethodDelete, "/videos/delete/77", nil, admin), http.StatusNotFound)

	env.mock.ExpectExec("DELETE FROM videos").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	body = expectStatus(t, env.do(t, http.MethodDelete, "/videos/delete/5", nil, admin), http.StatusOK)
	if body.Message != "Video deleted successfully." {
		t.Fatalf("unexpected message %q", body.Message)
	}
	env.verify(t)
}
