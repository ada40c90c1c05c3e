package db

import (
	"database/sql"
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is an account row. Email is stored case-folded.
type User struct {
	Email        string       `db:"email"`
	PasswordHash string       `db:"password"`
	Role         string       `db:"role"`
	CreatedAt    sql.NullTime `db:"created_at"`
}

type Course struct {
	ID              int64          `db:"course_id"`
	Name            string         `db:"course_name"`
	Description     sql.NullString `db:"description"`
	Fees            float64        `db:"fees"`
	StartDate       time.Time      `db:"start_date"`
	EndDate         time.Time      `db:"end_date"`
	VideoExpireDays int            `db:"video_expire_days"`
}

// Student is an enrollment row linking an account to a course.
type Student struct {
	RegNo    int64          `db:"reg_no"`
	Name     string         `db:"name"`
	Email    string         `db:"email"`
	CourseID int64          `db:"course_id"`
	MobileNo sql.NullString `db:"mobile_no"`
}

type Video struct {
	ID          int64          `db:"video_id"`
	CourseID    int64          `db:"course_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	YoutubeURL  string         `db:"youtube_url"`
	AddedAt     sql.NullTime   `db:"added_at"`
}

// StudentVideo is a video joined with its course's expiry window.
type StudentVideo struct {
	Video
	VideoExpireDays sql.NullInt64 `db:"video_expire_days"`
}
