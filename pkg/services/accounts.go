package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/apperrors"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/db/queries"
)

// AccountService implements registration, login, password changes and
// course enrollment on top of the store.
type AccountService struct {
	Tokens *TokenService
	// DefaultPassword is given to accounts auto-provisioned by RegisterToCourse.
	DefaultPassword string
}

func NewAccountService(tokens *TokenService, defaultPassword string) *AccountService {
	return &AccountService{Tokens: tokens, DefaultPassword: defaultPassword}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	CourseID sql.NullInt64
	MobileNo string
}

type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NormalizeEmail case-folds an email the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account, optionally enrolled in a course, and returns
// a token carrying the account's role.
func (s *AccountService) Register(ctx context.Context, conn *sqlx.DB, in RegisterInput) (string, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return "", apperrors.Validation("Missing required fields: name, email and password are required")
	}
	if in.Role == "" {
		in.Role = db.RoleStudent
	}
	if in.Role != db.RoleStudent && in.Role != db.RoleAdmin {
		return "", apperrors.Validation("Role must be 'student' or 'admin'")
	}

	existing, err := queries.FindUserByEmail(ctx, conn, in.Email)
	if err != nil {
		return "", apperrors.Persistence(err)
	}
	if existing != nil {
		log.Debugf("Register: User with email '%s' already exists.", in.Email)
		return "", apperrors.Conflict("User already exists.")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	err = db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
		if _, err := queries.CreateUser(ctx, tx, &db.User{Email: in.Email, PasswordHash: hash, Role: in.Role}); err != nil {
			if db.IsUniqueViolation(err) {
				return apperrors.Conflict("User already exists.")
			}
			return apperrors.Persistence(err)
		}
		if !in.CourseID.Valid {
			return nil
		}
		student := &db.Student{
			Name:     in.Name,
			Email:    in.Email,
			CourseID: in.CourseID.Int64,
			MobileNo: nullString(in.MobileNo),
		}
		if _, err := queries.CreateStudent(ctx, tx, student); err != nil {
			if db.IsForeignKeyViolation(err) {
				return courseNotFound(student.CourseID)
			}
			return apperrors.Persistence(err)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Register: registration of '%s' rolled back: %v", in.Email, err)
		return "", apperrors.From(err)
	}

	token, err := s.Tokens.Issue(in.Email, map[string]any{"role": in.Role})
	if err != nil {
		return "", apperrors.Internal(err)
	}
	log.Infof("User '%s' registered with role '%s'.", in.Email, in.Role)
	return token, nil
}

// Login verifies credentials and issues a token carrying the stored role.
func (s *AccountService) Login(ctx context.Context, conn *sqlx.DB, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("Email and password are required")
	}

	user, err := queries.FindUserByEmail(ctx, conn, email)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		log.Debugf("Login: invalid credentials for '%s'.", email)
		return nil, apperrors.Unauthenticated("Invalid credentials.")
	}

	token, err := s.Tokens.Issue(user.Email, map[string]any{"role": user.Role})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	log.Infof("User %s logged in successfully.", user.Email)
	return &LoginResult{Token: token, Email: user.Email, Role: user.Role}, nil
}

// ChangePassword replaces the password of email. It reports false, nil when
// no account matched.
func (s *AccountService) ChangePassword(ctx context.Context, conn *sqlx.DB, email, newPassword, confirmPassword string) (bool, error) {
	if newPassword == "" || confirmPassword == "" {
		return false, apperrors.Validation("newPassword and confirmPassword are required")
	}
	if newPassword != confirmPassword {
		return false, apperrors.Validation("New password and confirmation do not match!")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	n, err := queries.UpdateUserPassword(ctx, conn, NormalizeEmail(email), hash)
	if err != nil {
		return false, apperrors.Persistence(err)
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
