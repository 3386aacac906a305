package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/carcatalog/internal/auth"
	"github.com/JonMunkholm/carcatalog/internal/logging"
)

// DefaultImportTimeout bounds a single import when no timeout is configured.
const DefaultImportTimeout = 5 * time.Minute

// Service is the entry point the web layer uses for imports and login.
type Service struct {
	importer *Importer
	users    UserStore
	tokens   *auth.TokenService
	limiter  *ImportLimiter
	timeout  time.Duration
}

// ServiceOptions configures NewService.
type ServiceOptions struct {
	Cars          CarStore
	Users         UserStore
	Tokens        *auth.TokenService
	MaxConcurrent int
	MaxWait       time.Duration
	ImportTimeout time.Duration
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	timeout := opts.ImportTimeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	return &Service{
		importer: NewImporter(opts.Cars),
		users:    opts.Users,
		tokens:   opts.Tokens,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		timeout:  timeout,
	}
}

// Limiter exposes the import limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// ImportFile imports a spooled upload and removes it. fileName is the
// client's name for the file and is used only for logging.
func (s *Service) ImportFile(ctx context.Context, path, fileName string) (*ImportReport, error) {
	return s.run(ctx, "import", path, fileName, s.importer.ImportFile)
}

// PreviewFile reports what importing a spooled upload would do, without
// writing, and removes it. Previews share the import slots.
func (s *Service) PreviewFile(ctx context.Context, path, fileName string) (*ImportReport, error) {
	return s.run(ctx, "preview", path, fileName, s.importer.PreviewFile)
}

func (s *Service) run(ctx context.Context, kind, path, fileName string,
	fn func(context.Context, string) (*ImportReport, error)) (*ImportReport, error) {
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		removeUpload(logging.FromContext(ctx), path)
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	importID := uuid.NewString()
	logger := logging.WithFields(ctx, "import_id", importID, "file", fileName, "kind", kind)
	logger.Info(kind + " started")
	start := time.Now()

	report, err := fn(ctx, path)
	if err != nil {
		logger.Warn(kind+" failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	logger.Info(kind+" completed",
		"total", report.TotalRows,
		"inserted", report.InsertedRows,
		"duplicates", report.DuplicateRows,
		"invalid", report.InvalidRows,
		"insert_errors", report.Errors,
		"duration", time.Since(start),
	)
	return report, nil
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	UserID      int64
	Email       string
	AccessToken string
}

// LoginError distinguishes the reasons a login is refused. Message is safe
// to show the caller.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return ErrInvalidCredentials }

// Login checks email and password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &LoginError{Message: "User doesn't exists"}
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &LoginError{Message: "Invalid password"}
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return &LoginResult{UserID: user.ID, Email: user.Email, AccessToken: token}, nil
}
