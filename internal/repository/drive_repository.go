package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

const (
	appDataSpace     = "appDataFolder"
	folderMimeType   = "application/vnd.google-apps.folder"
	jsonContentType  = "application/json"
	backupNameLayout = "backup_2006-01-02_150405"

	fileFields googleapi.Field = "id,name,modifiedTime,version"
	listFields googleapi.Field = "files(id,name,modifiedTime,version)"
)

// TokenSource supplies bearer tokens for Drive calls.
type TokenSource interface {
	RequireFreshToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// CallObserver records remote call latency by operation.
type CallObserver interface {
	ObserveRemoteCall(op string, duration time.Duration, err error)
}

// DriveRepositoryConfig configures the Drive adapter.
type DriveRepositoryConfig struct {
	Endpoint     string
	FileName     string
	BackupFolder string
	Timeout      time.Duration
}

// RemoteError describes a failed Drive call.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

// Error renders "<op>: <status> <statusText>: <body>".
func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Body)
}

// Unwrap exposes the matching sentinel and the transport cause.
func (e *RemoteError) Unwrap() []error {
	sentinel := appErrors.ErrRemote
	if e.Status == http.StatusUnauthorized {
		sentinel = appErrors.ErrNotAuthenticated
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

type tokenKey struct{}

// bearerTransport injects the token carried by the request context.
type bearerTransport struct {
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, _ := req.Context().Value(tokenKey{}).(string)
	if token == "" {
		return nil, appErrors.ErrNotAuthenticated
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

// DriveRepository stores the bundle in one hidden appData file and writes
// visible backups into a named folder.
type DriveRepository struct {
	svc      *drive.Service
	tokens   TokenSource
	cfg      DriveRepositoryConfig
	logger   *zap.Logger
	observer CallObserver
	now      func() time.Time
}

// NewDriveRepository builds the Drive client.
func NewDriveRepository(ctx context.Context, tokens TokenSource, cfg DriveRepositoryConfig, logger *zap.Logger, observer CallObserver) (*DriveRepository, error) {
	if tokens == nil {
		return nil, errors.New("drive repository requires a token source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FileName == "" {
		cfg.FileName = "tutor_billing.json"
	}
	if cfg.BackupFolder == "" {
		cfg.BackupFolder = "Tutor Billing System"
	}
	client := &http.Client{
		Transport: &bearerTransport{base: http.DefaultTransport},
		Timeout:   cfg.Timeout,
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveRepository{svc: svc, tokens: tokens, cfg: cfg, logger: logger, observer: observer, now: time.Now}, nil
}

// EnsureFile finds the hidden bundle file or creates it with "{}".
func (r *DriveRepository) EnsureFile(ctx context.Context) (*models.RemoteFileMetadata, error) {
	var meta *models.RemoteFileMetadata
	err := r.do(ctx, "ensure file", func(ctx context.Context) error {
		list, err := r.svc.Files.List().
			Spaces(appDataSpace).
			Q(fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(r.cfg.FileName))).
			Fields(listFields).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(list.Files) > 0 {
			meta, err = toMetadata(list.Files[0])
			return err
		}
		created, err := r.svc.Files.Create(&drive.File{
			Name:     r.cfg.FileName,
			Parents:  []string{appDataSpace},
			MimeType: jsonContentType,
		}).
			Media(strings.NewReader("{}"), googleapi.ContentType(jsonContentType)).
			Fields(fileFields).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		r.logger.Info("created hidden bundle file", zap.String("file_id", created.Id))
		meta, err = toMetadata(created)
		return err
	})
	return meta, err
}

// Metadata fetches the file metadata without downloading the body.
func (r *DriveRepository) Metadata(ctx context.Context, fileID string) (*models.RemoteFileMetadata, error) {
	var meta *models.RemoteFileMetadata
	err := r.do(ctx, "get metadata", func(ctx context.Context) error {
		file, err := r.svc.Files.Get(fileID).Fields(fileFields).Context(ctx).Do()
		if err != nil {
			return err
		}
		meta, err = toMetadata(file)
		return err
	})
	return meta, err
}

// ReadFile ensures the hidden file exists and downloads its content. An
// empty body reads as "{}".
func (r *DriveRepository) ReadFile(ctx context.Context) ([]byte, *models.RemoteFileMetadata, error) {
	meta, err := r.EnsureFile(ctx)
	if err != nil {
		return nil, nil, err
	}
	var content []byte
	err = r.do(ctx, "read file", func(ctx context.Context) error {
		resp, err := r.svc.Files.Get(meta.ID).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		content, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		content = []byte("{}")
	}
	return content, meta, nil
}

// WriteFile replaces the content of fileID and returns the new metadata.
func (r *DriveRepository) WriteFile(ctx context.Context, content []byte, fileID string) (*models.RemoteFileMetadata, error) {
	if fileID == "" {
		return nil, appErrors.ErrNotConnected
	}
	var meta *models.RemoteFileMetadata
	err := r.do(ctx, "write file", func(ctx context.Context) error {
		updated, err := r.svc.Files.Update(fileID, &drive.File{}).
			Media(bytes.NewReader(content), googleapi.ContentType(jsonContentType)).
			Fields(fileFields).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		meta, err = toMetadata(updated)
		return err
	})
	return meta, err
}

// WriteVisibleBackup creates a new timestamped file in the visible backup
// folder. Prior backups are never overwritten.
func (r *DriveRepository) WriteVisibleBackup(ctx context.Context, content []byte, filename string) (*models.RemoteFileMetadata, error) {
	if filename == "" {
		filename = r.now().Format(backupNameLayout) + ".json"
	}
	folderID, err := r.ensureBackupFolder(ctx)
	if err != nil {
		return nil, err
	}
	var meta *models.RemoteFileMetadata
	err = r.do(ctx, "write backup", func(ctx context.Context) error {
		created, err := r.svc.Files.Create(&drive.File{
			Name:     filename,
			Parents:  []string{folderID},
			MimeType: jsonContentType,
		}).
			Media(bytes.NewReader(content), googleapi.ContentType(jsonContentType)).
			Fields(fileFields).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		meta, err = toMetadata(created)
		return err
	})
	return meta, err
}

func (r *DriveRepository) ensureBackupFolder(ctx context.Context) (string, error) {
	var folderID string
	err := r.do(ctx, "ensure backup folder", func(ctx context.Context) error {
		list, err := r.svc.Files.List().
			Q(fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(r.cfg.BackupFolder), folderMimeType)).
			Fields("files(id,name)").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(list.Files) > 0 {
			folderID = list.Files[0].Id
			return nil
		}
		folder, err := r.svc.Files.Create(&drive.File{
			Name:     r.cfg.BackupFolder,
			MimeType: folderMimeType,
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return err
		}
		folderID = folder.Id
		return nil
	})
	return folderID, err
}

// do runs call with a fresh token, refreshing and retrying exactly once when
// Drive rejects the credential.
func (r *DriveRepository) do(ctx context.Context, op string, call func(context.Context) error) error {
	start := time.Now()
	err := r.attempt(ctx, op, call)
	if r.observer != nil {
		r.observer.ObserveRemoteCall(op, time.Since(start), err)
	}
	return err
}

func (r *DriveRepository) attempt(ctx context.Context, op string, call func(context.Context) error) error {
	token, err := r.tokens.RequireFreshToken(ctx)
	if err != nil {
		return err
	}
	err = call(context.WithValue(ctx, tokenKey{}, token))
	if statusOf(err) == http.StatusUnauthorized {
		r.logger.Warn("drive rejected credential, refreshing", zap.String("op", op))
		token, err = r.tokens.ForceRefresh(ctx)
		if err != nil {
			return err
		}
		err = call(context.WithValue(ctx, tokenKey{}, token))
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, appErrors.ErrNotAuthenticated) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &RemoteError{Op: op, Status: gerr.Code, Body: strings.TrimSpace(gerr.Body)}
	}
	return &RemoteError{Op: op, Err: err}
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func toMetadata(file *drive.File) (*models.RemoteFileMetadata, error) {
	meta := &models.RemoteFileMetadata{
		ID:      file.Id,
		Name:    file.Name,
		Version: strconv.FormatInt(file.Version, 10),
	}
	if file.ModifiedTime != "" {
		modified, err := time.Parse(time.RFC3339, file.ModifiedTime)
		if err != nil {
			return nil, fmt.Errorf("parse modifiedTime %q: %w", file.ModifiedTime, err)
		}
		meta.ModifiedTime = modified
	}
	return meta, nil
}

func escapeQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, "'", `\'`)
}
