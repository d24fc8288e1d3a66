package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/prefs"
	"github.com/dukerupert/lovetoday/internal/streak"
)

var (
	ErrNotConfigured = errors.New("backup not configured: S3 credentials missing")
	ErrNoPassphrase  = errors.New("backup passphrase not configured")
)

// Snapshot keys look like snapshots/2006-01-02T150405Z.json.enc.
const (
	keyPrefix       = "snapshots/"
	keySuffix       = ".json.enc"
	timestampLayout = "2006-01-02T150405Z"
	snapshotVersion = 1
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	Passphrase string
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Snapshot is the plaintext body of a backup.
type Snapshot struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Prefs     model.Preferences `json:"prefs"`
	Streak    model.StreakState `json:"streak"`
}

// Manager writes encrypted snapshots of the user's records to S3-compatible
// storage and restores them.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status
	client s3Client

	prefs   *prefs.Store
	streaks *streak.Tracker
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a backup manager. It is disabled unless a bucket and
// credentials are configured.
func NewManager(cfg Config, p *prefs.Store, s *streak.Tracker, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		prefs:   p,
		streaks: s,
		logger:  logger,
		now:     time.Now,
		status:  Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) fail(err error) error {
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}

// Run snapshots preferences and streak, encrypts them, and uploads the
// result. It returns the object key.
func (m *Manager) Run(ctx context.Context) (string, error) {
	if m.client == nil {
		return "", ErrNotConfigured
	}
	if m.cfg.Passphrase == "" {
		return "", ErrNoPassphrase
	}

	m.setStatus(Status{State: StateRunning})

	p, err := m.prefs.Load(ctx)
	if err != nil {
		return "", m.fail(fmt.Errorf("load prefs: %w", err))
	}
	s, err := m.streaks.Load(ctx)
	if err != nil {
		return "", m.fail(fmt.Errorf("load streak: %w", err))
	}

	now := m.now().UTC()
	plain, err := json.Marshal(Snapshot{Version: snapshotVersion, CreatedAt: now, Prefs: p, Streak: s})
	if err != nil {
		return "", m.fail(fmt.Errorf("encode snapshot: %w", err))
	}
	sealed, err := Encrypt(plain, m.cfg.Passphrase)
	if err != nil {
		return "", m.fail(fmt.Errorf("encrypt: %w", err))
	}

	key := keyPrefix + now.Format(timestampLayout) + keySuffix
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return "", m.fail(fmt.Errorf("upload to s3: %w", err))
	}

	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", key, "bytes", len(sealed))
	return key, nil
}

// Restore downloads the snapshot at key, decrypts and validates it, and
// writes both records. Nothing is written if validation fails.
func (m *Manager) Restore(ctx context.Context, key string) error {
	if m.client == nil {
		return ErrNotConfigured
	}
	if m.cfg.Passphrase == "" {
		return ErrNoPassphrase
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	plain, err := Decrypt(sealed, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if err := prefs.Validate(&snap.Prefs); err != nil {
		return fmt.Errorf("validate prefs: %w", err)
	}

	if err := m.prefs.Save(ctx, snap.Prefs); err != nil {
		return fmt.Errorf("restore prefs: %w", err)
	}
	if err := m.streaks.Save(ctx, snap.Streak); err != nil {
		return fmt.Errorf("restore streak: %w", err)
	}

	m.logger.Info("backup restored", "key", key, "created_at", snap.CreatedAt)
	return nil
}

// List returns snapshot keys, newest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if m.client == nil {
		return nil, ErrNotConfigured
	}

	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Prefix: aws.String(keyPrefix),
	}
	for {
		out, err := m.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range out.Contents {
			if k := aws.ToString(obj.Key); strings.HasSuffix(k, keySuffix) {
				keys = append(keys, k)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	// Timestamps sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// Cleanup deletes snapshots older than the retention period.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	if m.client == nil {
		return nil
	}

	keys, err := m.List(ctx)
	if err != nil {
		return err
	}

	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	for _, key := range keys {
		ts, ok := snapshotTime(key)
		if !ok || !ts.Before(before) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete snapshot", "key", key, "error", err)
		}
	}
	return nil
}

func snapshotTime(key string) (time.Time, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), keySuffix)
	ts, err := time.Parse(timestampLayout, name)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
