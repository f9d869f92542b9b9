// Package ops implements the user-facing operations of the browser on top
// of a store.Store and a batch.Executor: uploads, downloads, recursive
// deletes and copy-then-delete renames.
package ops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/store"
	"github.com/slmtnm/s4fs/internal/tree"
)

// Operation names as they appear in events and summaries.
const (
	OpUpload       = "upload"
	OpUploadFolder = "upload folder"
	OpDownload     = "download"
	OpDelete       = "delete"
	OpRename       = "rename"
)

var (
	ErrNothingSelected = errors.New("nothing selected")
	ErrFolderSelected  = errors.New("folders cannot be downloaded, select files only")
	ErrInvalidName     = errors.New("invalid name")
	ErrSameName        = errors.New("new name is the same as the old one")
	ErrNotDirectory    = errors.New("not a directory")
)

// Service runs operations against one bucket. Every batch operation emits
// exactly one batch.DoneEvent on the executor's sink and returns the same
// result.
type Service struct {
	store store.Store
	exec  *batch.Executor
	log   zerolog.Logger
}

// New creates a Service.
func New(st store.Store, exec *batch.Executor, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		exec:  exec,
		log:   log.With().Str("bucket", st.Bucket()).Logger(),
	}
}

// Bucket returns the bucket the service operates on.
func (s *Service) Bucket() string {
	return s.store.Bucket()
}

// Connect checks that the bucket is reachable.
func (s *Service) Connect(ctx context.Context) error {
	if err := s.store.Check(ctx); err != nil {
		s.log.Error().Err(err).Msg("connect failed")
		return err
	}
	s.log.Info().Msg("connected")
	return nil
}

// Browse lists current and projects it into one level of rows.
func (s *Service) Browse(ctx context.Context, current string) ([]tree.Entry, error) {
	records, err := s.store.List(ctx, current)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("path", current).Int("records", len(records)).Msg("listed")
	return tree.Project(current, records), nil
}

// CreateFolder materializes prefix as a zero-byte folder marker.
func (s *Service) CreateFolder(ctx context.Context, prefix string) error {
	if prefix == "" {
		return ErrInvalidName
	}

	tmp, err := os.CreateTemp("", "s4-folder-*")
	if err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("file", tmp.Name()).Msg("failed to remove marker file")
		}
	}()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}

	if err := s.store.Put(ctx, tmp.Name(), prefix); err != nil {
		return err
	}
	s.log.Info().Str("folder", prefix).Msg("folder created")
	return nil
}

// Preview downloads key into a temporary file and returns at most limit
// bytes of it. truncated reports whether the object was longer.
func (s *Service) Preview(ctx context.Context, key string, limit int64) (data []byte, truncated bool, err error) {
	tmp, err := os.CreateTemp("", "s4-preview-*")
	if err != nil {
		return nil, false, fmt.Errorf("failed to create preview file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("file", tmp.Name()).Msg("failed to remove preview file")
		}
	}()
	if err := tmp.Close(); err != nil {
		return nil, false, fmt.Errorf("failed to create preview file: %w", err)
	}

	if err := s.store.Get(ctx, key, tmp.Name()); err != nil {
		return nil, false, err
	}

	f, err := os.Open(tmp.Name())
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preview: %w", err)
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preview: %w", err)
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// run executes p as one batch and reports it as the whole operation.
func (s *Service) run(ctx context.Context, name string, c *batch.Canceler, p plan) batch.Result {
	res := s.exec.Run(ctx, &batch.Run{Name: name, Items: p.items(), Cancel: c}, p.action())
	return s.finish(res)
}

func (s *Service) finish(res batch.Result) batch.Result {
	s.exec.Sink().Send(batch.DoneEvent{Result: res})
	return res
}

// fail reports an operation that broke before any item could run, such
// as a listing or local I/O error.
func (s *Service) fail(name, label string, err error) batch.Result {
	s.log.Error().Str("op", name).Str("item", label).Err(err).Msg("operation failed")
	return s.finish(batch.Result{
		Name:       name,
		Outcome:    batch.Failed,
		FailedItem: &batch.Item{Label: label, State: batch.StateFailed, Message: err.Error()},
		Message:    err.Error(),
	})
}

// cancelled reports an operation stopped before its batch started.
func (s *Service) cancelled(name string) batch.Result {
	return s.finish(batch.Result{Name: name, Outcome: batch.Cancelled})
}
