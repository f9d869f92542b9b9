package ops

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/keypath"
	"github.com/slmtnm/s4fs/internal/store"
)

// UploadFiles uploads each local file to destPrefix + its base name.
func (s *Service) UploadFiles(ctx context.Context, c *batch.Canceler, paths []string, destPrefix string) batch.Result {
	if len(paths) == 0 {
		return s.fail(OpUpload, destPrefix, ErrNothingSelected)
	}

	p := make(plan, 0, len(paths))
	for _, path := range paths {
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		p = append(p, s.putStep(path, destPrefix+filepath.Base(path), size))
	}
	return s.run(ctx, OpUpload, c, p)
}

// UploadFolder uploads every regular file under localDir, keyed by its
// path relative to localDir inside targetPrefix.
func (s *Service) UploadFolder(ctx context.Context, c *batch.Canceler, localDir, targetPrefix string) batch.Result {
	targetPrefix = keypath.FolderName(targetPrefix)

	info, err := os.Stat(localDir)
	if err != nil {
		return s.fail(OpUploadFolder, localDir, err)
	}
	if !info.IsDir() {
		return s.fail(OpUploadFolder, localDir, fmt.Errorf("%w: %s", ErrNotDirectory, localDir))
	}

	var p plan
	err = filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		p = append(p, s.putStep(path, targetPrefix+filepath.ToSlash(rel), info.Size()))
		return nil
	})
	if err != nil {
		return s.fail(OpUploadFolder, localDir, err)
	}
	return s.run(ctx, OpUploadFolder, c, p)
}

// DownloadFiles saves each object into saveDir under its base name.
// Folder rows are rejected as a whole before anything is transferred.
func (s *Service) DownloadFiles(ctx context.Context, c *batch.Canceler, objects []store.Object, saveDir string) batch.Result {
	if len(objects) == 0 {
		return s.fail(OpDownload, saveDir, ErrNothingSelected)
	}
	for _, obj := range objects {
		if keypath.IsFolder(obj.Key) {
			return s.fail(OpDownload, obj.Key, ErrFolderSelected)
		}
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return s.fail(OpDownload, saveDir, fmt.Errorf("failed to create download directory: %w", err))
	}

	p := make(plan, 0, len(objects))
	for _, obj := range objects {
		p = append(p, s.getStep(obj.Key, filepath.Join(saveDir, keypath.Base(obj.Key)), obj.Size))
	}
	return s.run(ctx, OpDownload, c, p)
}

// DeleteFolder removes every object whose key starts with prefix.
func (s *Service) DeleteFolder(ctx context.Context, c *batch.Canceler, prefix string) batch.Result {
	return s.Delete(ctx, c, []string{keypath.FolderName(prefix)})
}

// Delete removes the given keys. Keys ending in "/" are folders and are
// expanded to everything stored under them.
func (s *Service) Delete(ctx context.Context, c *batch.Canceler, targets []string) batch.Result {
	if len(targets) == 0 {
		return s.fail(OpDelete, "", ErrNothingSelected)
	}

	var p plan
	for _, target := range targets {
		if !keypath.IsFolder(target) {
			p = append(p, s.deleteStep(target))
			continue
		}
		if c.Cancelled() {
			return s.cancelled(OpDelete)
		}
		records, err := s.store.List(ctx, target)
		if err != nil {
			return s.fail(OpDelete, target, err)
		}
		for _, rec := range records {
			p = append(p, s.deleteStep(rec.Key))
		}
	}
	return s.run(ctx, OpDelete, c, p)
}

// RenameFile copies oldKey to newKey, then deletes oldKey. When the delete
// fails both keys remain.
func (s *Service) RenameFile(ctx context.Context, c *batch.Canceler, oldKey, newKey string) batch.Result {
	if oldKey == newKey {
		return s.fail(OpRename, oldKey, ErrSameName)
	}

	var size int64
	if records, err := s.store.List(ctx, oldKey); err == nil {
		for _, rec := range records {
			if rec.Key == oldKey {
				size = rec.Size
			}
		}
	}
	return s.run(ctx, OpRename, c, plan{
		s.copyStep(oldKey, newKey, size),
		s.deleteStep(oldKey),
	})
}

// RenameFolder copies every object under oldPrefix to the same relative
// key under newPrefix, and only once all copies succeeded deletes the
// originals. A failed or cancelled copy phase deletes nothing.
func (s *Service) RenameFolder(ctx context.Context, c *batch.Canceler, oldPrefix, newPrefix string) batch.Result {
	oldPrefix = keypath.FolderName(oldPrefix)
	newPrefix = keypath.FolderName(newPrefix)
	if oldPrefix == newPrefix {
		return s.fail(OpRename, oldPrefix, ErrSameName)
	}

	records, err := s.store.List(ctx, oldPrefix)
	if err != nil {
		return s.fail(OpRename, oldPrefix, err)
	}

	n := len(records)
	copies := make(plan, 0, n)
	deletes := make(plan, 0, n)
	for _, rec := range records {
		copies = append(copies, s.copyStep(rec.Key, newPrefix+keypath.Relative(rec.Key, oldPrefix), rec.Size))
		deletes = append(deletes, s.deleteStep(rec.Key))
	}

	copyRes := s.exec.Run(ctx, &batch.Run{
		Name: OpRename, Items: copies.items(), Cancel: c, Span: 2 * n,
	}, copies.action())
	if copyRes.Outcome != batch.Completed {
		copyRes.Total = 2 * n
		if copyRes.Outcome == batch.Cancelled {
			copyRes.Skipped += n
		}
		return s.finish(copyRes)
	}

	delRes := s.exec.Run(ctx, &batch.Run{
		Name: OpRename, Items: deletes.items(), Cancel: c, Offset: n, Span: 2 * n,
	}, deletes.action())

	return s.finish(batch.Result{
		Name:       OpRename,
		Outcome:    delRes.Outcome,
		Total:      2 * n,
		Attempted:  copyRes.Attempted + delRes.Attempted,
		Succeeded:  copyRes.Succeeded + delRes.Succeeded,
		Skipped:    delRes.Skipped,
		FailedItem: delRes.FailedItem,
		Message:    delRes.Message,
	})
}

// Rename renames the row oldName shown at current to newName. A trailing
// "/" on oldName selects the folder rename.
func (s *Service) Rename(ctx context.Context, c *batch.Canceler, current, oldName, newName string) batch.Result {
	newName = strings.TrimSpace(newName)
	if err := ValidateName(newName); err != nil {
		return s.fail(OpRename, oldName, err)
	}

	if keypath.IsFolder(oldName) {
		return s.RenameFolder(ctx, c, current+oldName, current+keypath.FolderName(newName))
	}
	return s.RenameFile(ctx, c, current+oldName, current+strings.TrimSuffix(newName, keypath.Separator))
}

// ValidateName rejects names that cannot be placed under the current folder.
func ValidateName(name string) error {
	trimmed := strings.Trim(name, keypath.Separator)
	switch {
	case trimmed == "", trimmed == ".", trimmed == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.HasPrefix(name, keypath.Separator), strings.Contains(name, "//"):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
