package tui

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/keypath"
)

// loadEntries lists and projects the current folder
func (m Model) loadEntries() tea.Cmd {
	path := m.session.Path
	return func() tea.Msg {
		entries, err := m.svc.Browse(context.Background(), path)
		return entriesLoadedMsg{path: path, entries: entries, err: err}
	}
}

// previewFileContent loads file content for preview
func (m Model) previewFileContent(key string) tea.Cmd {
	return func() tea.Msg {
		data, truncated, err := m.svc.Preview(context.Background(), key, previewLimit)
		if err != nil {
			return previewLoadedMsg{err: err}
		}

		// Check if content is text (simple heuristic)
		if !utf8.Valid(data) && !truncated {
			return previewLoadedMsg{
				content: "[Binary file - cannot preview]",
				file:    key,
			}
		}

		content := strings.ToValidUTF8(string(data), "")
		if truncated {
			content += "\n[Preview truncated]"
		}
		return previewLoadedMsg{content: content, file: key}
	}
}

func (m Model) createFolder(prefix string) tea.Cmd {
	return func() tea.Msg {
		return folderCreatedMsg{prefix: prefix, err: m.svc.CreateFolder(context.Background(), prefix)}
	}
}

// startBatch runs op in the background and starts listening for its
// events. Only one batch runs at a time.
func (m Model) startBatch(name string, op func(ctx context.Context, c *batch.Canceler) batch.Result) (Model, tea.Cmd) {
	if m.job != nil {
		return m.setError(errBusy)
	}

	c := batch.NewCanceler()
	m.job = &job{name: name, cancel: c, line: name + " starting..."}
	m.err = nil

	run := func() tea.Msg {
		op(context.Background(), c)
		return nil
	}
	return m, tea.Batch(run, waitForEvent(m.events))
}

// waitForEvent blocks until the running batch reports something.
func waitForEvent(events batch.ChanSink) tea.Cmd {
	return func() tea.Msg {
		return batchEventMsg{event: <-events}
	}
}

// loadLocalFiles loads files and directories from the specified path
func (m Model) loadLocalFiles(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := os.ReadDir(path)
		if err != nil {
			return localFilesLoadedMsg{err: err}
		}

		// Always add parent directory entry (allows going above starting directory)
		localItems := []LocalItem{{Name: "..", IsDir: true}}

		// Add directories and files (excluding hidden ones)
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}

			localItems = append(localItems, LocalItem{
				Name:  entry.Name(),
				IsDir: entry.IsDir(),
				Size:  info.Size(),
			})
		}

		// Sort: directories first, then files
		rest := localItems[1:]
		sort.Slice(rest, func(i, j int) bool {
			if rest[i].IsDir != rest[j].IsDir {
				return rest[i].IsDir
			}
			return rest[i].Name < rest[j].Name
		})

		return localFilesLoadedMsg{items: localItems, path: path}
	}
}

// LocalItem represents a local file or directory
type LocalItem struct {
	Name  string
	IsDir bool
	Size  int64
}

func parentDir(path string) string {
	parent := filepath.Dir(path)
	if parent == "." && path == "." {
		return ".."
	}
	if parent == "" {
		return "."
	}
	return parent
}

// folderPrefix is the key prefix a new folder called name gets under the
// current path.
func (m Model) folderPrefix(name string) string {
	return m.session.Path + keypath.FolderName(strings.Trim(name, keypath.Separator))
}
