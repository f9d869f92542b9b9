package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/keypath"
	"github.com/slmtnm/s4fs/internal/ops"
	"github.com/slmtnm/s4fs/internal/store"
	"github.com/slmtnm/s4fs/internal/tree"
)

var (
	errBusy          = errors.New("another operation is still running, press esc to cancel it")
	errNoLocalFolder = errors.New("select a local folder to upload")
)

// updateBrowser handles browser view updates
func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancelJob()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case " ":
		if e, ok := m.current(); ok && e.Kind != tree.KindParent {
			if m.marked[e.Name] {
				delete(m.marked, e.Name)
			} else {
				m.marked[e.Name] = true
			}
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		}

	case "enter", "l", "o":
		e, ok := m.current()
		if !ok {
			break
		}
		switch e.Kind {
		case tree.KindParent:
			return m.navigate(func(s *Session) { s.Up() })
		case tree.KindFolder:
			return m.navigate(func(s *Session) { s.Enter(e.Name) })
		default:
			return m, m.previewFileContent(e.FullKey(m.session.Path))
		}

	case "backspace", "h":
		if m.session.Path != "" {
			return m.navigate(func(s *Session) { s.Up() })
		}

	case "~":
		return m.navigate(func(s *Session) { s.Root() })

	case "r":
		m.loading = true
		m.err = nil
		return m, m.reload()

	case "d":
		selected := m.selected()
		objects := make([]store.Object, 0, len(selected))
		for _, e := range selected {
			objects = append(objects, store.Object{Key: e.FullKey(m.session.Path), Size: e.Size})
		}
		dir := m.opts.DownloadDir
		return m.startBatch(ops.OpDownload, func(ctx context.Context, c *batch.Canceler) batch.Result {
			return m.svc.DownloadFiles(ctx, c, objects, dir)
		})

	case "u":
		dir := m.localPath
		if dir == "" {
			dir = m.opts.LocalDir
		}
		return m, m.loadLocalFiles(dir)

	case "n":
		var cmd tea.Cmd
		m.prompt, cmd = newPrompt(promptNewFolder, "", "")
		return m, cmd

	case "R":
		if e, ok := m.current(); ok && e.Kind != tree.KindParent {
			var cmd tea.Cmd
			m.prompt, cmd = newPrompt(promptRename, e.Name, strings.TrimSuffix(e.Name, keypath.Separator))
			return m, cmd
		}

	case "x":
		selected := m.selected()
		if len(selected) == 0 {
			return m.setError(ops.ErrNothingSelected)
		}
		m.confirm = make([]string, 0, len(selected))
		for _, e := range selected {
			m.confirm = append(m.confirm, e.FullKey(m.session.Path))
		}

	case "esc", "c":
		if m.cancelJob() {
			return m.setStatus("cancelling after the current item...")
		}

	case "?":
		m.viewMode = ViewHelp
	}

	return m, nil
}

// navigate changes the folder shown and lists it.
func (m Model) navigate(move func(*Session)) (tea.Model, tea.Cmd) {
	move(&m.session)
	m.cursor = 0
	m.marked = map[string]bool{}
	m.entries = nil
	m.loading = true
	m.err = nil
	return m, m.reload()
}

func (m Model) current() (tree.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return tree.Entry{}, false
	}
	return m.entries[m.cursor], true
}

// selected returns the marked rows in display order, or the row under the
// cursor when nothing is marked. The parent row is never selected.
func (m Model) selected() []tree.Entry {
	var out []tree.Entry
	if len(m.marked) > 0 {
		for _, e := range m.entries {
			if m.marked[e.Name] {
				out = append(out, e)
			}
		}
		return out
	}
	if e, ok := m.current(); ok && e.Kind != tree.KindParent {
		out = append(out, e)
	}
	return out
}

// cancelJob requests cancellation of the running batch, if any.
func (m Model) cancelJob() bool {
	if m.job == nil {
		return false
	}
	return m.job.cancel.Cancel()
}

// updateConfirm handles the delete confirmation
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	targets := m.confirm
	m.confirm = nil

	switch msg.String() {
	case "y", "Y", "enter":
		return m.startBatch(ops.OpDelete, func(ctx context.Context, c *batch.Canceler) batch.Result {
			return m.svc.Delete(ctx, c, targets)
		})
	case "ctrl+c":
		m.cancelJob()
		return m, tea.Quit
	}
	return m, nil
}

// updatePrompt handles text entry for new folder and rename
func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.cancelJob()
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompt = prompt{}
		return m, nil
	case tea.KeyEnter:
		return m.acceptPrompt()
	}

	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

func (m Model) acceptPrompt() (tea.Model, tea.Cmd) {
	p := m.prompt
	m.prompt = prompt{}
	name := strings.TrimSpace(p.input.Value())

	switch p.kind {
	case promptNewFolder:
		if err := ops.ValidateName(name); err != nil {
			return m.setError(err)
		}
		return m, m.createFolder(m.folderPrefix(name))

	case promptRename:
		current := m.session.Path
		return m.startBatch(ops.OpRename, func(ctx context.Context, c *batch.Canceler) batch.Result {
			return m.svc.Rename(ctx, c, current, p.target, name)
		})
	}
	return m, nil
}

// updatePreview handles preview view updates
func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancelJob()
		return m, tea.Quit
	case "esc", "backspace", "h", "left":
		m.viewMode = ViewBrowser
		m.previewFileName = ""
		m.previewLines = nil
		m.previewScroll = 0
		m.previewWidth = 0
	case "up", "k":
		if m.previewScroll > 0 {
			m.previewScroll--
		}
	case "down", "j":
		if m.previewScroll < m.maxPreviewScroll() {
			m.previewScroll++
		}
	case "pgup", "u":
		m.previewScroll = max(m.previewScroll-10, 0)
	case "pgdown", "d":
		m.previewScroll = min(m.previewScroll+10, m.maxPreviewScroll())
	case "home", "g":
		m.previewScroll = 0
	case "end", "G":
		m.previewScroll = m.maxPreviewScroll()
	}
	return m, nil
}

func (m Model) maxPreviewScroll() int {
	// title, borders and help take 8 rows
	return max(len(m.previewLines)-(m.height-8), 0)
}

// updateHelp handles help view updates
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancelJob()
		return m, tea.Quit
	case "esc", "?":
		m.viewMode = ViewBrowser
	}
	return m, nil
}

// updateUpload handles upload view updates
func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancelJob()
		return m, tea.Quit

	case "esc":
		m.viewMode = ViewBrowser
		return m, nil

	case "up", "k":
		if m.localCursor > 0 {
			m.localCursor--
		}

	case "down", "j":
		if m.localCursor < len(m.localItems)-1 {
			m.localCursor++
		}

	case " ":
		if item, ok := m.currentLocal(); ok && !item.IsDir {
			if m.localMarked[item.Name] {
				delete(m.localMarked, item.Name)
			} else {
				m.localMarked[item.Name] = true
			}
			if m.localCursor < len(m.localItems)-1 {
				m.localCursor++
			}
		}

	case "enter", "l", "o":
		item, ok := m.currentLocal()
		if !ok {
			break
		}
		if item.IsDir {
			if item.Name == ".." {
				return m, m.loadLocalFiles(parentDir(m.localPath))
			}
			return m, m.loadLocalFiles(filepath.Join(m.localPath, item.Name))
		}
		paths := m.markedLocalPaths()
		if len(paths) == 0 {
			paths = []string{filepath.Join(m.localPath, item.Name)}
		}
		m.viewMode = ViewBrowser
		dest := m.session.Path
		return m.startBatch(ops.OpUpload, func(ctx context.Context, c *batch.Canceler) batch.Result {
			return m.svc.UploadFiles(ctx, c, paths, dest)
		})

	case "U":
		item, ok := m.currentLocal()
		if !ok || !item.IsDir || item.Name == ".." {
			return m.setError(errNoLocalFolder)
		}
		m.viewMode = ViewBrowser
		dir := filepath.Join(m.localPath, item.Name)
		target := m.folderPrefix(item.Name)
		return m.startBatch(ops.OpUploadFolder, func(ctx context.Context, c *batch.Canceler) batch.Result {
			return m.svc.UploadFolder(ctx, c, dir, target)
		})

	case "backspace", "h":
		return m, m.loadLocalFiles(parentDir(m.localPath))
	}
	return m, nil
}

func (m Model) currentLocal() (LocalItem, bool) {
	if m.localCursor < 0 || m.localCursor >= len(m.localItems) {
		return LocalItem{}, false
	}
	return m.localItems[m.localCursor], true
}

// markedLocalPaths returns the marked local files in display order.
func (m Model) markedLocalPaths() []string {
	var paths []string
	for _, item := range m.localItems {
		if m.localMarked[item.Name] {
			paths = append(paths, filepath.Join(m.localPath, item.Name))
		}
	}
	return paths
}
