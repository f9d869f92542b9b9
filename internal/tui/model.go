// Package tui is the interactive bucket browser built on bubbletea.
package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/ops"
	"github.com/slmtnm/s4fs/internal/tree"
)

// ViewMode represents the current view mode
type ViewMode int

const (
	ViewBrowser ViewMode = iota
	ViewPreview
	ViewHelp
	ViewUpload
)

// previewLimit bounds how much of an object is fetched for preview.
const previewLimit = 256 << 10

// Options tune the browser.
type Options struct {
	// StatusTimeout is how long a status message stays visible.
	StatusTimeout time.Duration
	// DownloadDir receives downloaded files.
	DownloadDir string
	// LocalDir is where the upload picker starts.
	LocalDir string
}

// job is the batch currently running in the background.
type job struct {
	name   string
	cancel *batch.Canceler
	line   string
}

// promptKind selects what an accepted text prompt does.
type promptKind int

const (
	promptNone promptKind = iota
	promptNewFolder
	promptRename
)

type prompt struct {
	kind   promptKind
	target string
	input  textinput.Model
}

// newPrompt opens a text prompt prefilled with value.
func newPrompt(kind promptKind, target, value string) (prompt, tea.Cmd) {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1024
	input.SetValue(value)
	input.CursorEnd()
	cmd := input.Focus()
	return prompt{kind: kind, target: target, input: input}, cmd
}

// Model represents the application state
type Model struct {
	svc     *ops.Service
	events  batch.ChanSink
	opts    Options
	session Session

	entries []tree.Entry
	cursor  int
	marked  map[string]bool

	viewMode        ViewMode
	previewFileName string
	previewLines    []string
	previewScroll   int
	previewWidth    int

	localItems  []LocalItem
	localPath   string
	localCursor int
	localMarked map[string]bool

	prompt  prompt
	confirm []string

	job *job

	err           error
	statusMessage string
	statusID      int
	loading       bool
	width         int
	height        int
}

// Messages for async operations
type entriesLoadedMsg struct {
	path    string
	entries []tree.Entry
	err     error
}

type previewLoadedMsg struct {
	content string
	file    string
	err     error
}

type folderCreatedMsg struct {
	prefix string
	err    error
}

type localFilesLoadedMsg struct {
	items []LocalItem
	path  string
	err   error
}

// batchEventMsg carries one event from the running batch.
type batchEventMsg struct {
	event batch.Event
}

type clearStatusMsg struct {
	id int
}

// New creates the browser. events must be the sink the service's executor
// reports to.
func New(svc *ops.Service, events batch.ChanSink, opts Options) Model {
	if opts.LocalDir == "" {
		opts.LocalDir = "."
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	return Model{
		svc:         svc,
		events:      events,
		opts:        opts,
		session:     Session{Bucket: svc.Bucket()},
		marked:      map[string]bool{},
		localMarked: map[string]bool{},
		viewMode:    ViewBrowser,
		loading:     true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.loadEntries()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.prompt.kind != promptNone {
			return m.updatePrompt(msg)
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		switch m.viewMode {
		case ViewBrowser:
			return m.updateBrowser(msg)
		case ViewPreview:
			return m.updatePreview(msg)
		case ViewHelp:
			return m.updateHelp(msg)
		case ViewUpload:
			return m.updateUpload(msg)
		}

	case entriesLoadedMsg:
		// a listing for a folder we already left is stale
		if msg.path != m.session.Path {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		m.marked = map[string]bool{}
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}
		return m, nil

	case previewLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.previewFileName = msg.file
		m.previewLines = splitLines(msg.content)
		m.previewScroll = 0
		m.previewWidth = m.calculatePreviewWidth()
		m.viewMode = ViewPreview
		m.err = nil
		return m, nil

	case folderCreatedMsg:
		if msg.err != nil {
			return m.setError(msg.err)
		}
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("✓ Created folder '%s'", msg.prefix))
		return m, tea.Batch(cmd, m.reload())

	case localFilesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.localItems = msg.items
		m.localPath = msg.path
		m.localMarked = map[string]bool{}
		m.localCursor = 0
		m.viewMode = ViewUpload
		m.err = nil
		return m, nil

	case batchEventMsg:
		return m.handleBatchEvent(msg.event)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
		}
		return m, nil
	}

	// cursor blinks and the like
	if m.prompt.kind != promptNone {
		var cmd tea.Cmd
		m.prompt.input, cmd = m.prompt.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleBatchEvent updates the progress line and, on DoneEvent, reports
// the result and refreshes the listing once.
func (m Model) handleBatchEvent(ev batch.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case batch.ItemStartEvent:
		if m.job != nil {
			m.job.line = fmt.Sprintf("%s [%d/%d] %s", ev.Op, ev.Index, ev.Total, ev.Label)
		}
	case batch.ProgressEvent:
		if m.job != nil {
			m.job.line = progressLine(ev)
		}
	case batch.ItemResultEvent:
		if m.job != nil && !ev.OK {
			m.job.line = fmt.Sprintf("%s [%d/%d] %s failed: %s", ev.Op, ev.Index, ev.Total, ev.Label, ev.Message)
		}
	case batch.DoneEvent:
		m.job = nil
		var cmd tea.Cmd
		if ev.Result.Outcome == batch.Completed {
			m, cmd = m.setStatus("✓ " + ev.Result.Summary())
		} else {
			m, cmd = m.setError(errors.New(ev.Result.Summary()))
		}
		return m, tea.Batch(cmd, m.reload())
	}
	return m, waitForEvent(m.events)
}

func progressLine(ev batch.ProgressEvent) string {
	line := fmt.Sprintf("%s [%d/%d] %s %3.0f%%", ev.Op, ev.Index, ev.Total, ev.Label, ev.Percent)
	if ev.Throughput != "" {
		line += " " + ev.Throughput
	}
	return line
}

// setStatus shows message until the status timeout passes or another
// message replaces it.
func (m Model) setStatus(message string) (Model, tea.Cmd) {
	m.err = nil
	m.statusMessage = message
	m.statusID++
	return m, m.clearStatusAfter()
}

func (m Model) setError(err error) (Model, tea.Cmd) {
	m.err = err
	m.statusMessage = ""
	m.statusID++
	return m, nil
}

func (m Model) clearStatusAfter() tea.Cmd {
	if m.opts.StatusTimeout <= 0 {
		return nil
	}
	id := m.statusID
	return tea.Tick(m.opts.StatusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// reload lists the current folder again.
func (m Model) reload() tea.Cmd {
	return m.loadEntries()
}

// Session returns the browsing position.
func (m Model) Session() Session {
	return m.session
}
