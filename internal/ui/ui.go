package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/search"
	"github.com/Jakson-Almeida/shortsgrab/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResultListView ViewState = iota
	ConfirmView
	DownloadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	searcher *search.Searcher
	engine   tasks.Engine
	quality  string
	width    int
	height   int

	videoList list.Model
	selected  *models.Video

	progressChan chan tasks.ProgressUpdate
	progressBar  progress.Model
	progressMsg  string
	percent      float64

	result *tasks.DownloadResult
	err    error

	help help.Model
	keys keyMap
}

// videoItem wraps [models.Video] to implement list.Item.
type videoItem struct {
	video models.Video
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string       { return i.video.Title }
func (i videoItem) Description() string {
	return fmt.Sprintf("%s • %s", i.video.ChannelTitle, i.video.PublishedAt.Format("2006-01-02"))
}

type pageFetchedMsg struct {
	page *models.SearchPage
	err  error
}

type progressUpdateMsg tasks.ProgressUpdate

type downloadCompleteMsg struct {
	result *tasks.DownloadResult
}

// NewModel creates a new TUI model over an already-started search.
func NewModel(ctx context.Context, searcher *search.Searcher, engine tasks.Engine, firstPage *models.SearchPage, quality string) *Model {
	m := &Model{
		ctx:         ctx,
		view:        ResultListView,
		searcher:    searcher,
		engine:      engine,
		quality:     quality,
		progressBar: progress.New(progress.WithDefaultGradient()),
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.setPage(firstPage)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.videoList.SetSize(msg.Width-4, msg.Height-8)
		m.progressBar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ResultListView:
			return m.handleResultListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case pageFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setPage(msg.page)
		return m, nil

	case progressUpdateMsg:
		update := tasks.ProgressUpdate(msg)
		m.progressMsg = update.Message
		if update.Percent > m.percent {
			m.percent = update.Percent
		}
		return m, tea.Batch(m.progressBar.SetPercent(m.percent/100), m.waitForProgress())

	case progress.FrameMsg:
		bar, cmd := m.progressBar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.progressBar = b
		}
		return m, cmd

	case downloadCompleteMsg:
		m.result = msg.result
		m.err = msg.result.Err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == ResultListView {
		m.videoList, cmd = m.videoList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ResultListView:
		return m.renderResultList()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) setPage(page *models.SearchPage) {
	items := make([]list.Item, len(page.Videos))
	for i, v := range page.Videos {
		items[i] = videoItem{video: v}
	}
	m.videoList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.videoList.Title = fmt.Sprintf("Results — page %d", m.searcher.Page())
	if m.width > 0 {
		m.videoList.SetSize(m.width-4, m.height-8)
	}
}

func (m *Model) handleResultListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.videoList.SelectedItem(); selected != nil {
			if item, ok := selected.(videoItem); ok {
				m.selected = &item.video
				m.view = ConfirmView
			}
		}
		return m, nil
	case "n", "right":
		if m.searcher.HasNext() {
			return m, m.fetchPage(m.searcher.Next)
		}
		return m, nil
	case "p", "left":
		if m.searcher.HasPrev() {
			return m, m.fetchPage(m.searcher.Prev)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = ResultListView
		m.selected = nil
		return m, nil
	case "y", "enter":
		m.view = DownloadView
		m.percent = 0
		m.progressMsg = ""
		return m, m.startDownload()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.view = ResultListView
		m.selected = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) fetchPage(fetch func(context.Context) (*models.SearchPage, error)) tea.Cmd {
	return func() tea.Msg {
		page, err := fetch(m.ctx)
		return pageFetchedMsg{page: page, err: err}
	}
}

func (m *Model) startDownload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan
	item := *m.selected

	go func() {
		m.result = m.engine.Download(m.ctx, ch, item.ID, tasks.DownloadOpts{
			Quality: m.quality,
			Title:   item.Title,
		})
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return downloadCompleteMsg{result: m.result}
		}

		update, ok := <-ch
		if !ok {
			return downloadCompleteMsg{result: m.result}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderResultList() string {
	var pager string
	switch {
	case m.searcher.HasNext() && m.searcher.HasPrev():
		pager = "n/p to page"
	case m.searcher.HasNext():
		pager = "n for next page"
	case m.searcher.HasPrev():
		pager = "p for previous page"
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if pager != "" {
		helpView = fmt.Sprintf("%s • %s", helpView, styles.help.Render(pager))
	}

	body := m.videoList.View()
	if m.err != nil {
		body = fmt.Sprintf("%s\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), body)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Download '%s'?", m.selected.Title))
	info := fmt.Sprintf("\nChannel: %s\nQuality: %s\n", m.selected.ChannelTitle, m.quality)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render(fmt.Sprintf("Downloading '%s'", m.selected.Title))
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.progressBar.View(), m.progressMsg)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		body := styles.err.Render(fmt.Sprintf("✗ Download failed: %v", m.err))
		if m.result != nil && m.result.WatchURL != "" {
			body += "\n" + styles.warn.Render(fmt.Sprintf("Watch it manually: %s", m.result.WatchURL))
		}
		return fmt.Sprintf("%s\n\n%s", body, styles.help.Render("esc to go back, q to quit"))
	}

	title := styles.ok.Render("✓ Download complete")
	info := fmt.Sprintf("\nSaved to: %s", m.result.Path)
	if m.result.Fallback {
		info += "\n" + styles.warn.Render("Retrieved via direct download (progress channel was unavailable)")
	}
	return fmt.Sprintf("%s%s\n\n%s", title, info, styles.help.Render("esc to go back, q to quit"))
}
