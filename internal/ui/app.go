package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/birdseye/internal/engine"
	"github.com/sadopc/birdseye/internal/filter"
	"github.com/sadopc/birdseye/internal/model"
	"github.com/sadopc/birdseye/internal/ops"
	"github.com/sadopc/birdseye/internal/scanner"
	"github.com/sadopc/birdseye/internal/ui/components"
	"github.com/sadopc/birdseye/internal/ui/style"
	"github.com/sadopc/birdseye/internal/util"
)

// Panel is one of the ranked views.
type Panel int

const (
	PanelFiles Panel = iota
	PanelDirs
	PanelTypes
	PanelFiltered
)

// AppState represents the application state.
type AppState int

const (
	StateBrowsing AppState = iota
	StateConfirmDelete
	StateHelp
)

const (
	tickInterval      = 60 * time.Millisecond
	maxFilteredRows   = 1000
	defaultExportPath = "birdseye-export.json"
)

// DeleteDoneMsg is sent when a delete request returns.
type DeleteDoneMsg struct {
	Path string
	Err  error
}

// ExportDoneMsg is sent when export completes.
type ExportDoneMsg struct {
	Path string
	Err  error
}

type tickMsg time.Time

// Options configure the App.
type Options struct {
	Root        string
	MaxFiles    int
	MaxDirs     int
	MaxTypes    int
	Filters     filter.Chain
	AllowDelete bool
	ExportPath  string
	Version     string
	// Now is the clock used for ages and filters; nil means time.Now.
	Now func() time.Time
}

// App is the root Bubble Tea model. It owns the consumer and polls it on
// every tick.
type App struct {
	opts     Options
	consumer *engine.Consumer

	state  AppState
	panel  Panel
	width  int
	height int

	sortConfig  model.SortConfig
	chain       filter.Chain
	selFilter   int
	allowDelete bool
	typesMap    bool

	rows    []components.Row
	paths   []string
	groups  []model.ExtensionGroup
	cursor  int
	offset  int
	pending components.ConfirmItem

	spinner spinner.Model
	theme   style.Theme
	keys    KeyMap
	layout  style.Layout

	statusMsg string
	fatalErr  error
}

// NewApp creates an App that scans opts.Root through consumer.
func NewApp(consumer *engine.Consumer, opts Options) *App {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 40
	}
	if opts.MaxDirs <= 0 {
		opts.MaxDirs = 20
	}
	if opts.MaxTypes <= 0 {
		opts.MaxTypes = 10
	}
	theme := style.DefaultTheme()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.SpinnerStyle

	return &App{
		opts:        opts,
		consumer:    consumer,
		state:       StateBrowsing,
		panel:       PanelFiles,
		sortConfig:  model.DefaultSort(),
		chain:       slices.Clone(opts.Filters),
		allowDelete: opts.AllowDelete,
		spinner:     s,
		theme:       theme,
		keys:        DefaultKeyMap(),
	}
}

func (a *App) Init() tea.Cmd {
	a.consumer.StartScan(a.opts.Root)
	return tea.Batch(a.tickCmd(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout = style.NewLayout(msg.Width, msg.Height)
		return a, nil

	case tickMsg:
		return a, a.poll()

	case spinner.TickMsg:
		if !a.consumer.Scanning() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case DeleteDoneMsg:
		a.state = StateBrowsing
		if msg.Err != nil {
			a.statusMsg = fmt.Sprintf("Delete failed: %v", msg.Err)
		}
		return a, tea.ClearScreen

	case ExportDoneMsg:
		if msg.Err != nil {
			a.statusMsg = fmt.Sprintf("Export failed: %v", msg.Err)
		} else {
			a.statusMsg = fmt.Sprintf("Exported to %s", msg.Path)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// poll applies whatever the engine has published since the last tick.
func (a *App) poll() tea.Cmd {
	res := a.consumer.Poll()
	if res.Completed {
		if err := a.consumer.Err(); err != nil {
			var rootErr *scanner.RootError
			if errors.As(err, &rootErr) {
				a.fatalErr = err
				return tea.Quit
			}
			if !errors.Is(err, context.Canceled) {
				a.statusMsg = fmt.Sprintf("Scan stopped: %v", err)
			}
		}
	}
	if n := len(res.Deleted); n > 0 {
		a.statusMsg = fmt.Sprintf("Deleted %d item(s)", n)
	}
	if res.Changed() {
		a.refresh()
	}
	return a.tickCmd()
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.consumer.Close()
		return a, tea.Quit
	}

	switch a.state {
	case StateHelp:
		if key.Matches(msg, a.keys.Help) || msg.String() == "esc" {
			a.state = StateBrowsing
			return a, tea.ClearScreen
		}
		return a, nil

	case StateConfirmDelete:
		if key.Matches(msg, a.keys.ConfirmYes) {
			return a, a.deleteCmd(a.pending.Path)
		}
		if key.Matches(msg, a.keys.ConfirmNo) {
			a.state = StateBrowsing
			return a, tea.ClearScreen
		}
		return a, nil

	case StateBrowsing:
		return a.handleBrowsingKey(msg)
	}

	return a, nil
}

func (a *App) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.statusMsg = ""
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.consumer.Close()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.state = StateHelp
		return a, tea.ClearScreen

	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1)

	case key.Matches(msg, a.keys.PanelFiles):
		a.switchPanel(PanelFiles)
	case key.Matches(msg, a.keys.PanelDirs):
		a.switchPanel(PanelDirs)
	case key.Matches(msg, a.keys.PanelTypes):
		a.switchPanel(PanelTypes)
	case key.Matches(msg, a.keys.PanelFiltered):
		a.switchPanel(PanelFiltered)

	case key.Matches(msg, a.keys.Sort):
		a.sortConfig = a.sortConfig.Next()
		a.refresh()
	case key.Matches(msg, a.keys.ToggleMap):
		if a.panel == PanelTypes {
			a.typesMap = !a.typesMap
		}

	case key.Matches(msg, a.keys.AddMinSize):
		a.addFilter(defaultFilter[filter.MinSize]())
	case key.Matches(msg, a.keys.AddMinAge):
		a.addFilter(defaultFilter[filter.MinAge]())
	case key.Matches(msg, a.keys.AddMaxAge):
		a.addFilter(defaultFilter[filter.MaxAge]())
	case key.Matches(msg, a.keys.AddMaxResults):
		a.addFilter(defaultFilter[filter.MaxResults]())
	case key.Matches(msg, a.keys.NextFilter):
		a.selectFilter(1)
	case key.Matches(msg, a.keys.PrevFilter):
		a.selectFilter(-1)
	case key.Matches(msg, a.keys.Increase):
		a.adjustFilter(1)
	case key.Matches(msg, a.keys.Decrease):
		a.adjustFilter(-1)
	case key.Matches(msg, a.keys.RemoveFilter):
		a.removeFilter()

	case key.Matches(msg, a.keys.ToggleDelete):
		if !a.consumer.Session().CanDelete() {
			a.statusMsg = "Deletion is not available for this scan"
			break
		}
		a.allowDelete = !a.allowDelete
	case key.Matches(msg, a.keys.Delete):
		if a.prepareDelete() {
			return a, tea.ClearScreen
		}

	case key.Matches(msg, a.keys.Export):
		return a, a.exportCmd()

	case key.Matches(msg, a.keys.Rescan):
		a.consumer.StartScan(a.opts.Root)
		a.cursor = 0
		a.offset = 0
		a.refresh()
		return a, tea.Batch(tea.ClearScreen, a.spinner.Tick)
	}

	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	switch a.state {
	case StateHelp:
		return components.RenderHelp(a.theme, a.width, a.height)
	case StateConfirmDelete:
		return components.RenderConfirmDialog(a.theme, a.pending, a.width, a.height)
	}

	snap := a.consumer.Snapshot()
	if snap == nil {
		return components.RenderScanProgress(a.theme, a.consumer.Stats(), a.spinner.View(), a.opts.Root, a.width, a.height)
	}
	return a.renderBrowsing(snap)
}

func (a *App) renderBrowsing(snap *model.Snapshot) string {
	info := components.HeaderInfo{
		Root:  snap.Root(),
		Size:  snap.CombinedSize(),
		Files: snap.Len(),
		Dirs:  snap.DirCount(),
	}
	if a.consumer.Scanning() {
		info.Status = a.spinner.View() + " scanning"
	}
	header := components.RenderHeader(a.theme, info, a.width)
	tabBar := components.RenderTabBar(a.theme, int(a.panel), a.sortConfig, a.width)

	var caption string
	if a.panel == PanelFiltered {
		caption = components.RenderFilterBar(a.theme, a.chain, a.selFilter, a.width)
	} else {
		caption = components.RenderCaption(a.theme, a.caption(), a.width)
	}

	var content string
	shown := len(a.rows)
	if a.panel == PanelTypes {
		shown = len(a.groups)
		content = a.renderTypes(snap.CombinedSize())
	} else {
		lv := &components.ListView{
			Theme:  a.theme,
			Layout: a.layout,
			Rows:   a.rows,
			Total:  snap.CombinedSize(),
			Cursor: a.cursor,
			Offset: a.offset,
			Empty:  a.emptyMessage(),
		}
		lv.EnsureVisible()
		a.offset = lv.Offset
		content = lv.Render()
	}

	status := components.RenderStatusBar(a.theme, components.StatusInfo{
		Shown:       shown,
		Skipped:     a.consumer.Stats().Errors,
		AllowDelete: a.allowDelete,
		CanDelete:   a.consumer.Session().CanDelete(),
		Message:     a.statusMsg,
	}, a.width)

	return header + "\n" + tabBar + "\n" + caption + "\n" + content + "\n" + status
}

func (a *App) renderTypes(total int64) string {
	width := a.layout.ContentWidth()
	height := a.layout.ContentHeight()
	if a.typesMap {
		items := make([]components.MapItem, 0, len(a.groups))
		for _, g := range a.groups {
			items = append(items, components.MapItem{
				Label: components.TypeLabel(g.Ext),
				Size:  g.Size,
				Color: lipgloss.Color(model.CategoryColor(g.Category)),
			})
		}
		return components.RenderTreemap(a.theme, items, width, height)
	}

	// Header, separator and summary take three lines.
	visible := max(height-3, 1)
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+visible {
		a.offset = a.cursor - visible + 1
	}
	return components.RenderTypes(a.theme, a.groups, total, a.cursor, a.offset, width, height)
}

func (a *App) caption() string {
	switch a.panel {
	case PanelDirs:
		return fmt.Sprintf("Largest %d directories by combined size", len(a.rows))
	case PanelTypes:
		if a.typesMap {
			return "Largest extensions (m: table)"
		}
		return fmt.Sprintf("Largest %d extensions (m: map)", len(a.groups))
	default:
		return fmt.Sprintf("Largest %d files", len(a.rows))
	}
}

func (a *App) emptyMessage() string {
	switch {
	case a.panel == PanelFiltered && len(a.chain) == 0:
		return "Add a filter with s, o, w or c"
	case a.panel == PanelFiltered:
		return "No files match the filters"
	case a.consumer.Scanning():
		return "Scanning..."
	default:
		return "(nothing to show)"
	}
}

// refresh rebuilds the rows of the current panel from the snapshot.
func (a *App) refresh() {
	a.rows, a.paths, a.groups = nil, nil, nil
	snap := a.consumer.Snapshot()
	if snap != nil {
		now := a.now()
		switch a.panel {
		case PanelFiles:
			files := slices.Clone(limit(snap.FilesBySize(), a.opts.MaxFiles))
			model.SortFiles(files, a.sortConfig)
			a.setFileRows(snap.Root(), files, now)
		case PanelDirs:
			dirs := slices.Clone(limit(snap.DirsBySize(), a.opts.MaxDirs))
			model.SortDirectories(dirs, a.sortConfig)
			for _, d := range dirs {
				a.rows = append(a.rows, components.Row{
					Icon:   util.DirIcon(d.Name()),
					Name:   d.Name(),
					Detail: fmt.Sprintf("%d files", len(d.Files)),
					Size:   d.CombinedSize,
					IsDir:  true,
				})
				a.paths = append(a.paths, d.Path)
			}
		case PanelTypes:
			a.groups = limit(snap.TypesBySize(), a.opts.MaxTypes)
		case PanelFiltered:
			if len(a.chain) > 0 {
				var files []model.File
				for f := range a.chain.Evaluate(snap.FilesBySize(), now) {
					files = append(files, f)
					if len(files) >= maxFilteredRows {
						break
					}
				}
				model.SortFiles(files, a.sortConfig)
				a.setFileRows(snap.Root(), files, now)
			}
		}
	}
	a.moveCursor(0)
}

func (a *App) setFileRows(root string, files []model.File, now time.Time) {
	for _, f := range files {
		a.rows = append(a.rows, components.Row{
			Icon:   util.FileIcon(f.Name()),
			Name:   relativeName(root, f.Path),
			Detail: util.FormatAge(f.Modified, f.ModifiedKnown, now),
			Size:   f.Size,
			Color:  lipgloss.Color(model.CategoryColor(model.ClassifyExt(f.Ext()))),
		})
		a.paths = append(a.paths, f.Path)
	}
}

func (a *App) itemCount() int {
	if a.panel == PanelTypes {
		return len(a.groups)
	}
	return len(a.rows)
}

func (a *App) moveCursor(delta int) {
	a.cursor = min(a.cursor+delta, a.itemCount()-1)
	a.cursor = max(a.cursor, 0)
}

func (a *App) switchPanel(p Panel) {
	if a.panel == p {
		return
	}
	a.panel = p
	a.cursor = 0
	a.offset = 0
	a.refresh()
}

func (a *App) addFilter(f filter.Filter) {
	a.chain = append(a.chain, f)
	a.selFilter = len(a.chain) - 1
	a.panel = PanelFiltered
	a.cursor = 0
	a.offset = 0
	a.refresh()
}

func (a *App) selectFilter(delta int) {
	if a.panel != PanelFiltered || len(a.chain) == 0 {
		return
	}
	a.selFilter = (a.selFilter + delta + len(a.chain)) % len(a.chain)
}

func (a *App) adjustFilter(sign int) {
	if a.panel != PanelFiltered || a.selFilter < 0 || a.selFilter >= len(a.chain) {
		return
	}
	f := a.chain[a.selFilter]
	a.chain[a.selFilter] = filter.Step(f, sign*stepSize(f))
	a.refresh()
}

func (a *App) removeFilter() {
	if a.panel != PanelFiltered || a.selFilter < 0 || a.selFilter >= len(a.chain) {
		return
	}
	a.chain = slices.Delete(a.chain, a.selFilter, a.selFilter+1)
	a.selFilter = max(min(a.selFilter, len(a.chain)-1), 0)
	a.refresh()
}

// Filters returns the current filter chain.
func (a *App) Filters() filter.Chain { return slices.Clone(a.chain) }

// prepareDelete opens the confirmation for the entry under the cursor and
// reports whether it did.
func (a *App) prepareDelete() bool {
	if !a.consumer.Session().CanDelete() {
		a.statusMsg = "Deletion is not available for this scan"
		return false
	}
	if !a.allowDelete {
		a.statusMsg = "Deletion is locked, press D to allow it"
		return false
	}
	snap := a.consumer.Snapshot()
	if snap == nil || a.panel == PanelTypes || a.cursor >= len(a.paths) {
		return false
	}
	path := a.paths[a.cursor]
	if path == snap.Root() {
		a.statusMsg = "The scan root cannot be deleted"
		return false
	}
	row := a.rows[a.cursor]
	a.pending = components.ConfirmItem{Path: path, Size: row.Size, IsDir: row.IsDir}
	if row.IsDir {
		a.pending.Files = countFiles(snap, path)
	}
	a.state = StateConfirmDelete
	return true
}

// deleteCmd deletes off the UI goroutine; the snapshot changes on the
// next poll.
func (a *App) deleteCmd(path string) tea.Cmd {
	session := a.consumer.Session()
	return func() tea.Msg {
		return DeleteDoneMsg{Path: path, Err: session.RequestDelete(path)}
	}
}

func (a *App) exportCmd() tea.Cmd {
	snap := a.consumer.Snapshot()
	if snap == nil {
		return nil
	}
	exportPath := a.opts.ExportPath
	if exportPath == "" {
		exportPath = defaultExportPath
	}
	// The export goroutine gets its own copy.
	cp := snap.Clone()
	version := a.opts.Version
	return func() tea.Msg {
		err := ops.ExportJSON(cp, exportPath, version)
		return ExportDoneMsg{Path: exportPath, Err: err}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) now() time.Time {
	if a.opts.Now != nil {
		return a.opts.Now()
	}
	return time.Now()
}

// FatalError returns the error that ended the program, if any.
func (a *App) FatalError() error { return a.fatalErr }

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// defaultFilter returns the starting value of filter kind T.
func defaultFilter[T filter.Filter]() filter.Filter {
	for _, f := range filter.Defaults {
		if v, ok := f.(T); ok {
			return v
		}
	}
	var zero T
	return zero
}

func stepSize(f filter.Filter) int {
	switch f.(type) {
	case filter.MinSize, filter.MaxResults:
		return 5
	default:
		return 1
	}
}

func countFiles(snap *model.Snapshot, path string) int {
	d, ok := snap.Directory(path)
	if !ok {
		return 0
	}
	n := len(d.Files)
	for _, sub := range d.Subdirectories {
		n += countFiles(snap, sub)
	}
	return n
}

func relativeName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return path
	}
	return rel
}
