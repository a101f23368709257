// Package ui implements the interactive review shell on top of bubbletea.
package ui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchtrace/watchtrace/pkg/config"
	"github.com/watchtrace/watchtrace/pkg/dataset"
	"github.com/watchtrace/watchtrace/pkg/history"
	"github.com/watchtrace/watchtrace/pkg/logx"
	"github.com/watchtrace/watchtrace/pkg/mobiledata"
	"github.com/watchtrace/watchtrace/pkg/plot"
	"github.com/watchtrace/watchtrace/pkg/review"
)

type uiState int

const (
	stateBrowse uiState = iota
	statePromptOpen
	statePromptLabel
	statePromptNote
	statePromptGoto
	stateBusy
)

type progressMsg string

type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model for the review shell.
type Model struct {
	cfg     *config.Config
	cfgPath string
	logger  *logx.Logger
	session *review.Session
	hist    *history.Store

	state  uiState
	input  textinput.Model
	spin   spinner.Model
	help   help.Model
	keymap KeyMap
	styles Styles

	filePath string
	lastMsg  string
	lastErr  string
	busyMsg  string
	recent   []history.FileRecord

	progCh chan tea.Msg

	width  int
	height int
}

// NewModel builds the shell model. cfgPath is where clamped window geometry
// is persisted after a load; empty disables persistence. hist may be nil when
// no history database is configured.
func NewModel(cfg *config.Config, cfgPath string, logger *logx.Logger, session *review.Session, hist *history.Store) *Model {
	m := &Model{
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logger,
		session: session,
		hist:    hist,
		help:    help.New(),
		keymap:  DefaultKeyMap(),
		styles:  NewStyles(),
		input:   textinput.New(),
		spin:    spinner.New(),
	}
	m.spin.Spinner = spinner.Dot
	m.input.CharLimit = 512
	m.input.PromptStyle = m.styles.Prompt
	return m
}

// Run starts the shell, opening initialPath first when non-empty.
func Run(cfg *config.Config, cfgPath string, logger *logx.Logger, session *review.Session, hist *history.Store, initialPath string) error {
	m := NewModel(cfg, cfgPath, logger, session, hist)
	if initialPath != "" {
		m.startLoad(initialPath)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	if m.state == stateBusy {
		return tea.Batch(m.spin.Tick, listen(m.progCh))
	}
	return nil
}

// listen forwards one message from an operation channel into the program. The
// progress handler re-issues it until the channel closes.
func listen(ch chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// startLoad kicks off an asynchronous file load.
func (m *Model) startLoad(path string) {
	m.filePath = path
	m.state = stateBusy
	m.busyMsg = "Loading " + path
	m.lastErr = ""

	ch := make(chan tea.Msg, 64)
	m.progCh = ch
	go func() {
		err := m.session.Load(path, func(msg string) { ch <- progressMsg(msg) }, nil)
		ch <- opDoneMsg{op: "load", err: err}
		close(ch)
	}()
}

// startSave kicks off an asynchronous merge-and-save.
func (m *Model) startSave() {
	m.state = stateBusy
	m.busyMsg = "Saving " + m.filePath
	m.lastErr = ""

	ch := make(chan tea.Msg, 64)
	m.progCh = ch
	go func() {
		err := m.session.Save(m.filePath, func(msg string) { ch <- progressMsg(msg) }, nil)
		ch <- opDoneMsg{op: "save", err: err}
		close(ch)
	}()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case progressMsg:
		m.busyMsg = string(msg)
		return m, listen(m.progCh)

	case opDoneMsg:
		m.state = stateBrowse
		m.progCh = nil
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.logger.Error("Operation failed", "op", msg.op, "error", msg.err)
			return m, nil
		}
		switch msg.op {
		case "load":
			m.lastMsg = fmt.Sprintf("Loaded %s", m.filePath)
			m.persistEffectiveConfig()
			if m.hist != nil {
				if _, err := m.hist.Touch(m.filePath); err != nil {
					m.logger.Warn("Failed to record file history", "error", err)
				}
				m.restorePosition()
			}
		case "save":
			m.lastMsg = fmt.Sprintf("Saved %s", m.filePath)
			m.recordPosition()
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateBusy:
		// Busy operations cannot be interrupted except by quitting.
		if key.Matches(msg, m.keymap.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case statePromptOpen, statePromptLabel, statePromptNote, statePromptGoto:
		return m.handlePromptKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = stateBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		state := m.state
		m.state = stateBrowse
		m.input.Blur()
		switch state {
		case statePromptOpen:
			if value == "" {
				return m, nil
			}
			if m.session.Dirty() {
				m.lastErr = "unsaved changes, save before opening another file"
				return m, nil
			}
			m.startLoad(value)
			return m, tea.Batch(m.spin.Tick, listen(m.progCh))
		case statePromptLabel:
			if value == "" {
				return m, nil
			}
			if m.session.Annotate(value) {
				m.lastMsg = fmt.Sprintf("Window annotated: %s", value)
			}
		case statePromptNote:
			if m.session.AddNote(value) {
				m.lastMsg = "Note recorded"
			}
		case statePromptGoto:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil || !m.session.GotoFraction(f) {
				m.lastErr = fmt.Sprintf("cannot seek to %q", value)
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastErr = ""

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.recordPosition()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keymap.Open):
		m.openPrompt(statePromptOpen, "path> ", "data file to open")
		m.loadRecent()
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.Save):
		if !m.session.HasData() {
			return m, nil
		}
		m.startSave()
		return m, tea.Batch(m.spin.Tick, listen(m.progCh))

	case key.Matches(msg, m.keymap.ToggleMode):
		m.session.ToggleMode()
		return m, nil

	case key.Matches(msg, m.keymap.Forward):
		m.moveResult(m.session.StepForward(), "at the end of the data")
		return m, nil

	case key.Matches(msg, m.keymap.Backward):
		m.moveResult(m.session.StepBackward(), "at the start of the data")
		return m, nil

	case key.Matches(msg, m.keymap.Grow):
		m.moveResult(m.session.GrowWindow(), "window cannot grow further")
		return m, nil

	case key.Matches(msg, m.keymap.Shrink):
		m.moveResult(m.session.ShrinkWindow(), "window cannot shrink further")
		return m, nil

	case key.Matches(msg, m.keymap.Goto):
		m.openPrompt(statePromptGoto, "goto> ", "fraction between 0 and 1")
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.Annotate):
		m.openPrompt(statePromptLabel, "label> ", "activity label")
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.RemoveLabel):
		if m.session.RemoveAnnotation() {
			m.lastMsg = "Labels removed from window"
		}
		return m, nil

	case key.Matches(msg, m.keymap.Note):
		m.openPrompt(statePromptNote, "note> ", "free-form note")
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.MarkValid):
		if m.session.MarkWindowValid() {
			m.lastMsg = "GPS window marked valid"
		}
		return m, nil

	case key.Matches(msg, m.keymap.MarkInvalid):
		if m.session.MarkWindowInvalid() {
			m.lastMsg = "GPS window marked invalid"
		}
		return m, nil

	case key.Matches(msg, m.keymap.Chart):
		m.renderChart()
		return m, nil
	}

	// Configured quick-annotation keys apply a label in one stroke.
	if m.session.Mode() == review.ModeSensors {
		if label, ok := m.cfg.AnnotationKeys[msg.String()]; ok {
			if m.session.Annotate(label) {
				m.lastMsg = fmt.Sprintf("Window annotated: %s", label)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) openPrompt(state uiState, prompt, placeholder string) {
	m.state = state
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) moveResult(ok bool, boundary string) {
	if ok {
		m.lastMsg = ""
		return
	}
	m.lastMsg = boundary
}

func (m *Model) loadRecent() {
	m.recent = nil
	if m.hist == nil {
		return
	}
	recs, err := m.hist.Recent(5)
	if err != nil {
		m.logger.Warn("Failed to read file history", "error", err)
		return
	}
	m.recent = recs
}

// persistEffectiveConfig re-applies the configured cursor geometry to the
// loaded data and writes the clamped values back to the config file, so a
// window tuned against a small file survives across sessions.
func (m *Model) persistEffectiveConfig() {
	m.cfg = m.session.ApplyConfig(m.cfg)
	if m.cfgPath == "" {
		return
	}
	if err := m.cfg.Save(m.cfgPath); err != nil {
		m.logger.Warn("Failed to persist effective config", "error", err)
	}
}

// restorePosition seeks the sensor cursor near the row the previous session
// on this file stopped at.
func (m *Model) restorePosition() {
	rec, found, err := m.hist.Get(m.filePath)
	if err != nil {
		m.logger.Warn("Failed to read file history", "error", err)
		return
	}
	if !found || rec.LastRow <= 0 {
		return
	}
	c := m.session.Store().Cursor()
	if !c.Active() || c.Size() <= c.Length() {
		return
	}
	f := float64(rec.LastRow) / float64(c.Size()-c.Length())
	if f > 1.0 {
		f = 1.0
	}
	if c.GotoFraction(f) {
		m.lastMsg = fmt.Sprintf("Resumed near row %d of %s", rec.LastRow, m.filePath)
	}
}

func (m *Model) recordPosition() {
	if m.hist == nil || !m.session.HasData() || m.filePath == "" {
		return
	}
	if err := m.hist.SetLastRow(m.filePath, m.session.Store().Cursor().Start()); err != nil {
		m.logger.Warn("Failed to record position", "error", err)
	}
}

// renderChart writes the current window as a PNG next to the data file.
func (m *Model) renderChart() {
	if !m.session.HasData() {
		return
	}
	out := m.filePath + "." + string(m.session.Mode()) + ".png"
	f, err := os.Create(out)
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	defer f.Close()

	r := plot.NewRenderer(m.logger, 0, 0)
	if m.session.Mode() == review.ModeGPS {
		err = r.GPSPath(m.session.Index(), f)
	} else {
		err = r.SensorChart(m.session.Store(), m.plotFields(), f)
	}
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	m.lastMsg = "Chart written to " + out
}

// plotFields picks up to four float fields, skipping the coordinate columns.
func (m *Model) plotFields() []string {
	schema := m.session.Store().Schema()
	if schema == nil {
		return nil
	}
	var fields []string
	for _, name := range schema.Names() {
		if name == dataset.FieldLatitude || name == dataset.FieldLongitude {
			continue
		}
		if t, ok := schema.Type(name); !ok || t != mobiledata.TypeFloat {
			continue
		}
		fields = append(fields, name)
		if len(fields) == 4 {
			break
		}
	}
	return fields
}
