package ui

import (
	"fmt"
	"strings"

	"github.com/watchtrace/watchtrace/pkg/dataset"
	"github.com/watchtrace/watchtrace/pkg/mobiledata"
	"github.com/watchtrace/watchtrace/pkg/review"
)

func (m *Model) View() string {
	var b strings.Builder

	// While a load or save runs on its worker goroutine the session must not
	// be read, so the busy view sticks to the spinner and progress text.
	if m.state == stateBusy {
		b.WriteString(m.styles.Title.Render("watchtrace"))
		b.WriteString(fmt.Sprintf("\n\n %s %s\n", m.spin.View(), m.busyMsg))
		return b.String()
	}

	b.WriteString(m.headerView())
	b.WriteString("\n")

	switch m.state {
	case statePromptOpen:
		b.WriteString("\n" + m.input.View() + "\n")
		if len(m.recent) > 0 {
			b.WriteString("\n" + m.styles.Faint.Render("recent files:") + "\n")
			for _, rec := range m.recent {
				b.WriteString(m.styles.Faint.Render(fmt.Sprintf("  %s  (%d opens)", rec.Path, rec.OpenCount)) + "\n")
			}
		}
	case statePromptLabel, statePromptNote, statePromptGoto:
		b.WriteString("\n" + m.input.View() + "\n")
	default:
		b.WriteString(m.browseView())
	}

	b.WriteString("\n" + m.statusView())
	b.WriteString("\n" + m.help.View(m.keymap))
	return b.String()
}

func (m *Model) headerView() string {
	title := m.styles.Title.Render("watchtrace")
	file := m.styles.Faint.Render("no file loaded")
	if m.filePath != "" {
		file = m.filePath
	}
	mode := m.styles.Mode.Render("[" + string(m.session.Mode()) + "]")
	dirty := ""
	if m.session.Dirty() {
		dirty = " " + m.styles.Dirty.Render("*modified*")
	}
	return fmt.Sprintf("%s  %s  %s%s", title, file, mode, dirty)
}

func (m *Model) browseView() string {
	if !m.session.HasData() {
		return "\n" + m.styles.Faint.Render("Press o to open a data file.") + "\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nfirst:   %s\ncurrent: %s\nlast:    %s\n",
		m.styles.Stamp.Render(m.session.FirstStamp()),
		m.styles.Stamp.Render(m.session.CurrentStamp()),
		m.styles.Stamp.Render(m.session.LastStamp())))
	b.WriteString(fmt.Sprintf("position: %.1f%%\n", m.session.Fraction()*100))
	store := m.session.Store()
	if v := store.Value(store.Cursor().End()-1, dataset.FieldBattery); v != nil {
		b.WriteString(fmt.Sprintf("battery: %v\n", v))
	}

	if m.session.Mode() == review.ModeGPS {
		b.WriteString(m.gpsView())
		return b.String()
	}

	b.WriteString(m.summaryView("Labels", m.session.Store().LabelSummary(m.cfg.LabelMaxLines, m.cfg.SearchHorizon())))
	b.WriteString(m.summaryView("Notes", m.session.Store().NoteSummary(m.cfg.NoteMaxLines, m.cfg.SearchHorizon())))
	return b.String()
}

func (m *Model) summaryView(title string, entries []dataset.SummaryEntry) string {
	var b strings.Builder
	b.WriteString("\n" + m.styles.Label.Render(title+":") + "\n")
	if len(entries) == 0 {
		b.WriteString(m.styles.Faint.Render("  (none)") + "\n")
		return b.String()
	}
	for _, e := range entries {
		value := "-"
		if e.HasValue {
			value = e.Value
		}
		line := fmt.Sprintf("  %s  %s", e.Stamp.Format(mobiledata.StampFormat), value)
		if e.Collapsed {
			line += " ..."
			b.WriteString(m.styles.Collapsed.Render(line) + "\n")
			continue
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) gpsView() string {
	idx := m.session.Index()
	c := idx.Cursor()
	if !c.Active() {
		return "\n" + m.styles.Faint.Render("No GPS fixes in this file.") + "\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nGPS runs %d-%d of %d:\n", c.Start(), c.End()-1, idx.Size()))
	for i := c.Start(); i < c.End() && i < idx.Size(); i++ {
		run := idx.Run(i)
		flag := "valid"
		style := m.styles.Stamp
		if !run.IsValid {
			flag = "invalid"
			style = m.styles.Dirty
		}
		b.WriteString(fmt.Sprintf("  %s  %9.5f,%10.5f  x%-4d %s\n",
			run.StartStamp.Format(mobiledata.StampFormat),
			run.Latitude, run.Longitude, run.Count, style.Render(flag)))
	}
	return b.String()
}

func (m *Model) statusView() string {
	if m.lastErr != "" {
		return m.styles.Error.Render("error: " + m.lastErr)
	}
	if m.lastMsg != "" {
		return m.styles.Status.Render(m.lastMsg)
	}
	return ""
}
