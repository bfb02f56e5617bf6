// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/render.go
// Summary: Draws the desktop canvas onto a tcell screen.

package termhost

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/framegrace/texeldesk/internal/shutdown"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// projection maps canvas pixels onto terminal cells. The last screen row is
// kept for the status line.
type projection struct {
	cols, rows int
	view       desk.Size
}

func newProjection(screenW, screenH int, view desk.Size) projection {
	rows := screenH - 1
	if rows < 1 {
		rows = 1
	}
	if screenW < 1 {
		screenW = 1
	}
	return projection{cols: screenW, rows: rows, view: view}
}

func (p projection) cellSize() (float64, float64) {
	return p.view.W / float64(p.cols), p.view.H / float64(p.rows)
}

// toCanvas returns the canvas point at the centre of a cell.
func (p projection) toCanvas(cx, cy int) desk.Point {
	cw, ch := p.cellSize()
	return desk.Point{X: (float64(cx) + 0.5) * cw, Y: (float64(cy) + 0.5) * ch}
}

// toCells returns the inclusive cell box covering r.
func (p projection) toCells(r desk.Rect) (x0, y0, x1, y1 int) {
	cw, ch := p.cellSize()
	x0 = int(math.Floor(r.X / cw))
	y0 = int(math.Floor(r.Y / ch))
	x1 = int(math.Ceil(r.Right()/cw)) - 1
	y1 = int(math.Ceil(r.Bottom()/ch)) - 1
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return
}

// frame is everything one draw needs, captured up front.
type frame struct {
	proj       projection
	items      []desk.Item
	selected   string
	focused    string
	playing    map[string]bool
	preview    *desk.Rect
	openFolder string
	status     persist.Status
	notice     string
	progress   *shutdown.Progress
}

var (
	styleCanvas  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorSilver)
	styleStatus  = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	stylePreview = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleOverlay = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	styleError   = tcell.StyleDefault.Background(tcell.ColorMaroon).Foreground(tcell.ColorWhite)
)

var typeStyles = map[desk.ItemType]tcell.Style{
	desk.TypeFolder: tcell.StyleDefault.Background(tcell.ColorOlive).Foreground(tcell.ColorBlack),
	desk.TypeNote:   tcell.StyleDefault.Background(tcell.ColorLightYellow).Foreground(tcell.ColorBlack),
	desk.TypeImage:  tcell.StyleDefault.Background(tcell.ColorTeal).Foreground(tcell.ColorWhite),
	desk.TypeGIF:    tcell.StyleDefault.Background(tcell.ColorPurple).Foreground(tcell.ColorWhite),
	desk.TypeVideo:  tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite),
	desk.TypeApp:    tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorWhite),
}

var typeIcons = map[desk.ItemType]string{
	desk.TypeFolder: "[+]",
	desk.TypeNote:   "[n]",
	desk.TypeImage:  "[i]",
	desk.TypeGIF:    "[g]",
	desk.TypeVideo:  "[>]",
	desk.TypeApp:    "[a]",
}

func render(s tcell.Screen, f frame) {
	s.SetStyle(styleCanvas)
	s.Clear()

	// Lowest z first; ties keep collection order.
	items := append([]desk.Item(nil), f.items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Z < items[j].Z })
	for _, it := range items {
		drawItem(s, f, it)
	}
	if f.preview != nil {
		x0, y0, x1, y1 := f.proj.toCells(*f.preview)
		drawOutline(s, x0, y0, x1, y1, stylePreview, '┄', '┆')
	}
	if f.openFolder != "" {
		drawFolderPanel(s, f)
	}
	drawStatusLine(s, f)
	if f.progress != nil {
		drawOverlay(s, *f.progress)
	}
	s.Show()
}

func itemLabel(f frame, it desk.Item) string {
	var b strings.Builder
	b.WriteString(typeIcons[it.Type])
	b.WriteByte(' ')
	b.WriteString(firstLine(it.DisplayName()))
	if it.Type == desk.TypeVideo {
		if f.playing[it.ID] {
			b.WriteString(" ▶")
		}
		if f.focused == it.ID {
			b.WriteString(" ♪")
		}
		if it.IsYTPinned {
			b.WriteString(" *")
		}
	}
	if it.Type == desk.TypeFolder && len(it.Tabs) > 0 {
		fmt.Fprintf(&b, " (%d)", len(it.Tabs))
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func drawItem(s tcell.Screen, f frame, it desk.Item) {
	x0, y0, x1, y1 := f.proj.toCells(it.Rect())
	style, ok := typeStyles[it.Type]
	if !ok {
		style = styleCanvas
	}
	fillRect(s, x0, y0, x1, y1, style)
	border := style
	if it.ID == f.selected {
		border = style.Foreground(tcell.ColorYellow).Bold(true)
	}
	drawOutline(s, x0, y0, x1, y1, border, '─', '│')
	drawText(s, x0+1, y0, x1-x0-1, itemLabel(f, it), border)

	if it.Type == desk.TypeNote && it.Text != "" {
		lines := strings.Split(it.Text, "\n")
		for i, line := range lines {
			row := y0 + 1 + i
			if row >= y1 {
				break
			}
			drawText(s, x0+1, row, x1-x0-1, line, style)
		}
	}
	if it.Type == desk.TypeVideo && it.LastTimestamp > 0 && y1-y0 > 1 {
		ts := fmt.Sprintf("%d:%02d", it.LastTimestamp/60, it.LastTimestamp%60)
		drawText(s, x0+1, y1-1, x1-x0-1, ts, style)
	}
}

func fillRect(s tcell.Screen, x0, y0, x1, y1 int, style tcell.Style) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}
}

func drawOutline(s tcell.Screen, x0, y0, x1, y1 int, style tcell.Style, horiz, vert rune) {
	for x := x0; x <= x1; x++ {
		s.SetContent(x, y0, horiz, nil, style)
		s.SetContent(x, y1, horiz, nil, style)
	}
	for y := y0; y <= y1; y++ {
		s.SetContent(x0, y, vert, nil, style)
		s.SetContent(x1, y, vert, nil, style)
	}
}

// drawText writes text clipped to width display cells.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	if runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "…")
	}
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
}

func drawFolderPanel(s tcell.Screen, f frame) {
	var folder *desk.Item
	for i := range f.items {
		if f.items[i].ID == f.openFolder {
			folder = &f.items[i]
			break
		}
	}
	if folder == nil {
		return
	}
	sw, sh := s.Size()
	width := 40
	if width > sw {
		width = sw
	}
	x0 := sw - width
	height := len(folder.Tabs) + 3
	if height > sh-1 {
		height = sh - 1
	}
	fillRect(s, x0, 0, sw-1, height-1, styleOverlay)
	drawOutline(s, x0, 0, sw-1, height-1, styleOverlay, '═', '║')
	drawText(s, x0+1, 0, width-2, " "+folder.DisplayName()+" ", styleOverlay.Bold(true))
	if len(folder.Tabs) == 0 {
		drawText(s, x0+1, 1, width-2, "(empty)", styleOverlay)
		return
	}
	for i, tab := range folder.Tabs {
		row := 1 + i
		if row >= height-1 {
			break
		}
		drawText(s, x0+1, row, width-2, tab.Title, styleOverlay)
	}
}

func statusText(st persist.Status) (string, tcell.Style) {
	switch st.State {
	case persist.StatusSaving:
		return "Saving…", styleStatus
	case persist.StatusMigrating:
		return "Migrating assets… " + st.Message, styleStatus
	case persist.StatusSaved:
		return "Saved", styleStatus
	case persist.StatusError:
		return "Save failed: " + st.Message, styleError
	}
	return "", styleStatus
}

func drawStatusLine(s tcell.Screen, f frame) {
	sw, sh := s.Size()
	row := sh - 1
	for x := 0; x < sw; x++ {
		s.SetContent(x, row, ' ', nil, styleStatus)
	}
	left := fmt.Sprintf(" texeldesk  %d items", len(f.items))
	if f.selected != "" {
		left += "  sel:" + f.selected
	}
	if f.notice != "" {
		left += "  " + f.notice
	}
	drawText(s, 0, row, sw, left, styleStatus)

	text, style := statusText(f.status)
	if text == "" {
		return
	}
	w := runewidth.StringWidth(text)
	x := sw - w - 1
	if x < 0 {
		x = 0
	}
	drawText(s, x, row, sw-x, text, style)
}

func drawOverlay(s tcell.Screen, p shutdown.Progress) {
	sw, sh := s.Size()
	text := strings.TrimSpace(p.Icon + " " + p.Text)
	width := runewidth.StringWidth(text) + 4
	if width > sw {
		width = sw
	}
	x0 := (sw - width) / 2
	y0 := sh/2 - 2
	if y0 < 0 {
		y0 = 0
	}
	style := styleOverlay
	if p.Err != nil {
		style = styleError
	}
	fillRect(s, x0, y0, x0+width-1, y0+4, style)
	drawOutline(s, x0, y0, x0+width-1, y0+4, style, '═', '║')
	drawText(s, x0+2, y0+2, width-4, text, style)
}
