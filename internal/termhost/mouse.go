// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/mouse.go
// Summary: Turns tcell button masks into controller pointer calls.

package termhost

import (
	"errors"

	"github.com/framegrace/texeldesk/desk"
	"github.com/gdamore/tcell/v2"
)

func wheelMask(mask tcell.ButtonMask) bool {
	return mask&(tcell.WheelUp|tcell.WheelDown|tcell.WheelLeft|tcell.WheelRight) != 0
}

// buttonEdge reports press and release transitions of b between two masks.
func buttonEdge(prev, cur, b tcell.ButtonMask) (pressed, released bool) {
	return cur&b != 0 && prev&b == 0, cur&b == 0 && prev&b != 0
}

func (h *Host) handleMouse(ev *tcell.EventMouse) {
	if ev == nil {
		return
	}
	x, y := ev.Position()
	buttons := ev.Buttons()
	if wheelMask(buttons) {
		// Wheel events do not report held buttons reliably.
		return
	}
	prev := h.lastButtons
	h.lastButtons = buttons
	h.lastCell = [2]int{x, y}
	p := h.proj.toCanvas(x, y)

	if pressed, _ := buttonEdge(prev, buttons, tcell.Button2); pressed {
		h.contextMenu(p)
		return
	}

	pressed, released := buttonEdge(prev, buttons, tcell.Button1)
	switch {
	case pressed:
		h.pointerDown(x, y, p)
	case released:
		h.pointerUp(p)
	case buttons&tcell.Button1 != 0:
		if err := h.ctrl.PointerMove(p); err != nil {
			h.log.Debugf("Termhost: pointer move: %v", err)
		}
	}
}

func (h *Host) pointerDown(cx, cy int, p desk.Point) {
	it, ok := h.desk.ItemAt(p)
	if !ok {
		_ = h.desk.Select("")
		h.setOpenFolder("")
		return
	}
	target := h.targetAt(it, cx, cy)
	if err := h.ctrl.PointerDown(it.ID, p, target); err != nil {
		if !errors.Is(err, desk.ErrSuspended) {
			h.log.Warnf("Termhost: pointer down on %s: %v", it.ID, err)
		}
		return
	}
	if err := h.desk.Select(it.ID); err != nil {
		h.log.Debugf("Termhost: select %s: %v", it.ID, err)
	}
}

func (h *Host) pointerUp(p desk.Point) {
	res, err := h.ctrl.PointerUp(p)
	if err != nil {
		h.log.Warnf("Termhost: pointer up: %v", err)
		return
	}
	switch res.Outcome {
	case desk.OutcomeClick:
		h.click(res)
	case desk.OutcomeAbsorbed:
		h.setNotice("Added to folder: " + res.Tab.Title)
	}
}

func (h *Host) click(res desk.Result) {
	switch res.Type {
	case desk.TypeFolder:
		if err := h.desk.OpenFolder(res.ItemID); err != nil {
			h.log.Warnf("Termhost: open folder %s: %v", res.ItemID, err)
		}
	case desk.TypeVideo:
		h.togglePlayback(res.ItemID)
	}
}

func (h *Host) togglePlayback(id string) {
	if h.media == nil || h.players == nil {
		return
	}
	h.media.SetFocus(id)
	if state, ok := h.players.Toggle(id); ok {
		h.media.OnStateChange(id, state)
	}
}

func (h *Host) contextMenu(p desk.Point) {
	if it, ok := h.desk.ItemAt(p); ok {
		h.desk.ContextMenu(it.ID, p)
	}
}

// targetAt maps a press on an item's cell box to a body, text or handle
// target. Border cells of resizable items are handles.
func (h *Host) targetAt(it desk.Item, cx, cy int) desk.Target {
	x0, y0, x1, y1 := h.proj.toCells(it.Rect())
	if it.Type.Resizable() {
		var dir string
		switch cy {
		case y0:
			dir = "n"
		case y1:
			dir = "s"
		}
		switch cx {
		case x0:
			dir += "w"
		case x1:
			dir += "e"
		}
		if d := desk.ResizeDir(dir); d.Valid() {
			return desk.TargetHandle(d)
		}
	}
	if it.Type == desk.TypeNote && it.IsEditing {
		return desk.TargetTextInput
	}
	return desk.TargetBody
}
