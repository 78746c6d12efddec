//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// scrollEditor adapts a Fyne scroll container to the coordinator's editor
// channel: synchronous extent reads, direct offset writes, and change
// notification via OnScrolled.
type scrollEditor struct {
	sc *container.Scroll
}

func (r *scrollEditor) Extent() (value, upper, pageSize float64, err error) {
	if r.sc == nil || r.sc.Content == nil {
		return 0, 0, 0, errors.New("scroll container not ready")
	}
	view := r.sc.Size()
	if view.Height <= 0 {
		return 0, 0, 0, errors.New("scroll container has no size yet")
	}
	content := r.sc.Content.MinSize()
	return float64(r.sc.Offset.Y), float64(content.Height), float64(view.Height), nil
}

func (r *scrollEditor) SetOffset(value float64) error {
	if r.sc == nil {
		return errors.New("scroll container not ready")
	}
	r.sc.Offset = fyne.NewPos(r.sc.Offset.X, float32(value))
	r.sc.Refresh()
	return nil
}

func (r *scrollEditor) Notify(fn func()) {
	r.sc.OnScrolled = func(fyne.Position) { fn() }
}

// scrollPreview adapts a Fyne scroll container to the coordinator's preview
// channel. The preview pane is rendered natively here, so the command path
// writes the offset directly and ReadBack derives the fraction from the
// current geometry.
type scrollPreview struct {
	sc *container.Scroll
}

func (r *scrollPreview) extent() (value, max float64, ok bool) {
	if r.sc == nil || r.sc.Content == nil {
		return 0, 0, false
	}
	view := r.sc.Size()
	if view.Height <= 0 {
		return 0, 0, false
	}
	max = float64(r.sc.Content.MinSize().Height) - float64(view.Height)
	return float64(r.sc.Offset.Y), max, true
}

func (r *scrollPreview) Command(pct float64) error {
	_, max, ok := r.extent()
	if !ok {
		return errors.New("preview pane not ready")
	}
	if max < 0 {
		max = 0
	}
	r.sc.Offset = fyne.NewPos(r.sc.Offset.X, float32(pct*max))
	r.sc.Refresh()
	return nil
}

func (r *scrollPreview) ReadBack() (float64, bool) {
	value, max, ok := r.extent()
	if !ok || max <= 0 {
		return 0, ok
	}
	pct := value / max
	if pct < 0 {
		pct = 0
	} else if pct > 1 {
		pct = 1
	}
	return pct, true
}
