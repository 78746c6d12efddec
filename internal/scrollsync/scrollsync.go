/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scrollsync keeps the editor pane and the rendered preview pane at
// the same relative position without feedback loops or visible jumping.
//
// Positions are exchanged as percentages of the scrollable extent (0 = top,
// 1 = bottom) because the two panes have unrelated content heights. Events
// are debounced, filtered by a minimum-change threshold, and tagged with the
// view that initiated them; while one view owns a sync operation, events
// from the opposite view are dropped until a settle timer clears the owner.
// That tag is the sole loop breaker: it is set the instant an event is
// accepted and cleared only after the echo of our own positioning command
// has had time to arrive and be ignored.
package scrollsync

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "mdpad/internal/log"
)

// Source identifies which view currently owns a sync operation.
type Source int

const (
	SourceNone Source = iota
	SourceEditor
	SourcePreview
	SourceProgrammatic
)

func (s Source) String() string {
	switch s {
	case SourceEditor:
		return "editor"
	case SourcePreview:
		return "preview"
	case SourceProgrammatic:
		return "programmatic"
	default:
		return "none"
	}
}

// State is the last observed scroll state of one view.
type State struct {
	Percentage float64
	Source     Source
	Timestamp  time.Time
}

// Recent reports whether the state was updated within the given window.
func (s State) Recent(now time.Time, within time.Duration) bool {
	return now.Sub(s.Timestamp) < within
}

// Config holds the synchronization tunables. All timing values are
// empirically chosen defaults exposed as configuration; zero values are
// replaced by the documented defaults.
type Config struct {
	// Enabled controls whether cross-view commands are issued at all.
	// Position observation continues while disabled so state stays fresh.
	Enabled bool
	// Debounce is the quiet period before a scroll event is propagated to
	// the opposite view. Default 50ms.
	Debounce time.Duration
	// Threshold is the minimum percentage change worth propagating; smaller
	// deltas are jitter from sub-pixel rounding. Default 0.003.
	Threshold float64
	// Settle is how long the programmatic tag stays set after an explicit
	// positioning call, absorbing the echoed notification. Default 150ms.
	Settle time.Duration
	// CommandSettle is the echo-absorb window after a cross-view sync
	// command. Default 100ms.
	CommandSettle time.Duration
	// PollInterval is the preview read-back polling cadence. Default 100ms.
	PollInterval time.Duration
	// ReadTimeout bounds the asynchronous preview position read; on expiry
	// the callback receives the last known value. Default 250ms.
	ReadTimeout time.Duration
	// RestoreDelay defers the preview restore until its content has a
	// meaningful scroll extent. Default 200ms.
	RestoreDelay time.Duration
	// RestoreSettle is the delay before sync re-enables after a restore.
	// Default 300ms.
	RestoreSettle time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = 50 * time.Millisecond
	}
	if c.Threshold <= 0 {
		c.Threshold = 0.003
	}
	if c.Settle <= 0 {
		c.Settle = 150 * time.Millisecond
	}
	if c.CommandSettle <= 0 {
		c.CommandSettle = 100 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 250 * time.Millisecond
	}
	if c.RestoreDelay <= 0 {
		c.RestoreDelay = 200 * time.Millisecond
	}
	if c.RestoreSettle <= 0 {
		c.RestoreSettle = 300 * time.Millisecond
	}
	return c
}

// Coordinator synchronizes two independently scrollable views. One instance
// is constructed per editor window and owns its timers exclusively; there is
// no process-wide state.
type Coordinator struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	enabled bool
	closed  bool

	editor  EditorChannel
	preview PreviewChannel

	editorState  State
	previewState State
	active       Source

	// pending debounce tasks, one per direction; rescheduling
	// cancels-and-replaces, never stacks
	toPreview *time.Timer
	toEditor  *time.Timer
	settle    *time.Timer

	restoreCmd *time.Timer
	restoreEnd *time.Timer

	pollStop chan struct{}
}

// New constructs a coordinator with defaults applied to cfg.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		cfg:     cfg.withDefaults(),
		log:     applog.WithComponent("scrollsync"),
		enabled: cfg.Enabled,
	}
}

// AttachEditor registers the editor pane's position channel. It fails when
// the position source cannot be queried at all; a zero scrollable extent is
// not an error (short documents scroll nowhere and read as 0.0).
func (c *Coordinator) AttachEditor(ch EditorChannel) error {
	if ch == nil {
		return errors.New("editor channel is nil")
	}
	if _, _, _, err := ch.Extent(); err != nil {
		return fmt.Errorf("editor position source unavailable: %w", err)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("coordinator is closed")
	}
	c.editor = ch
	c.mu.Unlock()

	ch.Notify(func() {
		value, upper, pageSize, err := ch.Extent()
		if err != nil {
			return
		}
		c.EditorScrolled(percentage(value, upper, pageSize))
	})
	c.log.Debug("editor channel attached")
	return nil
}

// AttachPreview registers the preview pane's position channel and starts the
// read-back poll loop. The preview is not assumed to push notifications; a
// fixed-interval poll of its side channel is the only required signal.
func (c *Coordinator) AttachPreview(ch PreviewChannel) error {
	if ch == nil {
		return errors.New("preview channel is nil")
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("coordinator is closed")
	}
	if c.preview != nil {
		c.mu.Unlock()
		return errors.New("preview already attached")
	}
	c.preview = ch
	stop := make(chan struct{})
	c.pollStop = stop
	c.mu.Unlock()

	go c.pollLoop(ch, stop)
	c.log.Debug("preview channel attached", slog.Duration("poll", c.cfg.PollInterval))
	return nil
}

// pollLoop runs off the UI thread; all state mutation happens through the
// mutex-guarded entry points.
func (c *Coordinator) pollLoop(ch PreviewChannel, stop <-chan struct{}) {
	t := time.NewTicker(c.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if pct, ok := ch.ReadBack(); ok {
				c.PreviewScrolled(pct)
			}
		}
	}
}

// SetEnabled toggles synchronization. Disabling cancels pending debounce
// tasks; a command already dispatched to a view cannot be recalled and is
// left to self-correct on the next event.
func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		stopTimer(&c.toPreview)
		stopTimer(&c.toEditor)
		c.active = SourceNone
	}
	c.log.Debug("scroll sync toggled", slog.Bool("enabled", enabled))
}

// Enabled reports whether synchronization is active.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// EditorScrolled is the entry point for observed editor scroll events.
// It must never panic: it is invoked from a UI event path.
func (c *Coordinator) EditorScrolled(pct float64) {
	c.scrolled(SourceEditor, pct)
}

// PreviewScrolled is the entry point for observed preview scroll events.
func (c *Coordinator) PreviewScrolled(pct float64) {
	c.scrolled(SourcePreview, pct)
}

func (c *Coordinator) scrolled(from Source, pct float64) {
	pct = clamp01(pct)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// Drop echoes: while the opposite view (or a programmatic command) owns
	// the sync, notifications from this view are expected side effects.
	if c.active != SourceNone && c.active != from {
		c.mu.Unlock()
		return
	}
	st := c.stateFor(from)
	if abs(pct-st.Percentage) < c.cfg.Threshold {
		c.mu.Unlock()
		return
	}
	st.Percentage = pct
	st.Source = from
	st.Timestamp = time.Now()

	if !c.enabled {
		// Observation continues while disabled so re-enabling does not jump.
		c.mu.Unlock()
		return
	}
	c.active = from
	switch from {
	case SourceEditor:
		stopTimer(&c.toPreview)
		c.toPreview = time.AfterFunc(c.cfg.Debounce, func() { c.syncToPreview(pct) })
	case SourcePreview:
		stopTimer(&c.toEditor)
		c.toEditor = time.AfterFunc(c.cfg.Debounce, func() { c.syncToEditor(pct) })
	}
	c.mu.Unlock()
}

func (c *Coordinator) stateFor(s Source) *State {
	if s == SourcePreview {
		return &c.previewState
	}
	return &c.editorState
}

// syncToPreview fires after the editor-side debounce and commands the
// preview to the editor's percentage.
func (c *Coordinator) syncToPreview(pct float64) {
	c.mu.Lock()
	c.toPreview = nil
	if c.closed || !c.enabled || c.preview == nil {
		c.active = SourceNone
		c.mu.Unlock()
		return
	}
	ch := c.preview
	c.mu.Unlock()

	if err := ch.Command(pct); err != nil {
		// Transient command failures are self-healing: the next natural
		// scroll event re-aligns both views.
		c.log.Warn("preview sync command failed", slog.Any("err", err))
	}
	c.scheduleSettle(c.cfg.CommandSettle)
}

// syncToEditor fires after the preview-side debounce and positions the
// editor at the preview's percentage.
func (c *Coordinator) syncToEditor(pct float64) {
	c.mu.Lock()
	c.toEditor = nil
	if c.closed || !c.enabled || c.editor == nil {
		c.active = SourceNone
		c.mu.Unlock()
		return
	}
	ch := c.editor
	c.mu.Unlock()

	c.positionEditor(ch, pct)
	c.scheduleSettle(c.cfg.CommandSettle)
}

func (c *Coordinator) positionEditor(ch EditorChannel, pct float64) {
	_, upper, pageSize, err := ch.Extent()
	if err != nil {
		c.log.Warn("editor extent query failed", slog.Any("err", err))
		return
	}
	maxScroll := upper - pageSize
	if maxScroll <= 0 {
		return
	}
	if err := ch.SetOffset(maxScroll * pct); err != nil {
		c.log.Warn("editor positioning failed", slog.Any("err", err))
	}
}

// scheduleSettle arms (or re-arms) the timer that releases the active
// source after echoed notifications have been absorbed.
func (c *Coordinator) scheduleSettle(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	stopTimer(&c.settle)
	c.settle = time.AfterFunc(d, func() {
		c.mu.Lock()
		c.active = SourceNone
		c.settle = nil
		c.mu.Unlock()
	})
}

// CommandEditorTo positions the editor programmatically (session restore,
// jump-to-heading). The programmatic tag distinguishes the resulting echo
// from user-driven scrolling.
func (c *Coordinator) CommandEditorTo(pct float64) {
	pct = clamp01(pct)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ch := c.editor
	c.active = SourceProgrammatic
	c.editorState = State{Percentage: pct, Source: SourceProgrammatic, Timestamp: time.Now()}
	c.mu.Unlock()

	if ch != nil {
		c.positionEditor(ch, pct)
	}
	c.scheduleSettle(c.cfg.Settle)
}

// CommandPreviewTo positions the preview programmatically.
func (c *Coordinator) CommandPreviewTo(pct float64) {
	pct = clamp01(pct)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ch := c.preview
	c.active = SourceProgrammatic
	c.previewState = State{Percentage: pct, Source: SourceProgrammatic, Timestamp: time.Now()}
	c.mu.Unlock()

	if ch != nil {
		if err := ch.Command(pct); err != nil {
			c.log.Warn("preview positioning failed", slog.Any("err", err))
		}
	}
	c.scheduleSettle(c.cfg.Settle)
}

// EditorPercentage returns the editor's current position synchronously.
// A zero scrollable extent reads as 0.0.
func (c *Coordinator) EditorPercentage() float64 {
	c.mu.Lock()
	ch := c.editor
	last := c.editorState.Percentage
	c.mu.Unlock()
	if ch == nil {
		return last
	}
	value, upper, pageSize, err := ch.Extent()
	if err != nil {
		return last
	}
	return percentage(value, upper, pageSize)
}

// PreviewPercentage reads the preview position asynchronously. The callback
// is always invoked within ReadTimeout, falling back to the last known value
// when the read-back channel yields nothing; it never hangs the caller.
func (c *Coordinator) PreviewPercentage(cb func(float64)) {
	if cb == nil {
		return
	}
	c.mu.Lock()
	ch := c.preview
	last := c.previewState.Percentage
	c.mu.Unlock()
	if ch == nil {
		cb(last)
		return
	}
	go func() {
		deadline := time.Now().Add(c.cfg.ReadTimeout)
		step := c.cfg.ReadTimeout / 10
		if step <= 0 {
			step = 10 * time.Millisecond
		}
		for {
			if pct, ok := ch.ReadBack(); ok {
				cb(clamp01(pct))
				return
			}
			if time.Now().After(deadline) {
				cb(last)
				return
			}
			time.Sleep(step)
		}
	}()
}

// SavePositions captures both current percentages for persistence. The
// preview read is asynchronous, so the result arrives via callback.
func (c *Coordinator) SavePositions(cb func(editorPct, previewPct float64)) {
	if cb == nil {
		return
	}
	editorPct := c.EditorPercentage()
	c.PreviewPercentage(func(previewPct float64) {
		cb(editorPct, previewPct)
	})
}

// RestorePositions repositions both views from a saved checkpoint without
// triggering sync. The editor is positioned immediately; the preview is
// deferred by RestoreDelay because its content typically needs to load
// before a meaningful scroll extent exists. Sync re-enables only after both
// settle windows have elapsed.
func (c *Coordinator) RestorePositions(editorPct, previewPct float64) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	wasEnabled := c.enabled
	c.enabled = false
	stopTimer(&c.restoreCmd)
	stopTimer(&c.restoreEnd)
	c.mu.Unlock()

	c.log.Info("restoring scroll positions",
		slog.Float64("editor", editorPct), slog.Float64("preview", previewPct))

	c.CommandEditorTo(editorPct)

	c.mu.Lock()
	c.restoreCmd = time.AfterFunc(c.cfg.RestoreDelay, func() {
		c.CommandPreviewTo(previewPct)
		c.mu.Lock()
		if !c.closed {
			c.restoreEnd = time.AfterFunc(c.cfg.RestoreSettle, func() {
				c.mu.Lock()
				if !c.closed {
					c.enabled = wasEnabled
				}
				c.restoreEnd = nil
				c.mu.Unlock()
			})
		}
		c.restoreCmd = nil
		c.mu.Unlock()
	})
	c.mu.Unlock()
}

// States returns copies of both view states for diagnostics.
func (c *Coordinator) States() (editor, preview State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editorState, c.previewState
}

// ActiveSource returns the view currently owning the sync operation.
func (c *Coordinator) ActiveSource() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close stops the poll loop and releases all timers. The coordinator is
// inert afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.enabled = false
	stopTimer(&c.toPreview)
	stopTimer(&c.toEditor)
	stopTimer(&c.settle)
	stopTimer(&c.restoreCmd)
	stopTimer(&c.restoreEnd)
	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// percentage converts an adjustment triple to a position fraction, clamped
// to 0 when the scrollable extent is empty.
func percentage(value, upper, pageSize float64) float64 {
	maxScroll := upper - pageSize
	if maxScroll <= 0 {
		return 0.0
	}
	return clamp01(value / maxScroll)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
