/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scrollsync

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EditorChannel is the position channel for a natively observable view: it
// supports a synchronous extent query, push notification of value changes,
// and direct offset writes. Percentage = value / (upper − pageSize), clamped
// to 0 when the denominator is not positive.
type EditorChannel interface {
	// Extent returns the current offset, the content height, and the
	// viewport height. It fails when the view has no scroll geometry yet.
	Extent() (value, upper, pageSize float64, err error)
	// SetOffset scrolls the view to an absolute offset.
	SetOffset(value float64) error
	// Notify registers a callback fired whenever the offset changes.
	Notify(fn func())
}

// PreviewChannel is the position channel for a view without a synchronous
// read path, such as an embedded browser engine. Commands carry no result;
// position flows back through a best-effort side channel that the
// coordinator polls.
type PreviewChannel interface {
	// Command scrolls the view to the given fraction of its extent.
	Command(pct float64) error
	// ReadBack returns the most recently published position, if any.
	ReadBack() (pct float64, ok bool)
}

// Evaluator abstracts an embedded content host that can execute a script
// snippet with no synchronous result and exposes a host-readable title
// property the content can write into.
type Evaluator interface {
	Evaluate(script string) error
	Title() string
}

// monitorScript publishes the content's scroll fraction into the title
// property whenever it changes noticeably, with a low-frequency poll as
// backup for scroll paths that fire no events.
const monitorScript = `(function() {
	if (window.__mdpadScrollSync) return;
	window.__mdpadScrollSync = true;
	var last = -1;
	function pct() {
		var top = window.pageYOffset || document.documentElement.scrollTop;
		var max = document.documentElement.scrollHeight - window.innerHeight;
		return max > 0 ? top / max : 0;
	}
	function publish() {
		var p = pct();
		if (Math.abs(p - last) > 0.003) {
			last = p;
			document.title = 'scroll:' + p.toFixed(6);
		}
	}
	var pending;
	window.addEventListener('scroll', function() {
		clearTimeout(pending);
		pending = setTimeout(publish, 16);
	}, { passive: true });
	setInterval(publish, 100);
})();`

// commandScript scrolls the content to a fraction of its extent.
const commandScript = `(function() {
	var max = Math.max(document.documentElement.scrollHeight - window.innerHeight, 0);
	window.scrollTo({ top: max * %.6f, behavior: 'auto' });
})();`

const titlePrefix = "scroll:"

// ScriptChannel implements PreviewChannel over an Evaluator using the title
// side channel: an injected monitor publishes "scroll:<fraction>" and
// positioning commands are issued as script snippets. It is the fallback for
// hosts without a genuine asynchronous evaluate-and-return call.
type ScriptChannel struct {
	ev Evaluator
}

// NewScriptChannel injects the scroll monitor into the host and returns the
// channel. Injection failure means the host cannot be observed at all.
func NewScriptChannel(ev Evaluator) (*ScriptChannel, error) {
	if ev == nil {
		return nil, errors.New("evaluator is nil")
	}
	if err := ev.Evaluate(monitorScript); err != nil {
		return nil, fmt.Errorf("inject scroll monitor: %w", err)
	}
	return &ScriptChannel{ev: ev}, nil
}

// Command scrolls the embedded content to pct.
func (s *ScriptChannel) Command(pct float64) error {
	return s.ev.Evaluate(fmt.Sprintf(commandScript, clamp01(pct)))
}

// ReadBack parses the side-channel title property. Titles without the
// scroll prefix (the document's own title, for instance) read as no data.
func (s *ScriptChannel) ReadBack() (float64, bool) {
	title := s.ev.Title()
	if !strings.HasPrefix(title, titlePrefix) {
		return 0, false
	}
	pct, err := strconv.ParseFloat(title[len(titlePrefix):], 64)
	if err != nil {
		return 0, false
	}
	return clamp01(pct), true
}
