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
	"strings"
	"testing"
)

type fakeEvaluator struct {
	scripts []string
	evalErr error
	title   string
}

func (f *fakeEvaluator) Evaluate(script string) error {
	if f.evalErr != nil {
		return f.evalErr
	}
	f.scripts = append(f.scripts, script)
	return nil
}

func (f *fakeEvaluator) Title() string { return f.title }

func TestNewScriptChannelInjectsMonitor(t *testing.T) {
	ev := &fakeEvaluator{}
	if _, err := NewScriptChannel(ev); err != nil {
		t.Fatalf("NewScriptChannel: %v", err)
	}
	if len(ev.scripts) != 1 || !strings.Contains(ev.scripts[0], "__mdpadScrollSync") {
		t.Fatalf("monitor script not injected: %v", ev.scripts)
	}

	ev = &fakeEvaluator{evalErr: errors.New("engine not ready")}
	if _, err := NewScriptChannel(ev); err == nil {
		t.Fatal("expected error when injection fails")
	}
	if _, err := NewScriptChannel(nil); err == nil {
		t.Fatal("expected error for nil evaluator")
	}
}

func TestScriptChannelCommand(t *testing.T) {
	ev := &fakeEvaluator{}
	ch, err := NewScriptChannel(ev)
	if err != nil {
		t.Fatalf("NewScriptChannel: %v", err)
	}
	if err := ch.Command(0.3); err != nil {
		t.Fatalf("Command: %v", err)
	}
	got := ev.scripts[len(ev.scripts)-1]
	if !strings.Contains(got, "0.300000") {
		t.Fatalf("command script missing formatted fraction: %q", got)
	}

	// Out-of-range inputs are clamped before formatting.
	if err := ch.Command(1.7); err != nil {
		t.Fatalf("Command: %v", err)
	}
	got = ev.scripts[len(ev.scripts)-1]
	if !strings.Contains(got, "1.000000") {
		t.Fatalf("command script not clamped: %q", got)
	}
}

func TestScriptChannelReadBack(t *testing.T) {
	ev := &fakeEvaluator{}
	ch, err := NewScriptChannel(ev)
	if err != nil {
		t.Fatalf("NewScriptChannel: %v", err)
	}

	cases := []struct {
		title string
		pct   float64
		ok    bool
	}{
		{"scroll:0.250000", 0.25, true},
		{"scroll:0", 0, true},
		{"scroll:1.000000", 1, true},
		{"scroll:2.500000", 1, true}, // clamped
		{"My Document", 0, false},
		{"", 0, false},
		{"scroll:", 0, false},
		{"scroll:abc", 0, false},
	}
	for _, tc := range cases {
		ev.title = tc.title
		pct, ok := ch.ReadBack()
		if ok != tc.ok || pct != tc.pct {
			t.Errorf("ReadBack(%q) = (%v, %v), want (%v, %v)", tc.title, pct, ok, tc.pct, tc.ok)
		}
	}
}
