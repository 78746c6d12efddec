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

import "strings"

// selectionRange locates the selected text within text as a rune offset
// range. The entry widget only exposes the selected string and the cursor,
// which sits at one end of the selection, so the range is reconstructed by
// matching the selection against the text on either side of the cursor.
// With no selection both offsets equal the cursor.
func selectionRange(text, selected string, cursor int) (start, end int) {
	runes := []rune(text)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}
	if selected == "" {
		return cursor, cursor
	}
	n := len([]rune(selected))
	if cursor+n <= len(runes) && string(runes[cursor:cursor+n]) == selected {
		return cursor, cursor + n
	}
	if cursor-n >= 0 && string(runes[cursor-n:cursor]) == selected {
		return cursor - n, cursor
	}
	// Cursor does not line up (the widget may have refreshed); fall back to
	// the first occurrence.
	if i := strings.Index(text, selected); i >= 0 {
		start = len([]rune(text[:i]))
		return start, start + n
	}
	return cursor, cursor
}
