/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package theme defines the preview color themes: the two built-in ones and
// user themes loaded from JSON files, validated against an embedded schema.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Colors are the CSS colors substituted into the preview stylesheet.
type Colors struct {
	Background     string `json:"background"`
	Text           string `json:"text"`
	Link           string `json:"link"`
	CodeBackground string `json:"code_background"`
	PreBackground  string `json:"pre_background"`
	Border         string `json:"border"`
}

// Theme is a named preview color scheme.
type Theme struct {
	Name   string `json:"name"`
	Dark   bool   `json:"dark"`
	Colors Colors `json:"colors"`
}

// Light is the default light theme.
var Light = Theme{
	Name: "light",
	Dark: false,
	Colors: Colors{
		Background:     "#ffffff",
		Text:           "#1e1e1e",
		Link:           "#0066cc",
		CodeBackground: "#f5f5f5",
		PreBackground:  "#f5f5f5",
		Border:         "#e1e4e8",
	},
}

// Dark is the default dark theme.
var Dark = Theme{
	Name: "dark",
	Dark: true,
	Colors: Colors{
		Background:     "#1e1e1e",
		Text:           "#d4d4d4",
		Link:           "#4fc3f7",
		CodeBackground: "#2d2d2d",
		PreBackground:  "#2d2d2d",
		Border:         "#333333",
	},
}

// Builtin returns the built-in theme with the given name, defaulting to
// Light for unknown names.
func Builtin(name string) Theme {
	if strings.EqualFold(name, Dark.Name) {
		return Dark
	}
	return Light
}

// MermaidTheme returns the mermaid.js theme name matching the scheme.
func (t Theme) MermaidTheme() string {
	if t.Dark {
		return "dark"
	}
	return "default"
}

// schema constrains user theme files: a name, a dark flag, and six
// hex colors. Additional properties are rejected to catch typos.
const schema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "colors"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"dark": {"type": "boolean"},
		"colors": {
			"type": "object",
			"required": ["background", "text", "link", "code_background", "pre_background", "border"],
			"additionalProperties": false,
			"properties": {
				"background":      {"$ref": "#/definitions/color"},
				"text":            {"$ref": "#/definitions/color"},
				"link":            {"$ref": "#/definitions/color"},
				"code_background": {"$ref": "#/definitions/color"},
				"pre_background":  {"$ref": "#/definitions/color"},
				"border":          {"$ref": "#/definitions/color"}
			}
		}
	},
	"definitions": {
		"color": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"}
	}
}`

// Parse validates and decodes a user theme from JSON.
func Parse(data []byte) (Theme, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Theme{}, fmt.Errorf("validate theme: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Theme{}, fmt.Errorf("invalid theme: %s", strings.Join(msgs, "; "))
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return Theme{}, fmt.Errorf("decode theme: %w", err)
	}
	return t, nil
}

// Load reads and parses a theme file.
func Load(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("load theme: %w", err)
	}
	return Parse(data)
}
