/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package i18n provides localized UI strings. Message catalogs are TOML
// files embedded in the binary; unknown locales fall back to English.
package i18n

import (
	"embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	bundleErr  error
)

func loadBundle() (*goi18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			bundleErr = fmt.Errorf("read locales: %w", err)
			return
		}
		for _, e := range entries {
			if _, err := b.LoadMessageFileFS(localeFS, "locales/"+e.Name()); err != nil {
				bundleErr = fmt.Errorf("load %s: %w", e.Name(), err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Translator resolves message IDs for one locale.
type Translator struct {
	loc *goi18n.Localizer
}

// NewTranslator builds a translator for the given BCP 47 locale tag.
// Unknown or empty locales resolve to English.
func NewTranslator(locale string) (*Translator, error) {
	b, err := loadBundle()
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = "en"
	}
	return &Translator{loc: goi18n.NewLocalizer(b, locale, "en")}, nil
}

// T resolves a message ID, substituting template data. Missing messages
// return the ID itself so the UI stays usable with partial catalogs.
func (t *Translator) T(id string, data map[string]any) string {
	msg, err := t.loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}
