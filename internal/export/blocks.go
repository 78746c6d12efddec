/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes documents to HTML, PDF and PNG files. The PDF and
// PNG paths share a flattened block model of the markdown document; the HTML
// path reuses the preview renderer.
package export

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Kind classifies a flattened document block.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindCode
	KindQuote
	KindListItem
	KindRule
)

// Block is one printable unit of the document, with inline markup reduced to
// plain text. The page-oriented exporters consume these instead of the AST.
type Block struct {
	Kind    Kind
	Level   int  // heading level, 1..6
	Ordered bool // list items only
	Index   int  // 1-based position for ordered list items
	Indent  int  // list nesting depth
	Text    string
}

// blockParser uses the same markdown dialect as the preview so exports never
// disagree with it on structure.
var blockParser = goldmark.New(goldmark.WithExtensions(
	extension.Table,
	extension.Strikethrough,
	extension.Linkify,
	extension.TaskList,
	extension.Footnote,
))

// Blocks flattens markdown source into printable blocks. Constructs with no
// plain-text rendition (raw HTML, tables) are skipped.
func Blocks(source []byte) []Block {
	doc := blockParser.Parser().Parse(text.NewReader(source))
	return appendBlocks(nil, doc, source, 0, false)
}

func appendBlocks(out []Block, n ast.Node, src []byte, indent int, inQuote bool) []Block {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Heading:
			out = append(out, Block{Kind: KindHeading, Level: v.Level, Text: inlineText(v, src)})
		case *ast.Paragraph, *ast.TextBlock:
			k := KindParagraph
			if inQuote {
				k = KindQuote
			}
			out = append(out, Block{Kind: k, Indent: indent, Text: inlineText(c, src)})
		case *ast.FencedCodeBlock:
			out = append(out, Block{Kind: KindCode, Text: codeText(v, src)})
		case *ast.CodeBlock:
			out = append(out, Block{Kind: KindCode, Text: codeText(v, src)})
		case *ast.Blockquote:
			out = appendBlocks(out, c, src, indent, true)
		case *ast.List:
			out = appendListBlocks(out, v, src, indent, inQuote)
		case *ast.ThematicBreak:
			out = append(out, Block{Kind: KindRule})
		}
	}
	return out
}

func appendListBlocks(out []Block, list *ast.List, src []byte, indent int, inQuote bool) []Block {
	idx := list.Start
	if idx <= 0 {
		idx = 1
	}
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		emitted := false
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				out = append(out, Block{
					Kind:    KindListItem,
					Ordered: list.IsOrdered(),
					Index:   idx,
					Indent:  indent,
					Text:    inlineText(c, src),
				})
				emitted = true
			case *ast.List:
				out = appendListBlocks(out, v, src, indent+1, inQuote)
			case *ast.FencedCodeBlock:
				out = append(out, Block{Kind: KindCode, Text: codeText(v, src)})
			}
		}
		if emitted {
			idx++
		}
	}
	return out
}

// inlineText reduces a node's inline content to plain text. Emphasis, links
// and code spans keep their text; the markers are dropped.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func codeText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}
