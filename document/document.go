// Package document extracts the script payload from a markdown-like source
// document: a leading YAML front-matter block of scalar key/values, and
// fenced code blocks whose info string names the lifecycle hook their content
// belongs to. Prose, headings, and unlabeled fences are display content for
// the host and are ignored here.
package document

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is the extracted script payload of one source document.
type Document struct {
	// Front holds the front-matter key/values in their textual form; scalar
	// typing is the runtime's concern (script.ParseScalar).
	Front map[string]string
	// Hooks maps a lifecycle label to the concatenated content of every
	// fence carrying that label, in document order.
	Hooks map[string]string
	// Order lists hook labels by first appearance.
	Order []string
}

// Parse extracts front matter and hook fences from raw document text.
func Parse(src string) (*Document, error) {
	front, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Front: front,
		Hooks: map[string]string{},
	}
	if err := doc.collectFences(body); err != nil {
		return nil, err
	}
	return doc, nil
}

// splitFrontMatter peels a leading "---\n...\n---" block off the document and
// decodes it as a flat YAML mapping of scalars. Documents without front
// matter are fine; an opening fence without a closing one is not.
func splitFrontMatter(src string) (map[string]string, string, error) {
	front := map[string]string{}
	if !strings.HasPrefix(src, "---\n") && src != "---" && !strings.HasPrefix(src, "---\r\n") {
		return front, src, nil
	}
	rest := src[strings.IndexByte(src, '\n')+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, "", fmt.Errorf("front matter: opening --- has no closing ---")
	}
	block := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, "", fmt.Errorf("front matter: %w", err)
	}
	for k, v := range raw {
		switch v.(type) {
		case string, bool, int, int64, uint64, float64, nil:
			front[k] = scalarText(v)
		default:
			return nil, "", fmt.Errorf("front matter: key %q is not a scalar (%T)", k, v)
		}
	}
	return front, body, nil
}

func scalarText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// collectFences walks the markdown AST and appends every labeled fence's
// content to its hook entry.
func (d *Document) collectFences(body string) error {
	source := []byte(body)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	return ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		label := fenceLabel(fence, source)
		if label == "" {
			return ast.WalkContinue, nil
		}
		content := fenceContent(fence, source)
		if prev, seen := d.Hooks[label]; seen {
			// Same label again: concatenate in document order, keeping
			// statement boundaries intact.
			if prev != "" && !strings.HasSuffix(prev, "\n") {
				prev += "\n"
			}
			d.Hooks[label] = prev + content
		} else {
			d.Hooks[label] = content
			d.Order = append(d.Order, label)
		}
		return ast.WalkContinue, nil
	})
}

// fenceLabel returns the first word of the fence info string.
func fenceLabel(fence *ast.FencedCodeBlock, source []byte) string {
	lang := string(fence.Language(source))
	if i := strings.IndexAny(lang, " \t"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

func fenceContent(fence *ast.FencedCodeBlock, source []byte) string {
	var b strings.Builder
	for i := 0; i < fence.Lines().Len(); i++ {
		line := fence.Lines().At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}
