// Package repair recovers structured city layouts from loose, possibly
// malformed JSON text.
//
// Layout text typically comes straight out of a language model, which likes
// to wrap JSON in markdown fences or parentheses, emit bare arrays or
// comma-joined object sequences, leave trailing commas, and stop generating
// before closing its brackets. Recovery is a fixed, ordered sequence of
// narrow text transforms followed by a parse. Each transform is a no-op on
// text that does not exhibit its failure mode, so the pipeline is idempotent
// and safe to run on already valid JSON.
//
// The pipeline is best-effort: it repairs the specific failure modes listed
// here and nothing else. Text that remains unparseable after all steps fails
// with a MalformedInputError carrying the parser's diagnostic.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/TOJI-ZINGY/citysense/internal/scene"
)

// ErrEmptyInput reports input that is empty once surrounding whitespace is
// removed.
var ErrEmptyInput = errors.New("empty layout text")

// parseHint is attached to every parse failure so the message is actionable
// for someone editing model output by hand.
const parseHint = "remove commentary, backticks, and trailing commas, and provide a single JSON object"

// MalformedInputError reports text that no repair step could turn into
// parseable JSON. Diagnostic carries the underlying parser message.
type MalformedInputError struct {
	Diagnostic string
	Hint       string
	err        error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed layout: %s (hint: %s)", e.Diagnostic, e.Hint)
}

func (e *MalformedInputError) Unwrap() error { return e.err }

// step is one transform of the repair pipeline. Steps run in a fixed order;
// each must leave text without its failure mode untouched.
type step struct {
	name  string
	apply func(string) string
}

var pipeline = []step{
	{"trim", strings.TrimSpace},
	{"code-fence", stripCodeFence},
	{"backticks", stripBackticks},
	{"parentheses", unwrapParens},
	{"wrap-layers", wrapBareLayers},
	{"trailing-commas", stripTrailingCommas},
	{"balance-brackets", balanceBrackets},
}

// Clean applies the repair steps in order and returns the repaired text. It
// does not parse; see Recover.
func Clean(text string) string {
	s := text
	for _, st := range pipeline {
		s = st.apply(s)
	}
	return s
}

// CleanTrace is Clean plus the names of the steps that changed the text, for
// diagnostic surfaces.
func CleanTrace(text string) (string, []string) {
	s := text
	var fired []string
	for _, st := range pipeline {
		next := st.apply(s)
		if next != s {
			fired = append(fired, st.name)
		}
		s = next
	}
	return s, fired
}

// Recover repairs and parses layout text. It returns ErrEmptyInput for
// blank input and a *MalformedInputError when the repaired text still does
// not parse. A parseable document with the wrong shape (say, a bare number)
// is not an error here; the renderer rejects it for the missing layer list.
func Recover(text string) (*scene.Description, error) {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil, ErrEmptyInput
	}
	var desc scene.Description
	if err := json.Unmarshal([]byte(cleaned), &desc); err != nil {
		return nil, &MalformedInputError{
			Diagnostic: err.Error(),
			Hint:       parseHint,
			err:        err,
		}
	}
	return &desc, nil
}

// stripCodeFence removes a markdown code fence wrapping the whole text.
// Handles ```json, ```, and variations with other language tags.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNewline := strings.Index(s, "\n")
	if firstNewline == -1 {
		return s
	}
	lastFence := strings.LastIndex(s, "```")
	if lastFence <= firstNewline {
		return s
	}
	return strings.TrimSpace(s[firstNewline+1 : lastFence])
}

// stripBackticks removes a single pair of backticks wrapping the whole text.
func stripBackticks(s string) string {
	if len(s) < 2 || !strings.HasPrefix(s, "`") || !strings.HasSuffix(s, "`") {
		return s
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}

// unwrapParens strips enclosing parenthesis pairs, one at a time, while the
// first and last characters are "(" and ")". Models occasionally wrap their
// whole reply this way.
func unwrapParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

var (
	typeKeyRe   = regexp.MustCompile(`"type"\s*:`)
	layersKeyRe = regexp.MustCompile(`"layers"\s*:`)
	widthKeyRe  = regexp.MustCompile(`"width"\s*:\s*-?\d`)
)

// wrapBareLayers supplies the missing document wrapper for two common model
// outputs: a bare comma-joined run of layer objects, and a bare array of
// layer objects. Both are recognized by their "type" keys and the absence
// of a "width" key, and get the default canvas.
func wrapBareLayers(s string) string {
	if s == "" {
		return s
	}
	hasWidth := widthKeyRe.MatchString(s)
	typeCount := len(typeKeyRe.FindAllStringIndex(s, -1))

	if !layersKeyRe.MatchString(s) && !strings.HasPrefix(s, "[") && !hasWidth && typeCount > 1 {
		return fmt.Sprintf(`{"width":%d,"height":%d,"layers":[%s]}`,
			scene.DefaultWidth, scene.DefaultHeight, s)
	}
	if strings.HasPrefix(s, "[") && typeCount >= 1 && !hasWidth {
		return fmt.Sprintf(`{"width":%d,"height":%d,"layers":%s}`,
			scene.DefaultWidth, scene.DefaultHeight, s)
	}
	return s
}

// stripTrailingCommas drops commas that sit directly before a closing "]"
// or "}" or at end of string. The scan tracks JSON string literals so a
// comma inside a quoted value is never touched; without that, clean input
// containing ",]" in a label would be corrupted.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j >= len(s) || s[j] == ']' || s[j] == '}' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// balanceBrackets appends the closing characters missing from truncated
// output: all missing "]" first, then all missing "}". Counting happens
// outside string literals only, for the same reason as stripTrailingCommas.
// A surplus of closers is left alone.
func balanceBrackets(s string) string {
	brackets, braces := 0, 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			brackets++
		case ']':
			brackets--
		case '{':
			braces++
		case '}':
			braces--
		}
	}
	if brackets < 0 {
		brackets = 0
	}
	if braces < 0 {
		braces = 0
	}
	if brackets == 0 && braces == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + brackets + braces)
	b.WriteString(s)
	for ; brackets > 0; brackets-- {
		b.WriteByte(']')
	}
	for ; braces > 0; braces-- {
		b.WriteByte('}')
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
