package ini

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/scigolib/bnfg/internal/utils"
)

// Parse drives sink through the events produced by scanning text
// under opts (spec.md §4.5). It aborts and returns the first error
// encountered; nothing parsed before the error is rolled back, since
// the sink has already been mutated — callers that need atomicity
// should parse into a scratch sink and merge on success.
func Parse(text string, opts Options, sink Sink) error {
	p := &parser{opts: opts, sink: sink}
	return p.run(text)
}

type parser struct {
	opts Options
	sink Sink

	sectionPath []string
	inArray     bool
	arrayName   string
	arrayKind   ScalarKind
	arrayHasKind bool

	line int
}

// run iterates logical lines (after line-continuation joining) and
// dispatches each to a comment, section header, key/value, or blank
// handler, per the LineStart state in spec.md §4.6.
func (p *parser) run(text string) error {
	physical := strings.Split(text, "\n")
	for i := 0; i < len(physical); i++ {
		p.line = i + 1
		raw := physical[i]

		if p.opts.LineContinuation {
			for strings.HasSuffix(raw, "\\") && !strings.HasSuffix(raw, "\\\\") && i+1 < len(physical) {
				raw = raw[:len(raw)-1] + physical[i+1]
				i++
			}
		}

		if err := p.parseLine(raw); err != nil {
			return err
		}
	}

	if p.inArray {
		return syntaxErr(p.line, 1, "unterminated array at end of file")
	}
	for len(p.sectionPath) > 0 {
		name := p.sectionPath[len(p.sectionPath)-1]
		if err := p.sink.EndSection(name); err != nil {
			return err
		}
		p.sectionPath = p.sectionPath[:len(p.sectionPath)-1]
	}
	return nil
}

func (p *parser) parseLine(raw string) error {
	line, hadComment := p.stripLeadingComment(raw)
	trimmed := strings.TrimSpace(line)

	if p.inArray {
		return p.continueArray(trimmed)
	}

	if trimmed == "" {
		return nil
	}
	_ = hadComment

	if strings.HasPrefix(trimmed, "[") {
		return p.parseSectionHeader(trimmed)
	}
	return p.parseKeyValue(trimmed)
}

// stripLeadingComment removes a start-of-line comment. Leading
// whitespace before the comment marker is permitted.
func (p *parser) stripLeadingComment(raw string) (string, bool) {
	trimmed := strings.TrimLeft(raw, " \t")
	if p.opts.Comments == CommentsNone {
		return raw, false
	}
	isMarker := func(b byte) bool {
		switch p.opts.Comments {
		case CommentsSemicolon:
			return b == ';'
		case CommentsHash:
			return b == '#'
		case CommentsBoth:
			return b == ';' || b == '#'
		}
		return false
	}
	if trimmed != "" && isMarker(trimmed[0]) {
		return "", true
	}
	return raw, false
}

// stripInlineComment trims a trailing comment from a value tail, if
// inline comments are enabled. It does not track quotes itself: the
// caller passes either an unquoted value or the text following a
// fully parsed quoted string/array.
func (p *parser) stripInlineComment(s string) string {
	if !p.opts.InlineComments || p.opts.Comments == CommentsNone {
		return s
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if (p.opts.Comments == CommentsSemicolon || p.opts.Comments == CommentsBoth) && b == ';' {
			return s[:i]
		}
		if (p.opts.Comments == CommentsHash || p.opts.Comments == CommentsBoth) && b == '#' {
			return s[:i]
		}
	}
	return s
}

// parseSectionHeader handles "[" name ("." name){0..depth-1} "]".
func (p *parser) parseSectionHeader(line string) error {
	close := strings.IndexByte(line, ']')
	if close < 0 {
		return syntaxErr(p.line, 1, "unmatched '[' in section header")
	}
	body := line[1:close]
	if body == "" {
		return syntaxErr(p.line, 1, "empty section name")
	}

	var names []string
	if p.opts.NestedSectionDepth > 0 {
		names = strings.Split(body, ".")
	} else {
		if strings.Contains(body, ".") {
			return syntaxErr(p.line, strings.IndexByte(line, '.')+1, "nested sections are disabled")
		}
		names = []string{body}
	}
	if uint32(len(names)) > p.opts.NestedSectionDepth && p.opts.NestedSectionDepth > 0 {
		return nestedDepthErr(p.line, 1, body)
	}
	for _, n := range names {
		if n == "" {
			return syntaxErr(p.line, 1, "empty section name segment")
		}
	}

	common := 0
	for common < len(p.sectionPath) && common < len(names) && p.sectionPath[common] == names[common] {
		common++
	}
	for len(p.sectionPath) > common {
		name := p.sectionPath[len(p.sectionPath)-1]
		if err := p.sink.EndSection(name); err != nil {
			return err
		}
		p.sectionPath = p.sectionPath[:len(p.sectionPath)-1]
	}
	for _, n := range names[common:] {
		present, ok := p.sink.ContainsKey(n)
		overwrite := false
		switch {
		case !ok:
			// fresh section, no collision.
		case !present:
			return sectionKeyCollisionErr(p.line, 1, n)
		default:
			switch p.opts.DuplicateSections {
			case DuplicateForbid:
				return duplicateSectionErr(p.line, 1, n)
			case DuplicateMerge, DuplicateFirst:
				// Re-enter the existing section without signaling
				// overwrite. DuplicateFirst has no bulk "discard this
				// subtree" primitive in the sink protocol, so a
				// re-declared section merges like DuplicateMerge; its
				// individual keys still honor DuplicateKeys.
			case DuplicateLast:
				overwrite = true
			}
		}
		if err := p.sink.StartSection(n, overwrite); err != nil {
			return err
		}
		p.sectionPath = append(p.sectionPath, n)
	}
	return nil
}

// parseKeyValue handles "key <sep> value" lines, per the
// ExpectSep → ExpectValue state machine in spec.md §4.6.
func (p *parser) parseKeyValue(line string) error {
	if len(p.sectionPath) == 0 && !p.opts.ImplicitRootSection {
		return syntaxErr(p.line, 1, "key/value outside any section")
	}

	sepIdx := strings.IndexByte(line, p.opts.KeyValueSeparator)
	if sepIdx < 0 {
		return syntaxErr(p.line, 1, "expected key/value separator")
	}
	key := strings.TrimSpace(line[:sepIdx])
	if key == "" {
		return syntaxErr(p.line, 1, "empty key")
	}
	if err := validateBareKey(key); err != nil {
		return syntaxErr(p.line, 1, err.Error())
	}

	rest := strings.TrimSpace(line[sepIdx+1:])

	if p.opts.Arrays && strings.HasPrefix(rest, "[") {
		return p.startArray(key, rest)
	}

	quoted := rest != "" && p.quoteByte(rest[0]) != 0
	if !quoted {
		rest = strings.TrimSpace(p.stripInlineComment(rest))
	}
	value, tail, err := p.parseScalar(rest)
	if err != nil {
		return err
	}
	if quoted {
		tail = p.stripInlineComment(tail)
	}
	if strings.TrimSpace(tail) != "" {
		return syntaxErr(p.line, 1, "unexpected trailing content after value")
	}
	return p.emitValue(key, value)
}

func (p *parser) emitValue(key string, value ScalarValue) error {
	present, ok := p.sink.ContainsKey(key)
	if ok && present {
		return sectionKeyCollisionErr(p.line, 1, key)
	}
	overwrite := false
	if ok {
		switch p.opts.DuplicateKeys {
		case DuplicateForbid:
			return duplicateKeyErr(p.line, 1, key)
		case DuplicateFirst:
			return nil
		case DuplicateLast:
			overwrite = true
		}
	}
	return p.sink.AddValue(key, value, overwrite)
}

// startArray handles "key = [" and everything up to a closing "]" on
// the same or later lines.
func (p *parser) startArray(key, rest string) error {
	present, ok := p.sink.ContainsKey(key)
	if ok && present {
		return sectionKeyCollisionErr(p.line, 1, key)
	}
	overwrite := false
	if ok {
		switch p.opts.DuplicateKeys {
		case DuplicateForbid:
			return duplicateKeyErr(p.line, 1, key)
		case DuplicateFirst:
			return p.skipArray(rest[1:])
		case DuplicateLast:
			overwrite = true
		}
	}
	if err := p.sink.StartArray(key, overwrite); err != nil {
		return err
	}
	p.inArray = true
	p.arrayName = key
	p.arrayHasKind = false
	return p.continueArray(rest[1:])
}

// skipArray discards a duplicate-first array's elements without
// calling the sink, still validating bracket matching.
func (p *parser) skipArray(rest string) error {
	depth := 1
	for _, b := range rest {
		if b == '[' {
			depth++
		}
		if b == ']' {
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	p.inArray = true
	p.arrayName = ""
	return nil
}

// continueArray consumes elements (and the closing bracket) from the
// remainder of the current or a continuation line.
func (p *parser) continueArray(s string) error {
	for {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if s[0] == ']' {
			trailing := strings.TrimSpace(p.stripInlineComment(s[1:]))
			if trailing != "" {
				return syntaxErr(p.line, 1, "unexpected trailing content after array")
			}
			name := p.arrayName
			p.inArray = false
			p.arrayName = ""
			p.arrayHasKind = false
			if name == "" {
				return nil
			}
			return p.sink.EndArray(name)
		}
		if s[0] == ',' {
			s = s[1:]
			continue
		}

		value, rest, err := p.parseScalar(s)
		if err != nil {
			return err
		}
		if p.arrayName != "" {
			if p.arrayHasKind && value.Kind != p.arrayKind {
				return syntaxErr(p.line, 1, "mixed array")
			}
			p.arrayKind, p.arrayHasKind = value.Kind, true
			if err := p.sink.AddArrayValue(value); err != nil {
				return err
			}
		}
		s = rest
	}
}

// parseScalar parses one scalar literal from the start of s and
// returns the unconsumed remainder.
func (p *parser) parseScalar(s string) (ScalarValue, string, error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return ScalarValue{}, s, syntaxErr(p.line, 1, "expected value")
	}

	if q := p.quoteByte(s[0]); q != 0 {
		return p.parseQuotedString(s, q)
	}

	end := 0
	for end < len(s) && s[end] != ',' && s[end] != ']' && s[end] != ' ' && s[end] != '\t' {
		end++
	}
	word := s[:end]
	rest := s[end:]

	switch word {
	case "true":
		return ScalarValue{Kind: ScalarBool, Bool: true}, rest, nil
	case "false":
		return ScalarValue{Kind: ScalarBool, Bool: false}, rest, nil
	}

	if v, ok := parseIntLiteral(word); ok {
		return ScalarValue{Kind: ScalarI64, I64: v}, rest, nil
	}
	if v, err := strconv.ParseFloat(word, 64); err == nil {
		return ScalarValue{Kind: ScalarF64, F64: v}, rest, nil
	}

	if !p.opts.UnquotedStrings {
		return ScalarValue{}, s, syntaxErr(p.line, 1, "unquoted strings are disabled")
	}
	if word == "" {
		return ScalarValue{}, s, syntaxErr(p.line, 1, "unexpected byte")
	}
	return ScalarValue{Kind: ScalarString, String: word}, rest, nil
}

func (p *parser) quoteByte(b byte) byte {
	switch p.opts.StringQuotes {
	case QuotesDouble:
		if b == '"' {
			return '"'
		}
	case QuotesSingle:
		if b == '\'' {
			return '\''
		}
	case QuotesBoth:
		if b == '"' || b == '\'' {
			return b
		}
	}
	return 0
}

// parseQuotedString parses a quote-delimited string starting at s[0]
// == quote, applying escapes if enabled.
func (p *parser) parseQuotedString(s string, quote byte) (ScalarValue, string, error) {
	scratch := utils.GetBuffer(0)
	defer utils.ReleaseBuffer(scratch)

	i := 1
	for i < len(s) {
		b := s[i]
		if b == quote {
			return ScalarValue{Kind: ScalarString, String: string(scratch)}, s[i+1:], nil
		}
		if b == '\\' && p.opts.Escape {
			if i+1 >= len(s) {
				return ScalarValue{}, s, syntaxErr(p.line, i+1, "unterminated escape")
			}
			r, n, err := decodeEscape(s[i+1:], quote)
			if err != nil {
				return ScalarValue{}, s, syntaxErr(p.line, i+1, err.Error())
			}
			scratch = utf8.AppendRune(scratch, r)
			i += 1 + n
			continue
		}
		scratch = append(scratch, b)
		i++
	}
	return ScalarValue{}, s, syntaxErr(p.line, i+1, "unterminated string")
}

func decodeEscape(s string, quote byte) (rune, int, error) {
	if s == "" {
		return 0, 0, errUnterminatedEscape
	}
	switch s[0] {
	case 'n':
		return '\n', 1, nil
	case 'r':
		return '\r', 1, nil
	case 't':
		return '\t', 1, nil
	case '\\':
		return '\\', 1, nil
	case '0':
		return 0, 1, nil
	case '"':
		return '"', 1, nil
	case '\'':
		return '\'', 1, nil
	case 'x':
		if len(s) < 3 {
			return 0, 0, errBadEscape
		}
		v, err := strconv.ParseUint(s[1:3], 16, 8)
		if err != nil {
			return 0, 0, errBadEscape
		}
		return rune(v), 3, nil
	case 'u':
		if len(s) < 5 {
			return 0, 0, errBadEscape
		}
		v, err := strconv.ParseUint(s[1:5], 16, 16)
		if err != nil {
			return 0, 0, errBadEscape
		}
		return rune(v), 5, nil
	}
	if s[0] == quote {
		return rune(quote), 1, nil
	}
	return 0, 0, errBadEscape
}

// parseIntLiteral parses a decimal or 0x-prefixed hex integer literal
// with an optional leading sign. It rejects anything containing '.' or
// an exponent so the caller falls back to float parsing.
func parseIntLiteral(word string) (int64, bool) {
	if word == "" {
		return 0, false
	}
	if strings.ContainsAny(word, ".eE") && !strings.HasPrefix(strings.ToLower(word), "0x") {
		return 0, false
	}
	neg := false
	rest := word
	if rest[0] == '+' || rest[0] == '-' {
		neg = rest[0] == '-'
		rest = rest[1:]
	}
	base := 10
	if strings.HasPrefix(strings.ToLower(rest), "0x") {
		base = 16
		rest = rest[2:]
	}
	if rest == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(rest, base, 64)
	if err != nil {
		return 0, false
	}
	signed := int64(v)
	if neg {
		signed = -signed
	}
	return signed, true
}

// validateBareKey rejects bytes the key grammar forbids: brackets,
// quotes, comma, and whitespace. The separator cannot occur, since the
// key ends at its first occurrence. '.' is allowed here; it is only
// special inside a section header.
func validateBareKey(key string) error {
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '[', ']', '"', '\'', ',', ' ', '\t':
			return errInvalidKeyByte
		}
	}
	return nil
}
