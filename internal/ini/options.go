// Package ini implements the tokenizer and sink-driven parser for the
// configurable INI dialect described in spec.md §4.5. The parser owns
// no storage of its own: every parsed value, section, or array element
// is handed to a Sink, which is free to be the dynamic tree, a
// validator, or a counter.
package ini

// CommentStyle selects which byte(s), if any, start a line comment.
type CommentStyle int

const (
	CommentsNone CommentStyle = iota
	CommentsSemicolon
	CommentsHash
	CommentsBoth
)

// QuoteStyle selects which byte(s), if any, may delimit a quoted
// string.
type QuoteStyle int

const (
	QuotesNone QuoteStyle = iota
	QuotesDouble
	QuotesSingle
	QuotesBoth
)

// DuplicatePolicy selects the behavior when a key or section name
// reappears (spec.md §4.5).
type DuplicatePolicy int

const (
	DuplicateForbid DuplicatePolicy = iota
	DuplicateFirst
	DuplicateLast
	// DuplicateMerge only applies to sections: re-enter the existing
	// section instead of forbidding or replacing it.
	DuplicateMerge
)

// Options configures every tunable dimension of the dialect.
type Options struct {
	Comments            CommentStyle
	InlineComments      bool
	StringQuotes        QuoteStyle
	UnquotedStrings     bool
	Escape              bool
	LineContinuation    bool
	DuplicateSections   DuplicatePolicy
	DuplicateKeys       DuplicatePolicy
	Arrays              bool
	KeyValueSeparator   byte
	NestedSectionDepth  uint32
	ImplicitRootSection bool
}

// Default returns the permissive default dialect: both comment
// styles, both quote styles, unquoted strings, escapes, line
// continuation, duplicates forbidden, arrays enabled, '=' separator,
// one level of section nesting, and an implicit root section.
func Default() Options {
	return Options{
		Comments:            CommentsBoth,
		InlineComments:      true,
		StringQuotes:        QuotesBoth,
		UnquotedStrings:     true,
		Escape:              true,
		LineContinuation:    true,
		DuplicateSections:   DuplicateForbid,
		DuplicateKeys:       DuplicateForbid,
		Arrays:              true,
		KeyValueSeparator:   '=',
		NestedSectionDepth:  1,
		ImplicitRootSection: true,
	}
}
