package ini

import (
	"errors"
	"fmt"

	"github.com/scigolib/bnfg/internal/wire"
)

var (
	errUnterminatedEscape = errors.New("unterminated escape sequence")
	errBadEscape          = errors.New("invalid escape sequence")
	errInvalidKeyByte     = errors.New("key contains a forbidden byte")
)

// PositionError carries a source location alongside a wrapped
// sentinel from internal/wire, so errors.Is matches it against the
// same sentinels the binary reader/writer wrap.
type PositionError struct {
	Line   int
	Col    int
	Detail string
	Cause  error
}

func (e *PositionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%d:%d: %v", e.Line, e.Col, e.Cause)
	}
	return fmt.Sprintf("%d:%d: %v: %s", e.Line, e.Col, e.Cause, e.Detail)
}

func (e *PositionError) Unwrap() error {
	return e.Cause
}

func syntaxErr(line, col int, detail string) error {
	return &PositionError{Line: line, Col: col, Detail: detail, Cause: wire.ErrSyntax}
}

func duplicateKeyErr(line, col int, key string) error {
	return &PositionError{Line: line, Col: col, Detail: key, Cause: wire.ErrDuplicateKey}
}

func duplicateSectionErr(line, col int, name string) error {
	return &PositionError{Line: line, Col: col, Detail: name, Cause: wire.ErrDuplicateSection}
}

func sectionKeyCollisionErr(line, col int, name string) error {
	return &PositionError{Line: line, Col: col, Detail: name, Cause: wire.ErrSectionKeyCollision}
}

func nestedDepthErr(line, col int, name string) error {
	return &PositionError{Line: line, Col: col, Detail: name, Cause: wire.ErrNestedSectionDepthExceeded}
}
