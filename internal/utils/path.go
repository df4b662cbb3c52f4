package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSegment is one step of a dotted path such as "a.b[3].c": either a
// table key lookup or an array index.
type PathSegment struct {
	Key      string
	HasIndex bool
	Index    int
}

// ParsePath splits a dotted path with optional bracket indexing into
// its segments. "a.b[3].c" becomes [{Key:"a"} {Key:"b"} {HasIndex Index:3} {Key:"c"}].
func ParsePath(path string) ([]PathSegment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}

	var segments []PathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("empty path segment in %q", path)
		}

		key := part
		var indices []int
		for {
			open := strings.IndexByte(key, '[')
			if open < 0 {
				break
			}
			close := strings.IndexByte(key[open:], ']')
			if close < 0 {
				return nil, fmt.Errorf("unmatched '[' in path segment %q", part)
			}
			close += open

			idxStr := key[open+1 : close]
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("invalid index %q in path segment %q", idxStr, part)
			}
			indices = append(indices, idx)
			key = key[:open] + key[close+1:]
		}

		if key == "" {
			return nil, fmt.Errorf("empty key in path segment %q", part)
		}

		segments = append(segments, PathSegment{Key: key})
		for _, idx := range indices {
			segments = append(segments, PathSegment{HasIndex: true, Index: idx})
		}
	}

	return segments, nil
}
