// Package docstore persists the supporting documents uploaded with an
// assessment.
package docstore

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "documents"

// ObjectKey builds a unique key under the session's folder.
func ObjectKey(sessionID, filename string) string {
	name := cleanFilename(filename)
	sid := cleanSegment(sessionID)
	if sid == "" {
		sid = "anonymous"
	}
	return path.Join(keyPrefix, sid, uuid.NewString()+"-"+name)
}

func cleanFilename(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = cleanSegment(name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

func cleanSegment(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(raw))
}
