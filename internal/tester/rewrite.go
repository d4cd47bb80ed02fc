package tester

import (
	"strings"
)

// RewriteImports adjusts a generated test suite so it imports the
// module from the scratch directory instead of the project layout.
// Generated suites carry a preamble that splices tests/source onto
// sys.path before the import; in the scratch directory both files sit
// side by side, so that preamble is dropped and only the import kept.
//
// The rewrite is structural: it finds the "import <module>" statement
// and removes the contiguous path-setup block directly above it. When
// no preamble is present the content passes through unchanged and
// found is false, so callers can report suites that never matched
// instead of running them silently broken.
func RewriteImports(content, module string) (rewritten string, found bool) {
	lines := strings.Split(content, "\n")

	importIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "import "+module {
			importIdx = i
			break
		}
	}
	if importIdx == -1 {
		return content, false
	}

	// Walk upward over the path-setup block, if any.
	start := importIdx
	hasPathSetup := false
	for start > 0 && isPreambleLine(lines[start-1]) {
		start--
		if isPathSetupLine(lines[start]) {
			hasPathSetup = true
		}
	}
	// Blanks and comments above the import are not enough on their own.
	if !hasPathSetup {
		return content, false
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[:start]...)
	out = append(out, "# Module lives alongside this test in the scratch directory")
	out = append(out, lines[importIdx:]...)
	return strings.Join(out, "\n"), true
}

// isPreambleLine reports whether a line belongs to the sys.path setup
// block that precedes the module import in generated suites.
func isPreambleLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#") || isPathSetupLine(line)
}

func isPathSetupLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "current_dir"):
		return true
	case strings.HasPrefix(trimmed, "source_dir"):
		return true
	case strings.HasPrefix(trimmed, "sys.path.insert"):
		return true
	case strings.HasPrefix(trimmed, "sys.path.append"):
		return true
	}
	return false
}
