package inspect

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// Limits bounds a single snapshot scan
type Limits struct {
	// Budget is the hard cap on directory entries visited
	Budget      int
	MaxDepth    int
	TreePreview int
}

// TextLength counts s in UTF-16 code units, the length the hosting API and
// browsers report for README text.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// DefaultLimits returns the production scan bounds
func DefaultLimits() Limits {
	return Limits{Budget: 8000, MaxDepth: 6, TreePreview: 40}
}

const previewDepth = 2

var (
	ignoredDirs = map[string]bool{
		".git": true, "node_modules": true, "dist": true, "build": true,
		"coverage": true, ".next": true, ".turbo": true, ".cache": true,
		"vendor": true, "target": true, "out": true, "venv": true, ".venv": true,
	}

	sourceExtensions = map[string]bool{
		".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".py": true,
		".java": true, ".go": true, ".rb": true, ".rs": true, ".php": true,
		".cs": true, ".cpp": true, ".c": true, ".h": true, ".hpp": true,
		".swift": true, ".kt": true, ".kts": true, ".scala": true, ".sql": true,
		".sh": true, ".html": true, ".css": true,
	}

	readmeName    = regexp.MustCompile(`^readme(\.|$)`)
	licenseName   = regexp.MustCompile(`^licen[sc]e(\.|$)`)
	testDirName   = regexp.MustCompile(`^(__tests__|tests?|spec)$`)
	testPathPart  = regexp.MustCompile(`(^|/)(__tests__|tests?|spec)(/|$)`)
	testFileInfix = regexp.MustCompile(`\.(test|spec)\.`)
	testFileTail  = regexp.MustCompile(`_test\.[a-z0-9]+$`)
)

// EmptyStructure is the structure reported when no snapshot could be scanned
func EmptyStructure() types.RepoStructure {
	return types.RepoStructure{
		TopLevelEntries: []string{},
		TreePreview:     []string{},
	}
}

// IsTestPath reports whether a file looks like a test by path segment or name
func IsTestPath(relPath, lowerName string) bool {
	if testPathPart.MatchString(strings.ToLower(relPath)) {
		return true
	}
	return testFileInfix.MatchString(lowerName) || testFileTail.MatchString(lowerName)
}

type frame struct {
	abs   string
	rel   string
	depth int
}

// Scan crawls root with an explicit stack, visiting at most limits.Budget
// entries. Unreadable directories and files contribute nothing.
func Scan(root string, limits Limits) types.RepoStructure {
	if limits.Budget <= 0 {
		limits = DefaultLimits()
	}
	s := EmptyStructure()
	stack := []frame{{abs: root}}

	for len(stack) > 0 && s.ScannedEntries < limits.Budget {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur.abs)
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			if s.ScannedEntries >= limits.Budget {
				s.Truncated = true
				break
			}
			s.ScannedEntries++

			name := entry.Name()
			lower := strings.ToLower(name)
			rel := name
			if cur.rel != "" {
				rel = cur.rel + "/" + name
			}
			abs := filepath.Join(cur.abs, name)
			indent := strings.Repeat("  ", cur.depth)
			preview := cur.depth <= previewDepth && len(s.TreePreview) < limits.TreePreview

			if entry.IsDir() {
				if ignoredDirs[lower] {
					continue
				}
				s.TotalDirs++
				if cur.depth == 0 {
					s.TopLevelEntries = append(s.TopLevelEntries, name+"/")
				}
				if testDirName.MatchString(lower) || strings.Contains(lower, "test") {
					s.Tests.TestDirCount++
				}
				if preview {
					s.TreePreview = append(s.TreePreview, indent+name+"/")
				}
				if cur.depth < limits.MaxDepth {
					stack = append(stack, frame{abs: abs, rel: rel, depth: cur.depth + 1})
				}
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}

			s.TotalFiles++
			if cur.depth == 0 {
				s.TopLevelEntries = append(s.TopLevelEntries, name)
			}
			if preview {
				s.TreePreview = append(s.TreePreview, indent+name)
			}

			if !s.Readme.Present && readmeName.MatchString(lower) {
				s.Readme.Present = true
				if data, err := os.ReadFile(abs); err == nil {
					s.Readme.Length = TextLength(string(data))
				}
			}
			if !s.LicensePresent && licenseName.MatchString(lower) {
				s.LicensePresent = true
			}
			if IsTestPath(rel, lower) {
				s.Tests.TestFileCount++
			}

			if !sourceExtensions[filepath.Ext(lower)] {
				continue
			}
			s.SourceFileCount++
			if data, err := os.ReadFile(abs); err == nil {
				s.LOCEstimate += strings.Count(string(data), "\n") + 1
			}
		}
	}

	if len(stack) > 0 {
		s.Truncated = true
	}
	s.Tests.HasTests = s.Tests.TestDirCount > 0 || s.Tests.TestFileCount > 0
	return s
}
