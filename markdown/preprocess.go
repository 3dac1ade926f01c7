package markdown

import (
	"regexp"
	"slices"
	"strings"
)

// A TextPreprocessor rewrites the whole source before it is split into
// lines. Stashing raw HTML blocks happens here.
type TextPreprocessor interface {
	ProcessText(cv *Conversion, text string) string
}

// A Preprocessor rewrites the source line by line, after the text
// preprocessors ran.
type Preprocessor interface {
	ProcessLines(cv *Conversion, lines []string) []string
}

var blockLevelElements = []string{
	"p", "div", "blockquote", "pre", "table",
	"dl", "ol", "ul", "script", "noscript",
	"form", "fieldset", "iframe", "math", "ins",
	"del", "hr", "hr/", "style",
}

func isBlockLevel(tag string) bool {
	if slices.Contains(blockLevelElements, tag) {
		return true
	}
	return len(tag) >= 2 && tag[0] == 'h' && tag[1] >= '0' && tag[1] <= '9'
}

// HTMLBlockPreprocessor finds blocks of raw HTML in the source, moves them
// into the conversion's HTML stash and leaves opaque placeholders behind so
// the block parser never sees the markup.
type HTMLBlockPreprocessor struct{}

func leftTagOf(block string) string {
	s := strings.Replace(block[1:], ">", " ", 1)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func rightTagOf(leftTag, block string) string {
	s := strings.TrimRight(block, " \t\r\n")
	start := len(s) - len(leftTag) - 2
	if start < 0 {
		start = 0
	}
	end := len(s) - 1
	if end < start {
		end = start
	}
	return strings.ToLower(s[start:end])
}

func equalTags(leftTag, rightTag string) bool {
	if leftTag == "div" {
		return true
	}
	if leftTag != "" && strings.ContainsRune("?@%", rune(leftTag[0])) {
		return true
	}
	if "/"+leftTag == rightTag {
		return true
	}
	if rightTag == "--" && leftTag == "--" {
		return true
	}
	if rightTag != "" && rightTag[0] != '<' && leftTag == rightTag[1:] {
		return true
	}
	return false
}

func (HTMLBlockPreprocessor) ProcessText(cv *Conversion, text string) string {
	var out []string
	var items []string
	leftTag := ""
	inTag := false

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimPrefix(block, "\n")

		if !inTag {
			if !strings.HasPrefix(block, "<") {
				out = append(out, block)
				continue
			}
			leftTag = leftTagOf(block)
			rightTag := rightTagOf(leftTag, block)

			special := len(block) > 1 && strings.ContainsRune("!?@%", rune(block[1]))
			if !isBlockLevel(leftTag) && !special {
				out = append(out, block)
				continue
			}
			if leftTag == "hr" || leftTag == "hr/" {
				out = append(out, strings.TrimSpace(block))
				continue
			}
			if len(block) > 1 && block[1] == '!' {
				// HTML comment, bind it by its dashes.
				leftTag = "--"
				rightTag = rightTagOf(leftTag, block)
			}
			if strings.HasSuffix(strings.TrimRight(block, " \t\r\n"), ">") && equalTags(leftTag, rightTag) {
				out = append(out, cv.HTMLStash.Store(strings.TrimSpace(block), false))
				continue
			}
			items = append(items, strings.TrimSpace(block))
			inTag = true
			continue
		}

		items = append(items, strings.TrimSpace(block))
		if equalTags(leftTag, rightTagOf(leftTag, block)) {
			inTag = false
			out = append(out, cv.HTMLStash.Store(strings.Join(items, "\n\n"), false))
			items = nil
		}
	}

	if len(items) > 0 {
		out = append(out, cv.HTMLStash.Store(strings.Join(items, "\n\n"), false))
		out = append(out, "\n")
	}
	return strings.Join(out, "\n\n")
}

// HeaderPreprocessor rewrites setext headers into the hash form and inserts
// a line break after every hash header so the block parser always sees a
// header as its own block.
type HeaderPreprocessor struct{}

func (HeaderPreprocessor) ProcessLines(cv *Conversion, lines []string) []string {
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if strings.HasPrefix(lines[i], "#") {
			lines = slices.Insert(lines, i+1, "\n")
		}
		if i+1 < len(lines) && lines[i+1] != "" &&
			(lines[i+1][0] == '-' || lines[i+1][0] == '=') {
			underline := strings.TrimSpace(lines[i+1])
			switch {
			case underline == strings.Repeat("=", len(underline)):
				lines[i] = "# " + strings.TrimSpace(lines[i])
				lines[i+1] = ""
			case underline == strings.Repeat("-", len(underline)):
				lines[i] = "## " + strings.TrimSpace(lines[i])
				lines[i+1] = ""
			}
		}
	}
	return lines
}

// LinePreprocessor normalizes horizontal rules. A line of three or more
// identical rule characters (optionally behind blockquote markers) becomes
// the canonical "___" form the block parser recognizes.
type LinePreprocessor struct{}

var blockquotePrefixRe = regexp.MustCompile(`^(> )+`)

func isRuleLine(line string) bool {
	if strings.HasPrefix(line, "    ") {
		return false
	}
	var sb strings.Builder
	for _, r := range line {
		if r != ' ' && r != '\t' {
			sb.WriteRune(r)
		}
	}
	text := sb.String()
	if len(text) <= 2 {
		return false
	}
	return reIsLine1.MatchString(text) || reIsLine2.MatchString(text) || reIsLine3.MatchString(text)
}

func (LinePreprocessor) ProcessLines(cv *Conversion, lines []string) []string {
	for i := range lines {
		prefix := blockquotePrefixRe.FindString(lines[i])
		if isRuleLine(lines[i][len(prefix):]) {
			lines[i] = prefix + "___"
		}
	}
	return lines
}

// ReferencePreprocessor strips reference definitions out of the source and
// records them in the conversion's reference table. The first definition of
// a label wins; later ones are dropped silently.
type ReferencePreprocessor struct{}

var referenceDefRe = regexp.MustCompile(`^( ? ? ?)\[([^\]]*)\]:\s*([^ ]*)(.*)$`)

func (ReferencePreprocessor) ProcessLines(cv *Conversion, lines []string) []string {
	var out []string
	for _, line := range lines {
		m := referenceDefRe.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		id := strings.ToLower(strings.TrimSpace(m[2]))
		title := strings.TrimSpace(m[4])
		switch {
		case title == "":
			cv.setReference(id, m[3], "")
		case len(title) >= 2 &&
			((title[0] == '"' && title[len(title)-1] == '"') ||
				(title[0] == '\'' && title[len(title)-1] == '\'') ||
				(title[0] == '(' && title[len(title)-1] == ')')):
			cv.setReference(id, m[3], title[1:len(title)-1])
		default:
			// Trailing junk after the target, not a definition.
			out = append(out, line)
		}
	}
	return out
}
