package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// Core line-shape patterns. These classify whole lines, so the standard
// regexp package is enough for them.
var (
	reHeader  = regexp.MustCompile(`^(#{1,6})[ \t]*(.*?)[ \t]*(#*)$`)
	reUl      = regexp.MustCompile(`^[ ]{0,3}[*+-]\s+(.*)$`)
	reOl      = regexp.MustCompile(`^[ ]{0,3}[\d]*\.\s+(.*)$`)
	reIsLine1 = regexp.MustCompile(`^(\*+)$`)
	reIsLine2 = regexp.MustCompile(`^(-+)$`)
	reIsLine3 = regexp.MustCompile(`^(_+)$`)
	reTabbed  = regexp.MustCompile(`^((\t)|(    ))(.*)$`)
	reQuoted  = regexp.MustCompile(`^[ ]{0,2}> ?(.*)$`)
)

// linesUntil splits lines at the first line the condition accepts.
func linesUntil(lines []string, cond func(string) bool) (head, rest []string) {
	for i, line := range lines {
		if cond(line) {
			return lines[:i], lines[i:]
		}
	}
	return lines, nil
}

// processSection is the heart of the block parser. It walks the lines of
// one section, dispatches list, quote and code-block openers to their
// handlers (each of which consumes its lines and recurses back here for the
// remainder) and turns everything else into paragraphs, headers and rules
// under parent. inList tracks how many list levels we are inside; looseList
// tells paragraph handling whether list items get a p wrapper.
func (cv *Conversion) processSection(parent NodeID, lines []string, inList int, looseList bool) {
	for len(lines) > 0 {
		if lines[0] == "" {
			lines = lines[1:]
			continue
		}

		switch {
		case reUl.MatchString(lines[0]):
			cv.processList(parent, lines, inList, "ul")
			return
		case reOl.MatchString(lines[0]):
			cv.processList(parent, lines, inList, "ol")
			return
		case reQuoted.MatchString(lines[0]):
			cv.processQuote(parent, lines, inList)
			return
		case reTabbed.MatchString(lines[0]):
			cv.processCodeBlock(parent, lines, inList)
			return
		}

		if inList > 0 {
			head, rest := linesUntil(lines, func(line string) bool {
				return reUl.MatchString(line) || reOl.MatchString(line) ||
					strings.TrimSpace(line) == ""
			})
			cv.processSection(parent, head, inList-1, looseList)
			lines = rest
			inList--
		} else {
			paragraph, rest := linesUntil(lines, func(line string) bool {
				return strings.TrimSpace(line) == "" || strings.HasPrefix(line, ">")
			})
			lines = rest
			switch {
			case len(paragraph) == 0:
			case strings.HasPrefix(paragraph[0], "#"):
				cv.processHeader(parent, paragraph)
			case reIsLine3.MatchString(paragraph[0]):
				cv.processHR(parent)
				lines = append(append([]string{}, paragraph[1:]...), lines...)
			default:
				cv.processParagraph(parent, paragraph, inList, looseList)
			}
		}

		if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
			lines = lines[1:]
		}
	}
}

func (cv *Conversion) processHeader(parent NodeID, paragraph []string) {
	m := reHeader.FindStringSubmatch(paragraph[0])
	if m == nil {
		cv.log.Errorw("line classified as header failed to parse", "line", paragraph[0])
		return
	}
	h := cv.Tree.SubElement(parent, "h"+strconv.Itoa(len(m[1])))
	cv.Tree.Node(h).Text = Text{Value: strings.TrimSpace(m[2])}
}

func (cv *Conversion) processHR(parent NodeID) {
	cv.Tree.SubElement(parent, "hr")
}

func (cv *Conversion) processParagraph(parent NodeID, paragraph []string, inList int, looseList bool) {
	var el NodeID
	p := cv.Tree.Node(parent)
	if p.Tag == "li" && !(looseList || len(p.Children) > 0) {
		// Tight list item: content goes straight into the li.
		el = parent
	} else {
		el = cv.Tree.SubElement(parent, "p")
	}

	var dump []string
	for _, line := range paragraph {
		switch {
		case reIsLine3.MatchString(line):
			cv.Tree.Node(el).Text = Text{Value: strings.Join(dump, "\n")}
			cv.processHR(el)
			dump = nil
		case strings.HasPrefix(line, "#"):
			cv.Tree.Node(el).Text = Text{Value: strings.Join(dump, "\n")}
			cv.processHeader(parent, []string{line})
			dump = nil
		default:
			dump = append(dump, line)
		}
	}
	if len(dump) > 0 {
		cv.Tree.Node(el).Text = Text{Value: strings.Join(dump, "\n")}
	}
}

// processList consumes one list (and whatever trails it) from lines. Item
// starters open a new item; indented lines and bare continuations attach to
// the current one. A blank line inside the list makes it loose when list
// content follows.
func (cv *Conversion) processList(parent NodeID, lines []string, inList int, tag string) {
	list := cv.Tree.SubElement(parent, tag)
	looseList := false

	var items [][]string
	item := -1
	i := 0

	for idx := 0; idx < len(lines); idx++ {
		line := lines[idx]
		loose := false

		if strings.TrimSpace(line) == "" {
			i++
			loose = true
			next := ""
			found := false
			for j := idx + 1; j < len(lines); j++ {
				if strings.TrimSpace(lines[j]) != "" {
					next = lines[j]
					found = true
					break
				}
			}
			if !found {
				break
			}
			if reUl.MatchString(next) || reOl.MatchString(next) || reTabbed.MatchString(next) {
				if item >= 0 {
					items[item] = append(items[item], strings.TrimSpace(line))
				}
				looseList = looseList || loose
				continue
			}
			break
		}

		matched := false
		if m := reUl.FindStringSubmatch(line); m != nil {
			items = append(items, []string{m[1]})
			item++
			matched = true
		} else if m := reOl.FindStringSubmatch(line); m != nil {
			items = append(items, []string{m[1]})
			item++
			matched = true
		} else if m := reTabbed.FindStringSubmatch(line); m != nil && item >= 0 {
			items[item] = append(items[item], m[4])
			matched = true
		}
		if !matched && item >= 0 {
			items[item] = append(items[item], line)
		}
		i++
		looseList = looseList || loose
	}

	for _, itemLines := range items {
		li := cv.Tree.SubElement(list, "li")
		cv.processSection(li, itemLines, inList+1, looseList)
	}

	if i > len(lines) {
		i = len(lines)
	}
	cv.processSection(parent, lines[i:], inList, false)
}

func (cv *Conversion) processQuote(parent NodeID, lines []string, inList int) {
	var dequoted []string
	i := 0
	blank := false
	for _, line := range lines {
		if m := reQuoted.FindStringSubmatch(line); m != nil {
			dequoted = append(dequoted, m[1])
			blank = false
		} else if !blank && strings.TrimSpace(line) != "" {
			// Lazy continuation of the quoted paragraph.
			dequoted = append(dequoted, line)
		} else if !blank && strings.TrimSpace(line) == "" {
			dequoted = append(dequoted, line)
			blank = true
		} else {
			break
		}
		i++
	}
	quote := cv.Tree.SubElement(parent, "blockquote")
	cv.processSection(quote, dequoted, inList, false)
	cv.processSection(parent, lines[i:], inList, false)
}

func (cv *Conversion) processCodeBlock(parent NodeID, lines []string, inList int) {
	detabbed, rest := detectTabbed(lines)
	pre := cv.Tree.SubElement(parent, "pre")
	code := cv.Tree.SubElement(pre, "code")
	text := strings.TrimRight(strings.Join(detabbed, "\n"), " \t\r\n") + "\n"
	cv.Tree.Node(code).Text = Text{Value: text, Atomic: true}
	cv.processSection(parent, rest, inList, false)
}

// detectTabbed gathers the leading run of tab-indented lines, removing one
// level of indentation. Blank lines stay in the run as long as more
// indented content follows them.
func detectTabbed(lines []string) (detabbed, rest []string) {
	i := 0
	for idx := 0; idx < len(lines); idx++ {
		line := lines[idx]

		if strings.TrimSpace(line) == "" {
			i++
			next := ""
			found := false
			for j := idx + 1; j < len(lines); j++ {
				if strings.TrimSpace(lines[j]) != "" {
					next = lines[j]
					found = true
					break
				}
			}
			if !found {
				break
			}
			if reTabbed.MatchString(next) {
				detabbed = append(detabbed, "")
				continue
			}
			break
		}

		if m := reTabbed.FindStringSubmatch(line); m != nil {
			detabbed = append(detabbed, m[4])
			i++
			continue
		}
		return detabbed, lines[idx:]
	}
	if i > len(lines) {
		i = len(lines)
	}
	return detabbed, lines[i:]
}
