package extensions

import (
	"strings"

	"github.com/hesusruiz/vcutils/yaml"

	markdown "github.com/mitya57/markdown/markdown"
)

// Meta strips a YAML front-matter header off the document and keeps the
// parsed data for the caller. The header must start on the very first line
// with "---" and run to the next "---" line.
//
// The collected data survives the conversion; the engine's Reset clears it.
type Meta struct {
	// Data is the front matter of the last converted document, or nil.
	Data *yaml.YAML
}

func (e *Meta) ExtendMarkdown(md *markdown.Markdown) error {
	pre := &metaPreprocessor{ext: e}
	md.Preprocessors = append([]markdown.Preprocessor{pre}, md.Preprocessors...)
	md.RegisterResettable(e)
	return nil
}

// Reset forgets the front matter of previous conversions.
func (e *Meta) Reset() {
	e.Data = nil
}

type metaPreprocessor struct {
	ext *Meta
}

func (p *metaPreprocessor) ProcessLines(cv *markdown.Conversion, lines []string) []string {
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "---") {
		return lines
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "---") {
			end = i
			break
		}
	}
	if end == -1 {
		// No closing fence, treat the whole thing as document text.
		return lines
	}

	frontMatter := strings.Join(lines[1:end], "\n")
	data, err := yaml.ParseYaml(frontMatter)
	if err != nil {
		cv.Log().Warnw("malformed front matter left in place", "error", err)
		return lines
	}
	p.ext.Data = data
	return lines[end+1:]
}
