// Package stage0 implements raw extraction: turning a PageSnapshot (or
// a workbook row) into the stream of SourceRecord blocks that stage1
// consumes (spec §4.D). Grounded on the teacher's internal/common/scan
// channel-streaming idiom, with segmentation semantics ported from
// original_source/src/taxonomy/pipeline/s0_raw_extraction/segmenter.py.
package stage0

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"taxonomy/internal/settings"
)

// Block is a single segmented unit of text pulled out of a snapshot,
// tagged with the heuristics that produced it.
type Block struct {
	Text      string
	Section   string
	BlockType string // header | list | table | paragraph
	Order     int
}

// SegmentationResult is what Segmenter.Segment returns: the kept
// blocks plus a running count of blocks dropped as boilerplate.
type SegmentationResult struct {
	Blocks             []Block
	BoilerplateRemoved int
}

var listMarker = regexp.MustCompile(`^(?:[-+*•‣◦]|\d+[.)]|[a-zA-Z][.)])\s+`)
var multiSpace = regexp.MustCompile(` {2,}`)

// Segmenter splits snapshot text (or, when policy.UseHTMLSegmentation
// and HTML is present, the rendered DOM) into semantic blocks.
type Segmenter struct {
	policy           settings.S0Policy
	headerPatterns   []*regexp.Regexp
	boilerplatePatterns []*regexp.Regexp
}

// NewSegmenter compiles policy's regex lists once.
func NewSegmenter(policy settings.S0Policy) *Segmenter {
	s := &Segmenter{policy: policy}
	if policy.DetectSections {
		for _, p := range policy.HeaderPatterns {
			if re, err := regexp.Compile("(?i)" + p); err == nil {
				s.headerPatterns = append(s.headerPatterns, re)
			}
		}
	}
	if policy.RemoveBoilerplate {
		for _, p := range policy.BoilerplatePatterns {
			if re, err := regexp.Compile("(?i)" + p); err == nil {
				s.boilerplatePatterns = append(s.boilerplatePatterns, re)
			}
		}
	}
	return s
}

// Segment chooses DOM-aware segmentation when rawHTML is non-empty and
// policy opts into it, falling back to line-based segmentation of
// text otherwise.
func (s *Segmenter) Segment(text, rawHTML string) SegmentationResult {
	if s.policy.UseHTMLSegmentation && strings.TrimSpace(rawHTML) != "" {
		if lines, ok := extractHTMLLines(rawHTML); ok {
			return s.segmentLines(lines)
		}
	}
	return s.segmentLines(strings.Split(text, "\n"))
}

// extractHTMLLines walks the DOM with x/net/html's tokenizer, emitting
// one line per block-level element's text content, in document order.
// Returns ok=false if parsing fails or yields nothing (caller falls
// back to plain-text line splitting).
func extractHTMLLines(rawHTML string) ([]string, bool) {
	blockTags := map[string]bool{
		"p": true, "div": true, "li": true, "tr": true, "td": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"br": true, "section": true, "article": true,
	}
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var lines []string
	var cur strings.Builder
	flush := func() {
		text := strings.TrimSpace(cur.String())
		if text != "" {
			lines = append(lines, text, "")
		}
		cur.Reset()
	}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return lines, len(lines) > 0
		case html.TextToken:
			cur.WriteString(" ")
			cur.WriteString(string(z.Text()))
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				flush()
			}
		}
	}
}

func (s *Segmenter) segmentLines(lines []string) SegmentationResult {
	var result SegmentationResult
	tableFlags := s.detectTableLines(lines)

	var current []string
	currentType := "paragraph"
	var currentSection string
	order := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		raw := strings.Join(nonBlank(current), "\n")
		if strings.TrimSpace(raw) == "" {
			current = nil
			return
		}
		var text string
		if currentType == "list" && s.policy.PreserveListStructure {
			text = strings.TrimSpace(raw)
		} else {
			text = normalizeWhitespace(raw)
		}
		if text == "" {
			current = nil
			return
		}
		if s.isBoilerplate(text) {
			result.BoilerplateRemoved++
			current = nil
			return
		}
		result.Blocks = append(result.Blocks, Block{Text: text, Section: currentSection, BlockType: currentType, Order: order})
		order++
		current = nil
	}

	for idx, raw := range lines {
		stripped := strings.TrimSpace(raw)
		if stripped == "" {
			flush()
			continue
		}
		if s.isHeader(stripped) {
			flush()
			currentSection = stripped
			if s.policy.SegmentOnHeaders {
				headerText := normalizeWhitespace(stripped)
				if !s.isBoilerplate(headerText) {
					result.Blocks = append(result.Blocks, Block{Text: headerText, Section: currentSection, BlockType: "header", Order: order})
					order++
				} else {
					result.BoilerplateRemoved++
				}
			}
			continue
		}
		lineType := s.classifyLine(stripped, tableFlags[idx])
		if lineType != currentType {
			flush()
			currentType = lineType
		}
		source := stripped
		if lineType == "table" {
			source = raw
		}
		current = append(current, s.prepareLine(source, lineType))
	}
	flush()
	return result
}

func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func (s *Segmenter) isHeader(line string) bool {
	if !s.policy.DetectSections {
		return false
	}
	for _, re := range s.headerPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	fields := strings.Fields(line)
	if strings.HasSuffix(line, ":") && len(fields) <= 12 {
		return true
	}
	if line == strings.ToUpper(line) && len(fields) >= 2 && len(fields) <= 12 {
		return true
	}
	return false
}

func (s *Segmenter) classifyLine(line string, isTableLine bool) string {
	if s.policy.SegmentOnLists && listMarker.MatchString(line) {
		return "list"
	}
	if s.policy.SegmentOnTables && isTableLine {
		return "table"
	}
	return "paragraph"
}

func (s *Segmenter) prepareLine(line, blockType string) string {
	if blockType != "list" || s.policy.PreserveListStructure {
		return line
	}
	cleaned := strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
	if cleaned == "" {
		return line
	}
	return cleaned
}

func (s *Segmenter) isBoilerplate(text string) bool {
	for _, re := range s.boilerplatePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (s *Segmenter) detectTableLines(lines []string) []bool {
	flags := make([]bool, len(lines))
	if !s.policy.SegmentOnTables {
		return flags
	}
	stripped := make([]string, len(lines))
	pipe := make([]bool, len(lines))
	tab := make([]bool, len(lines))
	cols := make([][]int, len(lines))
	for i, l := range lines {
		stripped[i] = strings.TrimSpace(l)
		pipe[i] = strings.Count(stripped[i], "|") >= 2
		tab[i] = strings.Contains(l, "\t")
		cols[i] = multiSpaceColumns(l)
	}
	for i, content := range stripped {
		if content == "" {
			continue
		}
		if pipe[i] {
			flags[i] = true
			continue
		}
		if tab[i] && ((i > 0 && tab[i-1]) || (i+1 < len(lines) && tab[i+1])) {
			flags[i] = true
			continue
		}
		if (i > 0 && columnsAlign(cols[i], cols[i-1])) || (i+1 < len(lines) && columnsAlign(cols[i], cols[i+1])) {
			flags[i] = true
		}
	}
	return flags
}

func multiSpaceColumns(line string) []int {
	var positions []int
	for _, m := range multiSpace.FindAllStringIndex(line, -1) {
		if m[1]-m[0] >= 3 {
			positions = append(positions, m[0])
		}
	}
	return positions
}

func columnsAlign(current, other []int) bool {
	if len(current) < 2 || len(other) < 2 {
		return false
	}
	for _, pos := range current {
		for _, cand := range other {
			diff := pos - cand
			if diff < 0 {
				diff = -diff
			}
			if diff <= 1 {
				return true
			}
		}
	}
	return false
}

func normalizeWhitespace(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
