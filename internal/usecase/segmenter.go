package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
)

// SplitPolicy selects how a document is cut into segments.
type SplitPolicy string

const (
	SplitParagraph SplitPolicy = "paragraph"
	SplitSentence  SplitPolicy = "sentence"
	SplitChapter   SplitPolicy = "chapter"
)

// DefaultMaxLength matches the provider's per-request text limit.
const DefaultMaxLength = 1000

var (
	blankLineRe = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)
	headingRe   = regexp.MustCompile(`^#+\s`)
)

// ParseSplitPolicy accepts the policy names case-insensitively.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch p := SplitPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SplitParagraph, SplitSentence, SplitChapter:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownSplitPolicy, s)
	}
}

// SplitText cuts text into ordered segments of at most maxLength runes. A
// segment is only longer than maxLength when it is a single token that cannot
// be split. maxLength <= 0 means DefaultMaxLength.
func SplitText(text string, policy SplitPolicy, maxLength int) ([]model.Segment, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var chunks []string
	switch policy {
	case SplitParagraph:
		chunks = splitParagraphs(text, maxLength)
	case SplitSentence:
		chunks = splitSentences(text, maxLength)
	case SplitChapter:
		chunks = splitChapters(text, maxLength)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSplitPolicy, policy)
	}

	segments := make([]model.Segment, 0, len(chunks))
	for _, c := range chunks {
		if c == "" {
			continue
		}
		segments = append(segments, model.Segment{Index: len(segments), Text: c})
	}
	return segments, nil
}

func splitParagraphs(text string, maxLength int) []string {
	var out []string
	for _, p := range blankLineRe.Split(text, -1) {
		out = appendBlock(out, strings.TrimSpace(p), maxLength)
	}
	return out
}

func splitChapters(text string, maxLength int) []string {
	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		out = appendBlock(out, strings.TrimSpace(current.String()), maxLength)
		current.Reset()
	}
	for _, line := range strings.Split(text, "\n") {
		if headingRe.MatchString(line) {
			flush()
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return out
}

func splitSentences(text string, maxLength int) []string {
	var (
		out []string
		buf string
	)
	flush := func() {
		if buf == "" {
			return
		}
		if !endsWithTerminal(buf) && runeLen(buf)+1 <= maxLength {
			buf += "."
		}
		out = append(out, buf)
		buf = ""
	}

	for _, s := range sentences(text) {
		if runeLen(s.text) > maxLength {
			flush()
			out = append(out, splitLong(s.text, maxLength)...)
			continue
		}
		if buf == "" {
			buf = s.text
			continue
		}
		joined := buf + s.sep + s.text
		if runeLen(joined) > maxLength {
			flush()
			buf = s.text
			continue
		}
		buf = joined
	}
	flush()
	return out
}

// sentence is one piece of the source together with the separator that
// precedes it when re-joined: a space when the source had whitespace there,
// nothing otherwise.
type sentence struct {
	text string
	sep  string
}

// sentences breaks text after each run of terminal punctuation. Latin
// punctuation only ends a sentence when followed by whitespace or the end of
// the text, so "3.14" and "example.com" stay whole; CJK punctuation always
// does. A trailing fragment without punctuation is kept as the last sentence.
func sentences(text string) []sentence {
	var (
		out   []sentence
		start int
	)
	runes := []rune(text)
	emit := func(end int) {
		sep := ""
		if start > 0 && start < len(runes) && isSpace(runes[start]) {
			sep = " "
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, sentence{text: s, sep: sep})
		}
		start = end
	}
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
		}
		if !isCJKTerminal(runes[i]) && i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}
		emit(i + 1)
	}
	emit(len(runes))
	return out
}

// appendBlock adds a trimmed block, sub-splitting it when oversized.
func appendBlock(out []string, block string, maxLength int) []string {
	if block == "" {
		return out
	}
	if runeLen(block) <= maxLength {
		return append(out, block)
	}
	return append(out, splitLong(block, maxLength)...)
}

// splitLong greedily packs whitespace-delimited tokens, joined by single
// spaces. A token longer than maxLength becomes a segment of its own.
func splitLong(text string, maxLength int) []string {
	var (
		out    []string
		cur    strings.Builder
		curLen int
	)
	for _, tok := range strings.Fields(text) {
		n := runeLen(tok)
		if curLen > 0 && curLen+1+n > maxLength {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(tok)
		curLen += n
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return isCJKTerminal(r)
}

func isCJKTerminal(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func endsWithTerminal(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isTerminal(r)
}

func isSpace(r rune) bool { return unicode.IsSpace(r) }

func runeLen(s string) int { return utf8.RuneCountInString(s) }
