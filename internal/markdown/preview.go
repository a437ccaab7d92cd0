package markdown

import (
	"regexp"
	"strings"
)

var (
	// ![[attachments/photo.png]] and ![[photo.png|300]]
	wikiEmbedPattern = regexp.MustCompile(`!\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)
	// ![alt](attachments/photo.png)
	mdImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	// [text](target) and [[target|text]], reduced to their text
	mdLinkPattern   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	wikiLinkPattern = regexp.MustCompile(`\[\[(?:[^\]|]+\|)?([^\]|]+)\]\]`)

	headingPrefix = regexp.MustCompile(`^#{1,6}\s+`)
	emphasisRunes = strings.NewReplacer("**", "", "__", "", "*", "", "_", "", "`", "")
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".bmp": true, ".avif": true,
}

// Preview extracts plain preview text from a note body: the first
// non-heading paragraph with markdown syntax stripped, truncated to maxRunes
// on a rune boundary with an ellipsis.
func Preview(body string, maxRunes int) string {
	var text string
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || headingPrefix.MatchString(block) {
			continue
		}
		if plain := plainText(block); plain != "" {
			text = plain
			break
		}
	}
	return Truncate(text, maxRunes)
}

// Truncate cuts s to maxRunes runes, appending an ellipsis when it cut
// anything. maxRunes <= 0 means no limit.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}

// ImageRefs extracts image targets from a note body, in document order:
// wiki-style embeds first-class, then inline markdown images. Non-image
// embeds (note transclusions) are skipped. Duplicates are dropped.
func ImageRefs(body string) []string {
	var refs []string
	seen := make(map[string]bool)

	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" || seen[target] || !isImageTarget(target) {
			return
		}
		seen[target] = true
		refs = append(refs, target)
	}

	for _, m := range wikiEmbedPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range mdImagePattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return refs
}

func isImageTarget(target string) bool {
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		return imageExtensions[strings.ToLower(target[i:])]
	}
	return false
}

func plainText(block string) string {
	block = wikiEmbedPattern.ReplaceAllString(block, "")
	block = mdImagePattern.ReplaceAllString(block, "")
	block = mdLinkPattern.ReplaceAllString(block, "$1")
	block = wikiLinkPattern.ReplaceAllString(block, "$1")
	block = emphasisRunes.Replace(block)

	lines := strings.Fields(block)
	return strings.Join(lines, " ")
}
