package social

import (
	"regexp"
	"strings"
)

var (
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	mentionPattern = regexp.MustCompile(`@(\w+)`)
)

// ExtractHashtags returns the hashtags in content, lower-cased and
// deduplicated, in order of first appearance. The leading '#' is stripped.
func ExtractHashtags(content string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, match := range hashtagPattern.FindAllStringSubmatch(content, -1) {
		tag := strings.ToLower(match[1])
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// ExtractMentions returns the mentioned usernames in content, deduplicated,
// in order of first appearance. Case is preserved; usernames are
// case-sensitive identifiers. The leading '@' is stripped.
func ExtractMentions(content string) []string {
	var mentions []string
	seen := make(map[string]struct{})
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		mentions = append(mentions, name)
	}
	return mentions
}
