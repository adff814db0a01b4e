package edits

import (
	"regexp"
	"strings"

	"github.com/longregen/gepa/internal/domain/models"
)

// Apply produces a candidate prompt by applying each edit in order. Edits
// that lost conflict resolution (non-empty ConflictsWith and not selected)
// are skipped by the caller; here every edit in the slice is applied.
// Application is best effort: an edit whose anchor or target no longer
// exists after earlier edits ran falls back the same way validation does,
// so Apply never fails.
func Apply(prompt string, batch []*models.PromptEdit) string {
	text := prompt
	for _, edit := range batch {
		text = applyOne(text, edit)
	}
	return text
}

func applyOne(text string, edit *models.PromptEdit) string {
	switch edit.Operation {
	case models.OpInsert:
		return applyInsert(text, edit)
	case models.OpReplace:
		return applyReplace(text, edit)
	case models.OpDelete:
		return applyDelete(text, edit)
	case models.OpMove:
		// Move is expressed as delete + insert by the builder; a bare
		// move carries no anchor pair, so leave the text unchanged.
		return text
	default:
		return text
	}
}

func applyInsert(text string, edit *models.PromptEdit) string {
	content := edit.Content
	switch edit.Location.Type {
	case models.LocStart:
		return content + separatorFor(text) + text
	case models.LocBefore:
		if idx := foldIndex(text, edit.Location.RelativeMarker); idx >= 0 {
			return text[:idx] + content + separatorFor(text[idx:]) + text[idx:]
		}
		return text + separatorFor(content) + content
	case models.LocAfter:
		marker := edit.Location.RelativeMarker
		if idx := foldIndex(text, marker); idx >= 0 {
			end := idx + len(marker)
			return text[:end] + separatorFor(content) + content + text[end:]
		}
		return text + separatorFor(content) + content
	default: // end
		return text + separatorFor(content) + content
	}
}

func applyReplace(text string, edit *models.PromptEdit) string {
	if edit.Location.Type == models.LocReplaceAll {
		return edit.Content
	}
	target := edit.TargetText
	if target == "" {
		target = edit.Location.Pattern
	}
	if target == "" {
		return text
	}
	if idx := foldIndex(text, target); idx >= 0 {
		return text[:idx] + edit.Content + text[idx+len(target):]
	}
	if edit.Location.Pattern != "" {
		if re, err := regexp.Compile(edit.Location.Pattern); err == nil {
			if loc := re.FindStringIndex(text); loc != nil {
				return text[:loc[0]] + edit.Content + text[loc[1]:]
			}
		}
	}
	// Target vanished, likely consumed by an earlier edit. Degrade to an
	// append so the suggestion's content still lands.
	return text + separatorFor(edit.Content) + edit.Content
}

func applyDelete(text string, edit *models.PromptEdit) string {
	target := edit.TargetText
	if target == "" {
		return text
	}
	idx := foldIndex(text, target)
	if idx < 0 {
		return text
	}
	out := text[:idx] + text[idx+len(target):]
	return collapseBlank(out)
}

// foldIndex finds needle in haystack case-insensitively, preferring an
// exact match so the returned span has the haystack's casing.
func foldIndex(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	if idx := strings.Index(haystack, needle); idx >= 0 {
		return idx
	}
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}

// separatorFor returns the paragraph boundary to place before adjacent
// text. Text that is blank or already starts on a new line needs none.
func separatorFor(adjacent string) string {
	if strings.TrimSpace(adjacent) == "" {
		return ""
	}
	if strings.HasPrefix(adjacent, "\n") {
		return ""
	}
	return "\n\n"
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

func collapseBlank(text string) string {
	return strings.TrimSpace(blankRunRe.ReplaceAllString(text, "\n\n"))
}
