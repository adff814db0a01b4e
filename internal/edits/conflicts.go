package edits

import (
	"strings"

	"github.com/longregen/gepa/internal/domain/models"
)

// ResolveConflicts detects overlapping and contradictory edits in a batch
// and selects one winner per group using the given strategy (empty means
// highest_impact). Losers are annotated with the ids of their group-mates,
// never removed, so a caller can still apply them in a dry-run or explain
// mode. Resolution always succeeds: every group gets exactly one winner.
func ResolveConflicts(batch []*models.PromptEdit, strategy models.ResolutionStrategy) ([]*models.PromptEdit, []models.ConflictGroup) {
	if strategy == "" {
		strategy = models.ResolveHighestImpact
	}

	groups := append(detectOverlapping(batch), detectContradictory(batch)...)

	for i := range groups {
		group := &groups[i]
		group.ResolutionStrategy = strategy
		group.SelectedEdit = selectWinner(group.Edits, strategy)
		group.Resolved = true

		for _, edit := range group.Edits {
			if edit == group.SelectedEdit {
				continue
			}
			for _, other := range group.Edits {
				if other != edit {
					edit.ConflictsWith = appendUnique(edit.ConflictsWith, other.ID)
				}
			}
		}
	}

	return batch, groups
}

// locationKey normalizes an edit's location into a grouping signature:
// within edits group by lowercased pattern, anchored edits by their
// marker, everything else by location type alone.
func locationKey(edit *models.PromptEdit) string {
	switch edit.Location.Type {
	case models.LocWithin:
		return "within:" + strings.ToLower(edit.Location.Pattern)
	case models.LocBefore, models.LocAfter:
		return "anchor:" + edit.Location.RelativeMarker
	default:
		return string(edit.Location.Type)
	}
}

func detectOverlapping(batch []*models.PromptEdit) []models.ConflictGroup {
	byKey := make(map[string][]*models.PromptEdit)
	var order []string
	for _, edit := range batch {
		key := locationKey(edit)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], edit)
	}

	var groups []models.ConflictGroup
	for _, key := range order {
		if edits := byKey[key]; len(edits) > 1 {
			groups = append(groups, models.ConflictGroup{
				Edits:        edits,
				ConflictType: models.ConflictOverlapping,
			})
		}
	}
	return groups
}

// detectContradictory pairs every insert against every delete whose text
// overlaps: inserting what another edit deletes cannot both be honored.
func detectContradictory(batch []*models.PromptEdit) []models.ConflictGroup {
	var groups []models.ConflictGroup
	for _, ins := range batch {
		if ins.Operation != models.OpInsert {
			continue
		}
		for _, del := range batch {
			if del.Operation != models.OpDelete {
				continue
			}
			if textsOverlap(ins.Content, del.TargetText) {
				groups = append(groups, models.ConflictGroup{
					Edits:        []*models.PromptEdit{ins, del},
					ConflictType: models.ConflictContradictory,
				})
			}
		}
	}
	return groups
}

func textsOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func selectWinner(group []*models.PromptEdit, strategy models.ResolutionStrategy) *models.PromptEdit {
	if len(group) == 0 {
		return nil
	}

	winner := group[0]
	switch strategy {
	case models.ResolveHighestPriority:
		for _, edit := range group[1:] {
			if edit.Priority.Rank() > winner.Priority.Rank() {
				winner = edit
			}
		}
	case models.ResolveFirst:
		// First element in group order.
	default: // highest_impact
		for _, edit := range group[1:] {
			if edit.ImpactScore > winner.ImpactScore {
				winner = edit
			}
		}
	}
	return winner
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
