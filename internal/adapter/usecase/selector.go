package usecase

import (
	"cmp"
	"slices"

	"dirlaunch/internal/core/domain"
)

// DirectorySelector applies a selection filter over catalog rows and
// produces a deterministically ordered candidate list. Ordering is
// priority score descending, then tier ascending, then name ascending, so
// two selections against an unchanged catalog and exclusion set always
// agree.
type DirectorySelector struct{}

// Select filters dirs, drops directories the user already holds a
// submission for, orders the rest and caps the result at limit. The
// filter must already have defaults applied.
func (DirectorySelector) Select(dirs []domain.Directory, f domain.SelectionFilter, exclude map[int64]struct{}, limit int) []domain.Directory {
	selected := make([]domain.Directory, 0, len(dirs))
	for _, d := range dirs {
		if _, done := exclude[d.ID]; done {
			continue
		}
		if f.Matches(d) {
			selected = append(selected, d)
		}
	}
	slices.SortFunc(selected, func(a, b domain.Directory) int {
		if c := cmp.Compare(b.PriorityScore, a.PriorityScore); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Tier, b.Tier); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if limit >= 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
