package usecase

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirlaunch/internal/core/domain"
)

func dir(id int64, name string, tier, priority int) domain.Directory {
	return domain.Directory{
		ID:            id,
		Name:          name,
		Tier:          tier,
		RegionScope:   domain.RegionGlobal,
		PricingModel:  domain.PricingFree,
		DirectoryType: "saas",
		PriorityScore: priority,
		Active:        true,
	}
}

func names(dirs []domain.Directory) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, d.Name)
	}
	return out
}

// Selection orders by priority descending, tier ascending, name ascending,
// regardless of catalog row order.
func TestSelectOrdering(t *testing.T) {
	catalog := []domain.Directory{
		dir(1, "Charlie", 2, 80),
		dir(2, "Alpha", 1, 90),
		dir(3, "Bravo", 2, 90), // same priority as Alpha, worse tier
		dir(4, "Delta", 1, 90), // ties Alpha on priority and tier
		dir(5, "Echo", 3, 40),
	}
	filter := domain.SelectionFilter{}.WithDefaults()

	var selector DirectorySelector
	got := selector.Select(catalog, filter, nil, -1)
	assert.Equal(t, []string{"Alpha", "Delta", "Bravo", "Charlie", "Echo"}, names(got))
}

// Shuffled input yields the same selection every time.
func TestSelectDeterministic(t *testing.T) {
	catalog := make([]domain.Directory, 0, 40)
	for i := int64(1); i <= 40; i++ {
		catalog = append(catalog, dir(i, "Dir "+string(rune('A'+i%26)), int(i%3)+1, int(i%7)*10))
	}
	filter := domain.SelectionFilter{}.WithDefaults()

	var selector DirectorySelector
	baseline := selector.Select(catalog, filter, nil, 10)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffled := append([]domain.Directory(nil), catalog...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, baseline, selector.Select(shuffled, filter, nil, 10))
	}
}

func TestSelectExcludesAndCaps(t *testing.T) {
	catalog := []domain.Directory{
		dir(1, "Alpha", 1, 90),
		dir(2, "Bravo", 1, 80),
		dir(3, "Charlie", 1, 70),
		dir(4, "Delta", 1, 60),
	}
	filter := domain.SelectionFilter{}.WithDefaults()
	exclude := map[int64]struct{}{1: {}}

	var selector DirectorySelector
	got := selector.Select(catalog, filter, exclude, 2)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Bravo", "Charlie"}, names(got))
}

func TestSelectAppliesFilterClauses(t *testing.T) {
	paid := dir(1, "Paid", 1, 90)
	paid.PricingModel = "paid"

	inactive := dir(2, "Inactive", 1, 90)
	inactive.Active = false

	regional := dir(3, "Regional", 1, 90)
	regional.RegionScope = "de"

	phone := dir(4, "Phone", 1, 90)
	phone.RequiresPhone = true

	owned := dir(5, "Owned", 1, 90)
	owned.RequiresCustomerAccount = true

	deepTier := dir(6, "Deep", 4, 90)

	keeper := dir(7, "Keeper", 1, 50)

	catalog := []domain.Directory{paid, inactive, regional, phone, owned, deepTier, keeper}

	var selector DirectorySelector

	t.Run("defaults", func(t *testing.T) {
		got := selector.Select(catalog, domain.SelectionFilter{}.WithDefaults(), nil, -1)
		assert.Equal(t, []string{"Phone", "Keeper"}, names(got))
	})

	t.Run("phone never", func(t *testing.T) {
		filter := domain.SelectionFilter{PhonePolicy: domain.PhoneNever}.WithDefaults()
		got := selector.Select(catalog, filter, nil, -1)
		assert.Equal(t, []string{"Keeper"}, names(got))
	})

	t.Run("requested region admitted", func(t *testing.T) {
		filter := domain.SelectionFilter{Regions: []string{"de"}}.WithDefaults()
		got := selector.Select(catalog, filter, nil, -1)
		assert.Contains(t, names(got), "Regional")
	})

	t.Run("customer-owned opt-in", func(t *testing.T) {
		f := false
		filter := domain.SelectionFilter{ExcludeCustomerOwned: &f}.WithDefaults()
		got := selector.Select(catalog, filter, nil, -1)
		assert.Contains(t, names(got), "Owned")
	})

	t.Run("type restriction", func(t *testing.T) {
		filter := domain.SelectionFilter{DirectoryTypes: []string{"local"}}.WithDefaults()
		got := selector.Select(catalog, filter, nil, -1)
		assert.Empty(t, got)
	})
}
