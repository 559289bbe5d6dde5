package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-service/internal/domain"
)

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

// testCategories is a three-level chain plus an unrelated root:
//
//	Electronics -> Phones -> Smartphones
//	Books
func testCategories() []domain.Category {
	return []domain.Category{
		{ID: 1, Name: "Electronics", Slug: "electronics"},
		{ID: 2, Name: "Phones", Slug: "phones", ParentID: PtrTo(int64(1))},
		{ID: 3, Name: "Smartphones", Slug: "smartphones", ParentID: PtrTo(int64(2))},
		{ID: 4, Name: "Books", Slug: "books"},
	}
}

func TestBuildTree(t *testing.T) {
	roots := BuildTree(testCategories())

	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].ID)
	assert.Equal(t, int64(4), roots[1].ID)

	// Full depth is embedded, not just two levels.
	require.Len(t, roots[0].Children, 1)
	phones := roots[0].Children[0]
	assert.Equal(t, int64(2), phones.ID)
	require.Len(t, phones.Children, 1)
	assert.Equal(t, int64(3), phones.Children[0].ID)
	assert.Empty(t, phones.Children[0].Children)

	assert.Empty(t, roots[1].Children)
}

func TestBuildTree_OrphanedParentBecomesRoot(t *testing.T) {
	categories := []domain.Category{
		{ID: 7, Name: "Dangling", Slug: "dangling", ParentID: PtrTo(int64(999))},
	}
	roots := BuildTree(categories)
	require.Len(t, roots, 1)
	assert.Equal(t, int64(7), roots[0].ID)
}

func TestDescendantIDs(t *testing.T) {
	categories := testCategories()

	assert.ElementsMatch(t, []int64{1, 2, 3}, DescendantIDs(categories, 1))
	assert.ElementsMatch(t, []int64{2, 3}, DescendantIDs(categories, 2))
	assert.Equal(t, []int64{3}, DescendantIDs(categories, 3), "a leaf is its own closure")
	assert.Equal(t, []int64{4}, DescendantIDs(categories, 4))
}

func TestDescendantIDs_TerminatesOnCorruptCycle(t *testing.T) {
	// The write-time guard should make this impossible; the visited set is
	// what keeps a corrupt snapshot from hanging the read path.
	categories := []domain.Category{
		{ID: 1, Name: "A", Slug: "a", ParentID: PtrTo(int64(2))},
		{ID: 2, Name: "B", Slug: "b", ParentID: PtrTo(int64(1))},
	}
	assert.ElementsMatch(t, []int64{1, 2}, DescendantIDs(categories, 1))
}

func TestBreadcrumb(t *testing.T) {
	crumbs, err := Breadcrumb(testCategories(), 3)
	require.NoError(t, err)

	require.Len(t, crumbs, 3)
	assert.Equal(t, "Electronics", crumbs[0].Name)
	assert.Equal(t, "Phones", crumbs[1].Name)
	assert.Equal(t, "Smartphones", crumbs[2].Name)
	assert.Equal(t, "smartphones", crumbs[2].Slug)
}

func TestBreadcrumb_Root(t *testing.T) {
	crumbs, err := Breadcrumb(testCategories(), 1)
	require.NoError(t, err)
	require.Len(t, crumbs, 1)
	assert.Equal(t, int64(1), crumbs[0].ID)
}

func TestBreadcrumb_UnknownCategory(t *testing.T) {
	_, err := Breadcrumb(testCategories(), 999)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestBreadcrumb_TerminatesOnCorruptCycle(t *testing.T) {
	categories := []domain.Category{
		{ID: 1, Name: "A", Slug: "a", ParentID: PtrTo(int64(2))},
		{ID: 2, Name: "B", Slug: "b", ParentID: PtrTo(int64(1))},
	}
	crumbs, err := Breadcrumb(categories, 1)
	require.NoError(t, err)
	assert.Len(t, crumbs, 2)
}

func TestWouldCreateCycle(t *testing.T) {
	categories := testCategories()

	assert.True(t, WouldCreateCycle(categories, 2, 2), "self-parenting")
	assert.True(t, WouldCreateCycle(categories, 1, 3), "re-parenting a root under its own descendant")
	assert.True(t, WouldCreateCycle(categories, 2, 3))
	assert.False(t, WouldCreateCycle(categories, 3, 1), "moving a leaf up the chain")
	assert.False(t, WouldCreateCycle(categories, 2, 4), "moving under an unrelated root")
}
