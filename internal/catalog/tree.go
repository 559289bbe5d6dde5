// Package catalog implements the category resolver: tree assembly, descendant
// closure, and breadcrumb traversal. All functions operate on a snapshot of
// category rows keyed by id, never on live object graphs, so the write-time
// acyclicity check is the only thing standing between these walks and an
// infinite loop; each walk still carries its own visited set as a guard.
package catalog

import (
	"errors"

	"ecommerce-service/internal/domain"
)

// ErrCategoryNotFound is returned when a traversal is asked to start from a
// category id that is not present in the snapshot.
var ErrCategoryNotFound = errors.New("catalog: category not found")

// Node is a category with its children embedded. The tree is built to the full
// stored depth; there is no nesting limit.
type Node struct {
	domain.Category
	Children []*Node `json:"children"`
}

// Crumb is one step of a breadcrumb: just enough of a category to render a
// navigation link.
type Crumb struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BuildTree assembles the nested category tree from a flat snapshot. Roots are
// categories with no parent; a category whose parent id does not resolve is
// treated as a root rather than dropped. Input order is preserved at every
// level, so a name-sorted snapshot yields a name-sorted tree.
func BuildTree(categories []domain.Category) []*Node {
	nodes := make(map[int64]*Node, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &Node{Category: categories[i], Children: []*Node{}}
	}

	roots := make([]*Node, 0)
	for i := range categories {
		node := nodes[categories[i].ID]
		if p := categories[i].ParentID; p != nil {
			if parent, ok := nodes[*p]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// DescendantIDs returns rootID plus every category id reachable by following
// child links transitively. The walk is an iterative breadth-first traversal
// with a visited set, so it terminates on any input shape and never recurses
// on the call stack.
func DescendantIDs(categories []domain.Category, rootID int64) []int64 {
	children := make(map[int64][]int64, len(categories))
	for i := range categories {
		if p := categories[i].ParentID; p != nil {
			children[*p] = append(children[*p], categories[i].ID)
		}
	}

	ids := []int64{rootID}
	visited := map[int64]bool{rootID: true}
	for queue := []int64{rootID}; len(queue) > 0; {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			visited[child] = true
			ids = append(ids, child)
			queue = append(queue, child)
		}
	}
	return ids
}

// Breadcrumb walks the parent chain from startID upward and returns the path
// ordered root-first, ending at the start category itself. Returns
// ErrCategoryNotFound if startID is absent from the snapshot.
func Breadcrumb(categories []domain.Category, startID int64) ([]Crumb, error) {
	byID := make(map[int64]*domain.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	current, ok := byID[startID]
	if !ok {
		return nil, ErrCategoryNotFound
	}

	crumbs := make([]Crumb, 0, 4)
	visited := make(map[int64]bool)
	for current != nil && !visited[current.ID] {
		visited[current.ID] = true
		crumbs = append(crumbs, Crumb{ID: current.ID, Name: current.Name, Slug: current.Slug})
		if current.ParentID == nil {
			break
		}
		current = byID[*current.ParentID]
	}

	// Collected leaf-first; reverse so the path reads root-first.
	for i, j := 0, len(crumbs)-1; i < j; i, j = i+1, j-1 {
		crumbs[i], crumbs[j] = crumbs[j], crumbs[i]
	}
	return crumbs, nil
}

// WouldCreateCycle reports whether re-parenting category id under newParentID
// would make the category its own ancestor. Used as the write-time guard that
// keeps the stored tree acyclic.
func WouldCreateCycle(categories []domain.Category, id, newParentID int64) bool {
	if id == newParentID {
		return true
	}
	parents := make(map[int64]*int64, len(categories))
	for i := range categories {
		parents[categories[i].ID] = categories[i].ParentID
	}

	visited := make(map[int64]bool)
	for current := &newParentID; current != nil && !visited[*current]; {
		if *current == id {
			return true
		}
		visited[*current] = true
		next, ok := parents[*current]
		if !ok {
			break
		}
		current = next
	}
	return false
}
