package dashboard

import (
	"sort"

	"go-dashboards/internal/features/widget"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// flattenSections orders the active sections of a dashboard roots first and
// depth first, each level stable sorted by Order. Sections under an inactive
// parent are hidden with it. A section whose parent does not exist is treated
// as a root.
func flattenSections(all []Section) []SectionView {
	byID := make(map[primitive.ObjectID]Section, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}

	children := make(map[primitive.ObjectID][]Section)
	var roots []Section
	for _, s := range all {
		if !s.Active {
			continue
		}
		if s.ParentSectionID != nil {
			if _, ok := byID[*s.ParentSectionID]; ok {
				children[*s.ParentSectionID] = append(children[*s.ParentSectionID], s)
				continue
			}
		}
		roots = append(roots, s)
	}

	byOrder := func(list []Section) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	}

	var out []SectionView
	visited := make(map[primitive.ObjectID]bool)
	var walk func(list []Section, depth int)
	walk = func(list []Section, depth int) {
		byOrder(list)
		for _, s := range list {
			if visited[s.ID] {
				continue
			}
			visited[s.ID] = true
			out = append(out, SectionView{Section: s, Depth: depth, Widgets: []widget.Widget{}})
			walk(children[s.ID], depth+1)
		}
	}
	walk(roots, 0)
	return out
}

// attachWidgets assigns active widgets to their sections, stable sorted by Order.
func attachWidgets(sections []SectionView, widgets []widget.Widget) {
	index := make(map[primitive.ObjectID]int, len(sections))
	for i, s := range sections {
		index[s.ID] = i
	}
	for _, w := range widgets {
		if !w.Active {
			continue
		}
		if i, ok := index[w.SectionID]; ok {
			sections[i].Widgets = append(sections[i].Widgets, w)
		}
	}
	for i := range sections {
		list := sections[i].Widgets
		sort.SliceStable(list, func(a, b int) bool { return list[a].Order < list[b].Order })
	}
}

func sectionIDs(sections []SectionView) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}

// subtree returns root and every descendant id.
func subtree(all []Section, root primitive.ObjectID) []primitive.ObjectID {
	children := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, s := range all {
		if s.ParentSectionID != nil {
			children[*s.ParentSectionID] = append(children[*s.ParentSectionID], s.ID)
		}
	}
	ids := []primitive.ObjectID{root}
	seen := map[primitive.ObjectID]bool{root: true}
	for i := 0; i < len(ids); i++ {
		for _, c := range children[ids[i]] {
			if !seen[c] {
				seen[c] = true
				ids = append(ids, c)
			}
		}
	}
	return ids
}
