package dashboard

import (
	"testing"

	"go-dashboards/internal/features/widget"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sec(key string, order int, parent *Section) Section {
	s := Section{ID: primitive.NewObjectID(), Key: key, Order: order, Active: true}
	if parent != nil {
		id := parent.ID
		s.ParentSectionID = &id
	}
	return s
}

func keys(views []SectionView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Key
	}
	return out
}

func TestFlattenSections_RootsFirstDepthFirst(t *testing.T) {
	a := sec("a", 2, nil)
	b := sec("b", 1, nil)
	a1 := sec("a1", 1, &a)
	a2 := sec("a2", 0, &a)
	b1 := sec("b1", 0, &b)

	views := flattenSections([]Section{a, a1, b, a2, b1})

	assert.Equal(t, []string{"b", "b1", "a", "a2", "a1"}, keys(views))
	assert.Equal(t, 0, views[0].Depth)
	assert.Equal(t, 1, views[1].Depth)
}

func TestFlattenSections_DuplicateOrderKeepsInputOrder(t *testing.T) {
	x := sec("x", 1, nil)
	y := sec("y", 1, nil)
	z := sec("z", 0, nil)

	assert.Equal(t, []string{"z", "x", "y"}, keys(flattenSections([]Section{x, y, z})))
}

func TestFlattenSections_InactiveHidesSubtree(t *testing.T) {
	root := sec("root", 0, nil)
	root.Active = false
	child := sec("child", 0, &root)
	other := sec("other", 1, nil)
	orphanParent := primitive.NewObjectID()
	orphan := sec("orphan", 2, nil)
	orphan.ParentSectionID = &orphanParent

	assert.Equal(t, []string{"other", "orphan"}, keys(flattenSections([]Section{root, child, other, orphan})))
}

func TestAttachWidgets(t *testing.T) {
	s1 := sec("s1", 0, nil)
	s2 := sec("s2", 1, nil)
	views := flattenSections([]Section{s1, s2})

	attachWidgets(views, []widget.Widget{
		{Key: "late", SectionID: s1.ID, Order: 5, Active: true},
		{Key: "early", SectionID: s1.ID, Order: 1, Active: true},
		{Key: "off", SectionID: s1.ID, Order: 0, Active: false},
		{Key: "stray", SectionID: primitive.NewObjectID(), Active: true},
	})

	assert.Len(t, views[0].Widgets, 2)
	assert.Equal(t, "early", views[0].Widgets[0].Key)
	assert.Equal(t, "late", views[0].Widgets[1].Key)
	assert.NotNil(t, views[1].Widgets)
	assert.Empty(t, views[1].Widgets)
}

func TestSubtree(t *testing.T) {
	a := sec("a", 0, nil)
	b := sec("b", 0, &a)
	c := sec("c", 0, &b)
	d := sec("d", 0, nil)

	ids := subtree([]Section{a, b, c, d}, a.ID)
	assert.ElementsMatch(t, []primitive.ObjectID{a.ID, b.ID, c.ID}, ids)
}

func TestRefreshSeconds(t *testing.T) {
	assert.Equal(t, 0, (&Dashboard{AutoRefresh: false, RefreshIntervalSeconds: 30}).RefreshSeconds(60))
	assert.Equal(t, 30, (&Dashboard{AutoRefresh: true, RefreshIntervalSeconds: 30}).RefreshSeconds(60))
	assert.Equal(t, 60, (&Dashboard{AutoRefresh: true}).RefreshSeconds(60))
	assert.Equal(t, 0, (&Dashboard{AutoRefresh: true}).RefreshSeconds(0))
}
