package backlog

import "testing"

func TestHierarchyDepth(t *testing.T) {
	tests := []struct {
		typ  ItemType
		want int
	}{
		{TypeEpic, 0},
		{TypeStory, 1},
		{TypeTask, 2},
		{TypeBug, 2},
	}
	for _, tt := range tests {
		if got := HierarchyDepth(tt.typ); got != tt.want {
			t.Errorf("HierarchyDepth(%s) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestValidParent(t *testing.T) {
	types := []ItemType{TypeEpic, TypeStory, TypeTask, TypeBug}
	for _, child := range types {
		for _, parent := range types {
			want := HierarchyDepth(child) == HierarchyDepth(parent)+1
			if got := ValidParent(child, parent); got != want {
				t.Errorf("ValidParent(%s, %s) = %v, want %v", child, parent, got, want)
			}
		}
	}
}

func TestChildrenOf(t *testing.T) {
	story := int64(2)
	other := int64(3)
	nodes := []Node{
		{ID: 9, Type: TypeTask, ParentID: &story},
		{ID: 4, Type: TypeBug, ParentID: &story},
		{ID: 5, Type: TypeTask, ParentID: &other},
		{ID: 6, Type: TypeTask},
	}

	got := ChildrenOf(2, nodes)
	if len(got) != 2 {
		t.Fatalf("ChildrenOf() returned %d nodes, want 2", len(got))
	}
	if got[0].ID != 4 || got[1].ID != 9 {
		t.Errorf("ChildrenOf() ids = [%d %d], want [4 9]", got[0].ID, got[1].ID)
	}
}

func TestIsInSprint(t *testing.T) {
	sprint := int64(1)
	if IsInSprint(Node{ID: 1}) {
		t.Error("node without sprint reported as member")
	}
	if !IsInSprint(Node{ID: 1, SprintID: &sprint}) {
		t.Error("node with sprint not reported as member")
	}
}

func TestStatusSteps(t *testing.T) {
	tests := []struct {
		name   string
		from   Status
		review bool
		next   Status
		nextOK bool
		prev   Status
		prevOK bool
	}{
		{"backlog", StatusBacklog, true, StatusBacklog, false, StatusBacklog, false},
		{"todo", StatusTodo, true, StatusInProgress, true, StatusTodo, false},
		{"in progress with review", StatusInProgress, true, StatusReview, true, StatusTodo, true},
		{"in progress without review", StatusInProgress, false, StatusDone, true, StatusTodo, true},
		{"review", StatusReview, true, StatusDone, true, StatusInProgress, true},
		{"done with review", StatusDone, true, StatusDone, false, StatusReview, true},
		{"done without review", StatusDone, false, StatusDone, false, StatusInProgress, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextStatus(tt.from, tt.review)
			if next != tt.next || ok != tt.nextOK {
				t.Errorf("NextStatus(%s) = %s, %v; want %s, %v", tt.from, next, ok, tt.next, tt.nextOK)
			}
			prev, ok := PrevStatus(tt.from, tt.review)
			if prev != tt.prev || ok != tt.prevOK {
				t.Errorf("PrevStatus(%s) = %s, %v; want %s, %v", tt.from, prev, ok, tt.prev, tt.prevOK)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"todo", StatusTodo, false},
		{"In Progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"InProgress", StatusInProgress, false},
		{"DONE", StatusDone, false},
		{"blocked", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType("Story"); err != nil || got != TypeStory {
		t.Errorf("ParseType(Story) = %s, %v", got, err)
	}
	if _, err := ParseType("feature"); err == nil {
		t.Error("ParseType(feature) should fail")
	}
}
