package view

import (
	"sort"

	"github.com/example/taskly/internal/core/backlog"
	coresprint "github.com/example/taskly/internal/core/sprint"
	"github.com/example/taskly/internal/ports/primary"
)

// StoryNode is a story with its child tasks and bugs.
type StoryNode struct {
	Story *primary.BacklogItem
	Tasks []*primary.BacklogItem
}

// TaskCount returns the number of child tasks and bugs.
func (n StoryNode) TaskCount() int { return len(n.Tasks) }

// EpicNode is an epic with its stories.
type EpicNode struct {
	Epic    *primary.BacklogItem
	Stories []StoryNode
}

// StoryCount returns the number of child stories.
func (n EpicNode) StoryCount() int { return len(n.Stories) }

// Planning is the backlog tree next to the active sprint.
type Planning struct {
	Sprint        *primary.Sprint
	Members       []*primary.BacklogItem
	Epics         []EpicNode
	OrphanStories []StoryNode
	LooseItems    []*primary.BacklogItem
	// Available lists what can be added to the active sprint: stories and
	// parentless tasks or bugs that are not already members.
	Available []*primary.BacklogItem
}

// BuildPlanning projects a snapshot onto the planning view.
func BuildPlanning(snap Snapshot) Planning {
	idx := newIndex(snap.Items)
	p := Planning{Sprint: snap.CurrentSprint}

	for _, item := range idx.sorted {
		switch {
		case item.Type == backlog.TypeEpic:
			epic := EpicNode{Epic: item}
			for _, story := range idx.children(item.ID) {
				if story.Type == backlog.TypeStory {
					epic.Stories = append(epic.Stories, idx.storyNode(story))
				}
			}
			p.Epics = append(p.Epics, epic)
		case item.Type == backlog.TypeStory && item.ParentID == nil:
			p.OrphanStories = append(p.OrphanStories, idx.storyNode(item))
		case item.Type.IsWorkItem() && item.ParentID == nil:
			p.LooseItems = append(p.LooseItems, item)
		}
	}

	if p.Sprint == nil {
		return p
	}
	p.Members = idx.members(p.Sprint)
	for _, item := range idx.sorted {
		directlyAddable := item.Type == backlog.TypeStory || (item.Type.IsWorkItem() && item.ParentID == nil)
		if directlyAddable && !coresprint.Contains(p.Sprint.ItemIDs, item.ID) {
			p.Available = append(p.Available, item)
		}
	}
	return p
}

// Column is one board lane.
type Column struct {
	Status backlog.Status
	Items  []*primary.BacklogItem
}

// StoryLane groups a member story's tasks by column.
type StoryLane struct {
	Story   *primary.BacklogItem
	Columns []Column
}

// BoardSummary aggregates the active sprint's tasks and bugs.
type BoardSummary struct {
	Total           int
	Counts          map[backlog.Status]int
	TotalPoints     int
	DonePoints      int
	PercentComplete int
}

// Board is the kanban view of the active sprint.
type Board struct {
	Sprint  *primary.Sprint
	Columns []Column
	Stories []StoryLane
	Loose   []*primary.BacklogItem
	Summary BoardSummary
}

// BoardStatuses returns the board columns in workflow order.
func BoardStatuses(reviewStage bool) []backlog.Status {
	if reviewStage {
		return []backlog.Status{backlog.StatusTodo, backlog.StatusInProgress, backlog.StatusReview, backlog.StatusDone}
	}
	return []backlog.Status{backlog.StatusTodo, backlog.StatusInProgress, backlog.StatusDone}
}

// BuildBoard projects a snapshot onto the board. Cards are the tasks and
// bugs of member stories plus directly added parentless tasks and bugs.
func BuildBoard(snap Snapshot, reviewStage bool) Board {
	board := Board{Sprint: snap.CurrentSprint, Summary: BoardSummary{Counts: map[backlog.Status]int{}}}
	statuses := BoardStatuses(reviewStage)
	if board.Sprint == nil {
		board.Columns = columns(statuses, nil)
		return board
	}

	idx := newIndex(snap.Items)
	var work []*primary.BacklogItem
	for _, member := range idx.members(board.Sprint) {
		switch {
		case member.Type == backlog.TypeStory:
			tasks := workItems(idx.children(member.ID))
			board.Stories = append(board.Stories, StoryLane{Story: member, Columns: columns(statuses, tasks)})
			work = append(work, tasks...)
		case member.Type.IsWorkItem():
			board.Loose = append(board.Loose, member)
			work = append(work, member)
		}
	}
	sortByID(work)
	board.Columns = columns(statuses, work)

	s := &board.Summary
	for _, item := range work {
		s.Total++
		s.Counts[item.Status]++
		s.TotalPoints += item.StoryPoints
		if item.Status == backlog.StatusDone {
			s.DonePoints += item.StoryPoints
		}
	}
	if s.TotalPoints > 0 {
		s.PercentComplete = s.DonePoints * 100 / s.TotalPoints
	}
	return board
}

// ArchiveCard summarizes one archived sprint.
type ArchiveCard struct {
	Sprint          *primary.Sprint
	Items           []*primary.BacklogItem
	CompletedItems  int
	CompletedPoints int
	TotalPoints     int
}

// BuildArchive returns archived sprints, newest first, with completion stats
// over their direct members.
func BuildArchive(snap Snapshot) []ArchiveCard {
	idx := newIndex(snap.Items)
	sprints := append([]*primary.Sprint(nil), snap.ArchivedSprints...)
	sort.Slice(sprints, func(i, j int) bool { return sprints[i].ID > sprints[j].ID })

	cards := make([]ArchiveCard, 0, len(sprints))
	for _, sp := range sprints {
		card := ArchiveCard{Sprint: sp, Items: idx.members(sp)}
		for _, item := range card.Items {
			card.TotalPoints += item.StoryPoints
			if item.Status == backlog.StatusDone {
				card.CompletedItems++
				card.CompletedPoints += item.StoryPoints
			}
		}
		cards = append(cards, card)
	}
	return cards
}

type index struct {
	sorted []*primary.BacklogItem
	byID   map[int64]*primary.BacklogItem
	nodes  []backlog.Node
}

func newIndex(items []*primary.BacklogItem) index {
	idx := index{
		sorted: append([]*primary.BacklogItem(nil), items...),
		byID:   make(map[int64]*primary.BacklogItem, len(items)),
		nodes:  make([]backlog.Node, 0, len(items)),
	}
	sortByID(idx.sorted)
	for _, item := range idx.sorted {
		idx.byID[item.ID] = item
		idx.nodes = append(idx.nodes, item.Node())
	}
	return idx
}

func (idx index) children(parentID int64) []*primary.BacklogItem {
	var out []*primary.BacklogItem
	for _, n := range backlog.ChildrenOf(parentID, idx.nodes) {
		out = append(out, idx.byID[n.ID])
	}
	return out
}

func (idx index) storyNode(story *primary.BacklogItem) StoryNode {
	return StoryNode{Story: story, Tasks: workItems(idx.children(story.ID))}
}

// members resolves a sprint's item set, skipping ids with no loaded item.
func (idx index) members(sp *primary.Sprint) []*primary.BacklogItem {
	var out []*primary.BacklogItem
	for _, id := range coresprint.NormalizeItemIDs(sp.ItemIDs) {
		if item, ok := idx.byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func workItems(items []*primary.BacklogItem) []*primary.BacklogItem {
	var out []*primary.BacklogItem
	for _, item := range items {
		if item.Type.IsWorkItem() {
			out = append(out, item)
		}
	}
	return out
}

func columns(statuses []backlog.Status, items []*primary.BacklogItem) []Column {
	cols := make([]Column, len(statuses))
	for i, status := range statuses {
		cols[i].Status = status
		for _, item := range items {
			if item.Status == status {
				cols[i].Items = append(cols[i].Items, item)
			}
		}
	}
	return cols
}

func sortByID(items []*primary.BacklogItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
