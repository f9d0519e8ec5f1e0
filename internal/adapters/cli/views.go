package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/ports/primary"
	"github.com/example/taskly/internal/view"
)

const cardTitleWidth = 22

// RenderBoard draws the sprint board: one bordered column per status with
// cards grouped under their story, then the summary line.
func RenderBoard(w io.Writer, board view.Board) {
	if board.Sprint == nil {
		fmt.Fprintln(w, "No active sprint. Create one with `taskly sprint create <name>`.")
		return
	}
	sp := board.Sprint
	fmt.Fprintf(w, "%s  %s → %s\n", headerStyle.Render(sp.Name), sp.StartDate.Format(dateLayout), sp.EndDate.Format(dateLayout))
	if sp.Goal != "" {
		fmt.Fprintln(w, muted("Goal: "+sp.Goal))
	}

	rendered := make([]string, 0, len(board.Columns))
	for i, col := range board.Columns {
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%d)\n", strings.ToUpper(col.Status.Label()), len(col.Items))
		for _, lane := range board.Stories {
			cards := lane.Columns[i].Items
			if len(cards) == 0 {
				continue
			}
			fmt.Fprintf(&b, "▸ %s\n", truncate(lane.Story.Title, cardTitleWidth+2))
			for _, it := range cards {
				b.WriteString("  " + card(it) + "\n")
			}
		}
		for _, it := range board.Loose {
			if it.Status == col.Status {
				b.WriteString(card(it) + "\n")
			}
		}
		rendered = append(rendered, columnStyle.Render(strings.TrimRight(b.String(), "\n")))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	fmt.Fprintln(w, summaryLine(board))
}

func summaryLine(board view.Board) string {
	s := board.Summary
	parts := make([]string, 0, len(board.Columns))
	for _, col := range board.Columns {
		parts = append(parts, fmt.Sprintf("%s %d", col.Status.Label(), s.Counts[col.Status]))
	}
	return fmt.Sprintf("%d items · %s · %d/%d pts · %d%% complete",
		s.Total, strings.Join(parts, " · "), s.DonePoints, s.TotalPoints, s.PercentComplete)
}

func card(it *primary.BacklogItem) string {
	marker := "•"
	if it.Type == backlog.TypeBug {
		marker = typeColor(it.Type).Sprint("✗")
	}
	return fmt.Sprintf("%s #%d %s (%d)", marker, it.ID, truncate(it.Title, cardTitleWidth), it.StoryPoints)
}

// RenderArchive draws one card per archived sprint, newest first.
func RenderArchive(w io.Writer, cards []view.ArchiveCard) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No archived sprints")
		return
	}
	for _, c := range cards {
		var b strings.Builder
		fmt.Fprintf(&b, "%s  #%d  %s → %s\n", headerStyle.Render(c.Sprint.Name), c.Sprint.ID,
			c.Sprint.StartDate.Format(dateLayout), c.Sprint.EndDate.Format(dateLayout))
		if c.Sprint.Goal != "" {
			fmt.Fprintf(&b, "Goal: %s\n", c.Sprint.Goal)
		}
		fmt.Fprintf(&b, "Completed %d/%d items · %d/%d pts\n",
			c.CompletedItems, len(c.Items), c.CompletedPoints, c.TotalPoints)
		for _, it := range c.Items {
			fmt.Fprintf(&b, "  #%d %s %s %s\n", it.ID, typeBadge(it.Type), statusBadge(it.Status), it.Title)
		}
		fmt.Fprintln(w, cardStyle.Render(strings.TrimRight(b.String(), "\n")))
	}
}

// RenderPlanning draws the sprint members, the epic tree and the items
// available to add.
func RenderPlanning(w io.Writer, p view.Planning) {
	if p.Sprint == nil {
		fmt.Fprintln(w, "No active sprint. Create one with `taskly sprint create <name>`.")
	} else {
		fmt.Fprintf(w, "%s  (%d items)\n", headerStyle.Render(p.Sprint.Name), len(p.Members))
		for _, it := range p.Members {
			fmt.Fprintf(w, "  #%d %s %s %s\n", it.ID, typeBadge(it.Type), statusBadge(it.Status), it.Title)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, headerStyle.Render("BACKLOG"))
	RenderTree(w, p)

	if p.Sprint != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s (%d)\n", headerStyle.Render("AVAILABLE TO ADD"), len(p.Available))
		if len(p.Available) == 0 {
			fmt.Fprintln(w, muted("  nothing left to plan"))
		}
		for _, it := range p.Available {
			fmt.Fprintf(w, "  #%d %s %s (%d pts)\n", it.ID, typeBadge(it.Type), it.Title, it.StoryPoints)
		}
	}
}

// RenderTree draws epics with their stories and tasks, then orphan stories
// and parentless tasks and bugs.
func RenderTree(w io.Writer, p view.Planning) {
	for _, epic := range p.Epics {
		fmt.Fprintf(w, "%s #%d %s %s\n", typeBadge(epic.Epic.Type), epic.Epic.ID, epic.Epic.Title,
			muted(fmt.Sprintf("(%d stories)", epic.StoryCount())))
		for i, story := range epic.Stories {
			renderStory(w, story, "  ", i == len(epic.Stories)-1)
		}
	}
	if len(p.OrphanStories) > 0 {
		fmt.Fprintln(w, muted("No epic:"))
		for i, story := range p.OrphanStories {
			renderStory(w, story, "  ", i == len(p.OrphanStories)-1)
		}
	}
	if len(p.LooseItems) > 0 {
		fmt.Fprintln(w, muted("No story:"))
		for _, it := range p.LooseItems {
			fmt.Fprintf(w, "  %s #%d %s %s\n", typeBadge(it.Type), it.ID, statusBadge(it.Status), it.Title)
		}
	}
}

func renderStory(w io.Writer, story view.StoryNode, indent string, last bool) {
	branch, childIndent := "├─ ", indent+"│  "
	if last {
		branch, childIndent = "└─ ", indent+"   "
	}
	fmt.Fprintf(w, "%s%s%s #%d %s %s %s\n", indent, branch, typeBadge(story.Story.Type), story.Story.ID,
		statusBadge(story.Story.Status), story.Story.Title, muted(fmt.Sprintf("(%d tasks)", story.TaskCount())))
	for i, task := range story.Tasks {
		taskBranch := "├─ "
		if i == len(story.Tasks)-1 {
			taskBranch = "└─ "
		}
		fmt.Fprintf(w, "%s%s%s #%d %s %s\n", childIndent, taskBranch, typeBadge(task.Type), task.ID, statusBadge(task.Status), task.Title)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderFooter prints when the views on screen were last updated.
func RenderFooter(w io.Writer, at time.Time) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, muted("updated "+at.Format("15:04:05")+"  (ctrl-c to quit)"))
}
