package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/example/taskly/internal/core/backlog"
	"github.com/example/taskly/internal/ports/primary"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question on the terminal. It refuses to guess when
// stdin is not a terminal.
func confirm(title string) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, fmt.Errorf("%s: not a terminal; pass --yes to confirm", title)
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// itemForm fills a create request interactively. Fields already set in req
// are offered as defaults.
func itemForm(req *primary.CreateItemRequest) error {
	if !isTerminal(os.Stdin) {
		return fmt.Errorf("--interactive needs a terminal")
	}

	typ := string(req.Type)
	if typ == "" {
		typ = string(backlog.TypeStory)
	}
	points := strconv.Itoa(req.StoryPoints)
	parent := ""
	if req.ParentID != nil {
		parent = strconv.FormatInt(*req.ParentID, 10)
	}

	typeOptions := make([]huh.Option[string], 0, 4)
	for _, t := range []backlog.ItemType{backlog.TypeEpic, backlog.TypeStory, backlog.TypeTask, backlog.TypeBug} {
		typeOptions = append(typeOptions, huh.NewOption(t.Label(), string(t)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&req.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Type").
				Options(typeOptions...).
				Value(&typ),
			huh.NewText().
				Title("Description").
				Value(&req.Description),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Story points").
				Value(&points).
				Validate(validateNonNegative),
			huh.NewInput().
				Title("Parent ID (empty for none)").
				Value(&parent).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	req.Type = backlog.ItemType(typ)
	req.StoryPoints, _ = strconv.Atoi(strings.TrimSpace(points))
	req.ParentID = nil
	if p := strings.TrimSpace(parent); p != "" {
		id, _ := strconv.ParseInt(p, 10, 64)
		req.ParentID = &id
	}
	return nil
}

func validateNonNegative(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
