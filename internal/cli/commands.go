package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada/internal/app"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/ui"
)

func newAddCmd(r *runner) *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:     "add <description...>",
		Short:   "Add a todo (the description can be multiple words)",
		Example: `  todo add "Buy milk and bread"` + "\n" + `  todo add -p high Pay the rent`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePriority(priority)
			if err != nil {
				return usagef("add: %v", err)
			}
			t, err := r.app.Create(strings.Join(args, " "), p)
			if err != nil {
				return formError("add", err)
			}
			r.warnIfNotSaved(cmd)
			ui.OK(cmd.OutOrStdout(), "added "+shortID(t.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityLow), "priority: low, middle or high")
	return cmd
}

func newListCmd(r *runner) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			todos := r.app.Todos()
			t := ui.Current()

			counts := map[model.Priority]int{}
			for _, td := range todos {
				counts[td.Priority]++
			}
			header := fmt.Sprintf("%s  %s %d  %s %d  %s %d  %s %d",
				t.Title.Render("Todos"),
				t.High.Render("High"), counts[model.PriorityHigh],
				t.Middle.Render("Middle"), counts[model.PriorityMiddle],
				t.Low.Render("Low"), counts[model.PriorityLow],
				t.Accent.Render("Total"), len(todos),
			)

			lines := []string{header, ui.PriorityBar(todos, 28), ""}
			if group {
				lines = append(lines, groupLines(todos)...)
			} else {
				lines = append(lines, flatLines(todos, 1)...)
			}
			lines = append(lines, "", t.Muted.Render(`Tip: add with `+"`"+`todo add -p high "Pay the rent"`+"`"))
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by priority")
	return cmd
}

func newShowCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Show one todo (ref is an id, an id prefix or a list index)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := r.app.Resolve(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "id:          %s\n", t.ID)
			fmt.Fprintf(w, "description: %s\n", t.Description)
			fmt.Fprintf(w, "priority:    %s\n", t.Priority.Label())
			return nil
		},
	}
}

func newEditCmd(r *runner) *cobra.Command {
	var description, priority string
	cmd := &cobra.Command{
		Use:     "edit <ref>",
		Short:   "Change the description or priority of a todo",
		Example: `  todo edit 2 -p high` + "\n" + `  todo edit 3f2a -d "Buy oat milk"`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if !f.Changed("description") && !f.Changed("priority") {
				return usagef("edit: nothing to change, pass --description and/or --priority")
			}
			t, err := r.app.Resolve(args[0])
			if err != nil {
				return err
			}
			if f.Changed("description") {
				t.Description = description
			}
			if f.Changed("priority") {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return usagef("edit: %v", err)
				}
				t.Priority = p
			}
			_, ok, err := r.app.Update(t.ID, t.Description, t.Priority)
			if err != nil {
				return formError("edit", err)
			}
			if !ok {
				return fmt.Errorf("edit: %w: %q", app.ErrNotFound, t.ID)
			}
			r.warnIfNotSaved(cmd)
			ui.OK(cmd.OutOrStdout(), "edited "+shortID(t.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority: low, middle or high")
	return cmd
}

func newRemoveCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <ref>",
		Aliases: []string{"delete"},
		Short:   "Remove a todo",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if t, err := r.app.Resolve(args[0]); err == nil {
				id = t.ID
			}
			// Removing an unknown id is a no-op, not an error.
			if !r.app.DeleteTodo(id) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Current().Muted.Render("nothing to remove for "+id))
				return nil
			}
			r.warnIfNotSaved(cmd)
			ui.OK(cmd.OutOrStdout(), "removed "+shortID(id))
			return nil
		},
	}
}

func newExportCmd(r *runner) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print all todos as JSON or YAML",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTodos(cmd.OutOrStdout(), r.app.Todos(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func newPrioritiesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "priorities",
		Short: "List the valid priorities",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range model.Priorities() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", p, ui.Badge(p))
			}
			return nil
		},
	}
}

func newTUICmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive list (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runTUI(r.app)
		},
	}
}

// -------------- helpers --------------

func writeTodos(w io.Writer, todos []model.Todo, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(todos)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(todos); err != nil {
			return err
		}
		return enc.Close()
	default:
		return usagef("export: unknown format %q, must be json or yaml", format)
	}
}

// warnIfNotSaved tells the user when the last change only lives in memory.
func (r *runner) warnIfNotSaved(cmd *cobra.Command) {
	if err := r.app.Synchronizer().LastErr(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Current().Muted.Render("warning: change not saved: "+err.Error()))
	}
}

func formError(op string, err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return usagef("%s: %s", op, ve.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func flatLines(todos []model.Todo, start int) []string {
	if len(todos) == 0 {
		return []string{ui.Current().Muted.Render("no todos")}
	}
	out := make([]string, 0, len(todos))
	for i, t := range todos {
		idx := ui.Current().Muted.Render(fmt.Sprintf("%2d.", start+i))
		out = append(out, fmt.Sprintf("%s %s %s %s",
			idx, ui.Badge(t.Priority), ui.Truncate(t.Description, 60), ui.Current().Muted.Render(shortID(t.ID))))
	}
	return out
}

// groupLines lists high first. Indexes stay the list positions so they can
// be passed to show, edit and rm.
func groupLines(todos []model.Todo) []string {
	var lines []string
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMiddle, model.PriorityLow} {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, ui.Current().PriorityStyle(p).Render(p.Label()))
		n := 0
		for i, t := range todos {
			if t.Priority != p {
				continue
			}
			lines = append(lines, flatLines([]model.Todo{t}, i+1)...)
			n++
		}
		if n == 0 {
			lines = append(lines, ui.Current().Muted.Render("(none)"))
		}
	}
	return lines
}
