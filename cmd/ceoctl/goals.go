package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

func init() {
	rootCmd.AddCommand(newGoalCmd(model.Weekly))
	rootCmd.AddCommand(newGoalCmd(model.Daily))
}

// goalFlags holds the flag values of one goal command tree.
type goalFlags struct {
	title string
	date  string
}

// newGoalCmd builds "weekly" or "daily". The period subcommand is "week"
// or "day" respectively.
func newGoalCmd(cadence model.Cadence) *cobra.Command {
	var (
		f      goalFlags
		noun   = "weekly goal"
		period = "week"
	)
	if cadence == model.Daily {
		noun, period = "daily goal", "day"
	}

	root := &cobra.Command{
		Use:   string(cadence),
		Short: fmt.Sprintf("Manage %ss", noun),
		Long: fmt.Sprintf(`Manage %[1]ss.

Examples:
  # List %[1]ss for the current %[2]s
  ceoctl %[3]s %[2]s

  # Add a %[1]s
  ceoctl %[3]s add --title "Send follow-up emails"

  # Mark it done
  ceoctl %[3]s toggle <goal-id>`, noun, period, cadence),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List all %ss", noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			goals, err := c.ListGoals(ctx, cadence)
			if err != nil {
				return fmt.Errorf("failed to list %ss: %w", noun, err)
			}
			return renderGoals(cmd, goals)
		},
	}

	byPeriod := &cobra.Command{
		Use:   period + " [date]",
		Short: fmt.Sprintf("List %ss for the %s containing date (default today)", noun, period),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().Format(time.DateOnly)
			if len(args) == 1 {
				date = args[0]
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			goals, err := c.GoalsByDate(ctx, cadence, date)
			if err != nil {
				return fmt.Errorf("failed to list %ss for %s: %w", noun, date, err)
			}
			return renderGoals(cmd, goals)
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Create a %s", noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			g, err := c.CreateGoal(ctx, cadence, model.GoalInput{Title: f.title, Date: f.date})
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", noun, err)
			}
			return renderGoals(cmd, []model.Goal{*g})
		},
	}
	add.Flags().StringVar(&f.title, "title", "", "Goal title")
	add.Flags().StringVar(&f.date, "date", "", "Date (YYYY-MM-DD, defaults to today)")
	_ = add.MarkFlagRequired("title")

	toggle := &cobra.Command{
		Use:   "toggle <goal-id>",
		Short: fmt.Sprintf("Flip a %s's completion", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			g, err := c.ToggleGoal(ctx, cadence, args[0])
			if err != nil {
				return fmt.Errorf("failed to toggle %s: %w", noun, err)
			}
			return renderGoals(cmd, []model.Goal{*g})
		},
	}

	del := &cobra.Command{
		Use:   "delete <goal-id>",
		Short: fmt.Sprintf("Delete a %s", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := c.DeleteGoal(ctx, cadence, args[0]); err != nil {
				return fmt.Errorf("failed to delete %s: %w", noun, err)
			}
			entity := "Weekly goal"
			if cadence == model.Daily {
				entity = "Daily goal"
			}
			return renderDeleted(cmd, entity, args[0])
		},
	}

	root.AddCommand(list, byPeriod, add, toggle, del)
	return root
}

func renderGoals(cmd *cobra.Command, goals []model.Goal) error {
	return render(cmd, goals, func(p *printer) {
		if len(goals) == 0 {
			p.row("No goals found")
			return
		}
		p.row("ID", "DATE", "TITLE", "DONE")
		for _, g := range goals {
			p.row(g.ID, g.Date.Format(time.DateOnly), truncate(g.Title, 50), yesNo(g.Completed))
		}
	})
}
