package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ceo-assistant/internal/client"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

var (
	taskTitle       string
	taskDescription string
	taskDate        string
	taskCategory    string
	taskPriority    string
	taskNotes       string
	taskCompleted   string
)

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksTodayCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	tasksCmd.AddCommand(tasksToggleCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)

	tasksListCmd.Flags().StringVar(&taskCategory, "category", "", "Filter by category: product, sales or marketing")
	tasksListCmd.Flags().StringVar(&taskCompleted, "completed", "", "Filter by completion: true or false")

	tasksTodayCmd.Flags().StringVar(&taskDate, "date", "", "Day to list (YYYY-MM-DD, defaults to today)")

	for _, c := range []*cobra.Command{tasksAddCmd, tasksUpdateCmd} {
		c.Flags().StringVar(&taskTitle, "title", "", "Task title")
		c.Flags().StringVar(&taskDescription, "description", "", "Task description")
		c.Flags().StringVar(&taskDate, "date", "", "Scheduled day (YYYY-MM-DD)")
		c.Flags().StringVar(&taskCategory, "category", "", "Category: product, sales or marketing")
		c.Flags().StringVar(&taskPriority, "priority", "", "Priority: low, medium or high")
		c.Flags().StringVar(&taskNotes, "notes", "", "Free-form notes")
	}
	_ = tasksAddCmd.MarkFlagRequired("title")
	_ = tasksAddCmd.MarkFlagRequired("description")
	_ = tasksAddCmd.MarkFlagRequired("category")
	tasksUpdateCmd.Flags().StringVar(&taskCompleted, "completed", "", "Set completion: true or false")
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
	Long: `Manage dated tasks.

Examples:
  # List open sales tasks
  ceoctl tasks list --category sales --completed false

  # Show today's tasks
  ceoctl tasks today

  # Add a task
  ceoctl tasks add --title "Prepare presentation" \
    --description "Create slides for the quarterly review" \
    --category sales --priority medium

  # Mark a task done
  ceoctl tasks toggle <task-id>`,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List tasks for a day",
	Args:  cobra.NoArgs,
	RunE:  runTasksToday,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a task",
	Args:  cobra.NoArgs,
	RunE:  runTasksAdd,
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update fields of a task",
	Long: `Update fields of a task. Only flags that are given are changed.

Examples:
  ceoctl tasks update <task-id> --priority high --notes "blocked on legal"`,
	Args: cobra.ExactArgs(1),
	RunE: runTasksUpdate,
}

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle <task-id>",
	Short: "Flip a task's completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksToggle,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

func runTasksList(cmd *cobra.Command, args []string) error {
	f := client.TaskFilter{Category: taskCategory}
	if taskCompleted != "" {
		b, err := strconv.ParseBool(taskCompleted)
		if err != nil {
			return fmt.Errorf("--completed must be true or false")
		}
		f.Completed = &b
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	tasks, err := c.ListTasks(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	return renderTasks(cmd, tasks)
}

func runTasksToday(cmd *cobra.Command, args []string) error {
	date := taskDate
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	tasks, err := c.TasksByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list tasks for %s: %w", date, err)
	}
	return renderTasks(cmd, tasks)
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	in := model.TaskInput{
		Title:       taskTitle,
		Description: taskDescription,
		Date:        taskDate,
		Category:    taskCategory,
		Priority:    taskPriority,
		Notes:       taskNotes,
	}
	if in.Priority == "" {
		in.Priority = string(model.PriorityMedium)
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	t, err := c.CreateTask(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return renderTasks(cmd, []model.Task{*t})
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	var p model.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		p.Title = &taskTitle
	}
	if flags.Changed("description") {
		p.Description = &taskDescription
	}
	if flags.Changed("date") {
		p.Date = &taskDate
	}
	if flags.Changed("category") {
		p.Category = &taskCategory
	}
	if flags.Changed("priority") {
		p.Priority = &taskPriority
	}
	if flags.Changed("notes") {
		p.Notes = &taskNotes
	}
	if flags.Changed("completed") {
		b, err := strconv.ParseBool(taskCompleted)
		if err != nil {
			return fmt.Errorf("--completed must be true or false")
		}
		p.Completed = &b
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	t, err := c.UpdateTask(ctx, args[0], p)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return renderTasks(cmd, []model.Task{*t})
}

func runTasksToggle(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	t, err := c.ToggleTask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	return renderTasks(cmd, []model.Task{*t})
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := c.DeleteTask(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return renderDeleted(cmd, "Task", args[0])
}

func renderTasks(cmd *cobra.Command, tasks []model.Task) error {
	return render(cmd, tasks, func(p *printer) {
		if len(tasks) == 0 {
			p.row("No tasks found")
			return
		}
		p.row("ID", "DATE", "TITLE", "CATEGORY", "PRIORITY", "DONE")
		for _, t := range tasks {
			p.row(t.ID, t.Date.Format(time.DateOnly), truncate(t.Title, 40), string(t.Category), string(t.Priority), yesNo(t.Completed))
		}
	})
}

func renderDeleted(cmd *cobra.Command, entity, id string) error {
	msg := client.Message{Message: entity + " deleted successfully"}
	return render(cmd, msg, func(p *printer) {
		p.row(fmt.Sprintf("%s %s deleted", entity, id))
	})
}
