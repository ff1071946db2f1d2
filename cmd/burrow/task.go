package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/burrow/internal/models"
	"github.com/fentz26/burrow/internal/scheduler"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a generic task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComplete,
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel [task-id]",
	Short: "Cancel a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCancel,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show scheduler counters",
	RunE:  runStats,
}

var (
	taskPriority  string
	taskExecutors int
	taskFatigue   float64
	taskTarget    string
	taskState     string
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskCompleteCmd, taskCancelCmd)

	taskAddCmd.Flags().StringVar(&taskPriority, "priority", "low", "Task priority (low, medium, high, critical)")
	taskAddCmd.Flags().IntVar(&taskExecutors, "executors", 1, "Maximum number of executors")
	taskAddCmd.Flags().Float64Var(&taskFatigue, "fatigue", 0, "Stamina a worker needs to take the task")
	taskAddCmd.Flags().StringVar(&taskTarget, "target", "0,0,0", "Task location as x,y,z")

	taskListCmd.Flags().StringVar(&taskState, "state", "", "Filter by state (pending, active)")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	target, err := parseVec(taskTarget)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"priority":       taskPriority,
		"max_executors":  taskExecutors,
		"fatigue_points": taskFatigue,
		"target":         target,
	}

	resp, err := apiPost("/tasks", body)
	if err != nil {
		return err
	}

	var task scheduler.TaskView
	if err := json.Unmarshal(resp, &task); err != nil {
		return err
	}

	fmt.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	url := "/tasks"
	if taskState != "" {
		url += "?state=" + taskState
	}

	resp, err := apiGet(url)
	if err != nil {
		return err
	}

	var list []scheduler.TaskView
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPRIORITY\tSTATE\tEXECUTORS")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\n",
			t.ID, t.Kind, t.Priority, t.State, filled(t.Executors), t.MaxExecutors)
	}
	w.Flush()
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/tasks/" + args[0])
	if err != nil {
		return err
	}

	var t scheduler.TaskView
	if err := json.Unmarshal(resp, &t); err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", t.ID)
	fmt.Printf("Kind:      %s\n", t.Kind)
	fmt.Printf("Priority:  %s\n", t.Priority)
	fmt.Printf("State:     %s\n", t.State)
	fmt.Printf("Target:    %s\n", formatVec(t.Target))
	fmt.Printf("Fatigue:   %.1f\n", t.FatiguePoints)
	fmt.Printf("Executors: %d/%d\n", filled(t.Executors), t.MaxExecutors)
	for i, id := range t.Executors {
		if id == "" {
			id = "(vacant)"
		}
		fmt.Printf("  [%d] %s\n", i, id)
	}
	if len(t.Engaged) > 0 {
		fmt.Printf("Engaged:   %s\n", strings.Join(t.Engaged, ", "))
	}
	fmt.Printf("Created:   %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	if _, err := apiPost("/tasks/"+args[0]+"/complete", nil); err != nil {
		return err
	}
	fmt.Printf("Completed task %s\n", args[0])
	return nil
}

func runTaskCancel(cmd *cobra.Command, args []string) error {
	if _, err := apiPost("/tasks/"+args[0]+"/cancel", nil); err != nil {
		return err
	}
	fmt.Printf("Cancelled task %s\n", args[0])
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/scheduler/stats")
	if err != nil {
		return err
	}

	var st scheduler.Stats
	if err := json.Unmarshal(resp, &st); err != nil {
		return err
	}

	fmt.Printf("State:             %s\n", st.State)
	fmt.Printf("Absolute priority: %s\n", st.AbsolutePriority)
	fmt.Printf("Pending:           %d\n", st.Pending)
	fmt.Printf("Active:            %d\n", st.Active)
	fmt.Printf("Assigned:          %d\n", st.Assigned)
	fmt.Printf("Replaced:          %d\n", st.Replaced)
	fmt.Printf("Preempted:         %d\n", st.Preempted)
	return nil
}

// --- Helpers ---

// parseVec reads "x,y,z". Missing trailing components are zero.
func parseVec(s string) (models.Vec3, error) {
	var v models.Vec3
	if strings.TrimSpace(s) == "" {
		return v, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return v, fmt.Errorf("invalid position %q: want x,y,z", s)
	}
	dst := []*float64{&v.X, &v.Y, &v.Z}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v, fmt.Errorf("invalid position %q: %w", s, err)
		}
		*dst[i] = f
	}
	return v, nil
}

func formatVec(v models.Vec3) string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}

func filled(slots []string) int {
	n := 0
	for _, id := range slots {
		if id != "" {
			n++
		}
	}
	return n
}
