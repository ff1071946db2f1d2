package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fentz26/burrow/internal/models"
	"github.com/spf13/cobra"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show the decision journal, newest first",
	RunE:  runDecisions,
}

var (
	decisionAction string
	decisionTask   string
	decisionLimit  int
)

func init() {
	decisionsCmd.Flags().StringVar(&decisionAction, "action", "", "Filter by action (e.g. task.assign, task.replace, enemy.report)")
	decisionsCmd.Flags().StringVar(&decisionTask, "task", "", "Filter by task ID")
	decisionsCmd.Flags().IntVar(&decisionLimit, "limit", 0, "Maximum number of entries")
}

func runDecisions(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if decisionAction != "" {
		q.Set("action", decisionAction)
	}
	if decisionTask != "" {
		q.Set("task_id", decisionTask)
	}
	if decisionLimit > 0 {
		q.Set("limit", strconv.Itoa(decisionLimit))
	}
	path := "/decisions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var list []models.Decision
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No decisions recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tTASK\tWORKER")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.Timestamp.Local().Format("15:04:05.000"), d.Action, d.Outcome, d.TaskID, d.WorkerID)
	}
	w.Flush()
	return nil
}
