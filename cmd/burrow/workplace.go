package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/burrow/internal/workplace"
	"github.com/spf13/cobra"
)

var workplaceCmd = &cobra.Command{
	Use:   "workplace",
	Short: "Manage workplaces",
}

var workplaceAddCmd = &cobra.Command{
	Use:   "add [workplace-id]",
	Short: "Add a workplace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkplaceAdd,
}

var workplaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workplaces and who staffs them",
	RunE:  runWorkplaceList,
}

var workplaceStateCmd = &cobra.Command{
	Use:   "state [workplace-id]",
	Short: "Set a workplace's construction state",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkplaceState,
}

var workplaceDemolishCmd = &cobra.Command{
	Use:   "demolish [workplace-id]",
	Short: "Demolish a workplace and cancel its shift",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkplaceDemolish,
}

var (
	workplacePosition    string
	workplaceConstructed bool
	workplaceSabotaged   bool
)

func init() {
	workplaceCmd.AddCommand(workplaceAddCmd, workplaceListCmd, workplaceStateCmd, workplaceDemolishCmd)

	workplaceAddCmd.Flags().StringVar(&workplacePosition, "position", "0,0,0", "Position as x,y,z")
	for _, c := range []*cobra.Command{workplaceAddCmd, workplaceStateCmd} {
		c.Flags().BoolVar(&workplaceConstructed, "constructed", true, "Whether construction is finished")
	}
	workplaceStateCmd.Flags().BoolVar(&workplaceSabotaged, "sabotaged", false, "Whether the workplace is sabotaged")
}

func runWorkplaceAdd(cmd *cobra.Command, args []string) error {
	pos, err := parseVec(workplacePosition)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"id":          args[0],
		"position":    pos,
		"constructed": workplaceConstructed,
	}
	if _, err := apiPost("/workplaces", body); err != nil {
		return err
	}
	fmt.Printf("Added workplace %s\n", args[0])
	return nil
}

func runWorkplaceList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/workplaces")
	if err != nil {
		return err
	}

	var list []workplace.View
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No workplaces found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOSITION\tUSABLE\tWORKER\tTASK\tIDLE FOR")
	for _, wp := range list {
		usable := wp.Constructed && !wp.Sabotaged
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
			wp.ID, formatVec(wp.Position), usable, wp.WorkerID, wp.TaskID, wp.StopWorkingTimer)
	}
	w.Flush()
	return nil
}

func runWorkplaceState(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"constructed": workplaceConstructed,
		"sabotaged":   workplaceSabotaged,
	}
	if _, err := apiPatch("/workplaces/"+args[0], body); err != nil {
		return err
	}
	fmt.Printf("Updated workplace %s\n", args[0])
	return nil
}

func runWorkplaceDemolish(cmd *cobra.Command, args []string) error {
	if _, err := apiPost("/workplaces/"+args[0]+"/demolish", nil); err != nil {
		return err
	}
	fmt.Printf("Demolished workplace %s\n", args[0])
	return nil
}
