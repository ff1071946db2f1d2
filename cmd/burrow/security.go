package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/burrow/internal/controlplane"
	"github.com/fentz26/burrow/internal/security"
	"github.com/spf13/cobra"
)

var enemyCmd = &cobra.Command{
	Use:   "enemy",
	Short: "Report and track hostiles",
}

var enemyReportCmd = &cobra.Command{
	Use:   "report [enemy-id]",
	Short: "Report a hostile and raise an elimination task",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnemyReport,
}

var enemyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked hostiles",
	RunE:  runEnemyList,
}

var enemyKillCmd = &cobra.Command{
	Use:   "kill [enemy-id]",
	Short: "Report a hostile killed",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnemyKill,
}

var enemyPosition string

func init() {
	enemyCmd.AddCommand(enemyReportCmd, enemyListCmd, enemyKillCmd)
	enemyReportCmd.Flags().StringVar(&enemyPosition, "position", "0,0,0", "Position as x,y,z")
}

func runEnemyReport(cmd *cobra.Command, args []string) error {
	pos, err := parseVec(enemyPosition)
	if err != nil {
		return err
	}

	resp, err := apiPost("/enemies", map[string]interface{}{"id": args[0], "position": pos})
	if err != nil {
		return err
	}

	var result controlplane.ReportEnemyResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	if result.Created {
		fmt.Printf("Raised elimination task %s\n", result.TaskID)
	} else {
		fmt.Printf("Hostile %s already tracked by task %s\n", args[0], result.TaskID)
	}
	return nil
}

func runEnemyList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/enemies")
	if err != nil {
		return err
	}

	var list []security.EnemyView
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No hostiles tracked")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOSITION\tTASK\tENGAGED")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, formatVec(e.Position), e.TaskID, strings.Join(e.Engaged, ","))
	}
	w.Flush()
	return nil
}

func runEnemyKill(cmd *cobra.Command, args []string) error {
	if _, err := apiPost("/enemies/"+args[0]+"/kill", nil); err != nil {
		return err
	}
	fmt.Printf("Hostile %s killed\n", args[0])
	return nil
}

// --- Entrances ---

var entranceCmd = &cobra.Command{
	Use:   "entrance",
	Short: "Manage guarded entrances",
}

var entranceAddCmd = &cobra.Command{
	Use:   "add [entrance-id]",
	Short: "Add an entrance",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntranceAdd,
}

var entranceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entrances",
	RunE:  runEntranceList,
}

var entranceRemoveCmd = &cobra.Command{
	Use:   "remove [entrance-id]",
	Short: "Remove an entrance",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntranceRemove,
}

var entranceDelayMS int

func init() {
	entranceCmd.AddCommand(entranceAddCmd, entranceListCmd, entranceRemoveCmd)
	entranceAddCmd.Flags().IntVar(&entranceDelayMS, "open-delay", 0, "Milliseconds the doors stay open for a pass (0 uses the default)")
}

func runEntranceAdd(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"id":            args[0],
		"open_delay_ms": entranceDelayMS,
	}
	if _, err := apiPost("/entrances", body); err != nil {
		return err
	}
	fmt.Printf("Added entrance %s\n", args[0])
	return nil
}

func runEntranceList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/entrances")
	if err != nil {
		return err
	}

	var list []security.EntranceView
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No entrances found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPEN DELAY\tDOORS")
	for _, e := range list {
		doors := "closed"
		if e.DoorsOpen {
			doors = "open"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.OpenDelay, doors)
	}
	w.Flush()
	return nil
}

func runEntranceRemove(cmd *cobra.Command, args []string) error {
	if _, err := apiDelete("/entrances/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed entrance %s\n", args[0])
	return nil
}

// --- Passes ---

var passCmd = &cobra.Command{
	Use:   "pass [applicant] [entrance-id]",
	Short: "Apply for passage through an entrance and wait for the decision",
	Args:  cobra.ExactArgs(2),
	RunE:  runPass,
}

func runPass(cmd *cobra.Command, args []string) error {
	body := map[string]string{
		"applicant":   args[0],
		"entrance_id": args[1],
	}

	resp, err := apiPost("/passes", body)
	if err != nil {
		return err
	}

	var d security.Decision
	if err := json.Unmarshal(resp, &d); err != nil {
		return err
	}

	if d.Approved {
		fmt.Printf("Pass approved for %s at %s\n", d.Applicant, d.EntranceID)
	} else {
		fmt.Printf("Pass denied for %s at %s\n", d.Applicant, d.EntranceID)
	}
	return nil
}
