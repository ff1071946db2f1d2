package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/burrow/internal/roster"
	"github.com/spf13/cobra"
)

var minionCmd = &cobra.Command{
	Use:   "minion",
	Short: "Manage the colony's minions",
}

var minionAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a minion",
	Args:  cobra.ExactArgs(1),
	RunE:  runMinionAdd,
}

var minionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List minions",
	RunE:  runMinionList,
}

var minionUpdateCmd = &cobra.Command{
	Use:   "update [minion-id]",
	Short: "Update a minion's status",
	Args:  cobra.ExactArgs(1),
	RunE:  runMinionUpdate,
}

var minionKillCmd = &cobra.Command{
	Use:   "kill [minion-id]",
	Short: "Report a minion's death",
	Args:  cobra.ExactArgs(1),
	RunE:  runMinionKill,
}

var (
	minionHealth    float64
	minionThreshold float64
	minionStamina   float64
	minionPosition  string
	minionFleeing   bool
	minionRecreate  bool
	minionFit       bool
)

func init() {
	minionCmd.AddCommand(minionAddCmd, minionListCmd, minionUpdateCmd, minionKillCmd)

	for _, c := range []*cobra.Command{minionAddCmd, minionUpdateCmd} {
		c.Flags().Float64Var(&minionHealth, "health", 100, "Current health")
		c.Flags().Float64Var(&minionThreshold, "escape-threshold", 20, "Health below which the minion flees")
		c.Flags().Float64Var(&minionStamina, "stamina", 100, "Current stamina")
		c.Flags().StringVar(&minionPosition, "position", "0,0,0", "Position as x,y,z")
	}
	minionUpdateCmd.Flags().BoolVar(&minionFleeing, "fleeing", false, "Whether the minion is fleeing")
	minionUpdateCmd.Flags().BoolVar(&minionRecreate, "recreating", false, "Whether the minion is off duty")
	minionUpdateCmd.Flags().BoolVar(&minionFit, "fit", true, "Whether the minion can complete tasks")
}

func runMinionAdd(cmd *cobra.Command, args []string) error {
	pos, err := parseVec(minionPosition)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"name":             args[0],
		"health":           minionHealth,
		"escape_threshold": minionThreshold,
		"stamina":          minionStamina,
		"position":         pos,
	}

	resp, err := apiPost("/minions", body)
	if err != nil {
		return err
	}

	var m roster.MinionView
	if err := json.Unmarshal(resp, &m); err != nil {
		return err
	}

	fmt.Printf("Registered minion %s: %s\n", m.Name, m.ID)
	return nil
}

func runMinionList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/minions")
	if err != nil {
		return err
	}

	var list []roster.MinionView
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No minions registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tHEALTH\tSTAMINA\tTASK")
	for _, m := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.0f\t%s\n",
			m.ID, m.Name, minionState(m), m.Status.Health, m.Status.Stamina, m.TaskID)
	}
	w.Flush()
	return nil
}

// runMinionUpdate sends only the flags that were set on the command line.
func runMinionUpdate(cmd *cobra.Command, args []string) error {
	var patch roster.StatusPatch
	flags := cmd.Flags()
	if flags.Changed("health") {
		patch.Health = &minionHealth
	}
	if flags.Changed("escape-threshold") {
		patch.EscapeThreshold = &minionThreshold
	}
	if flags.Changed("stamina") {
		patch.Stamina = &minionStamina
	}
	if flags.Changed("position") {
		pos, err := parseVec(minionPosition)
		if err != nil {
			return err
		}
		patch.Position = &pos
	}
	if flags.Changed("fleeing") {
		patch.Fleeing = &minionFleeing
	}
	if flags.Changed("recreating") {
		patch.Recreating = &minionRecreate
	}
	if flags.Changed("fit") {
		patch.CanCompleteTask = &minionFit
	}

	if _, err := apiPatch("/minions/"+args[0], patch); err != nil {
		return err
	}
	fmt.Printf("Updated minion %s\n", args[0])
	return nil
}

func runMinionKill(cmd *cobra.Command, args []string) error {
	if _, err := apiPost("/minions/"+args[0]+"/kill", nil); err != nil {
		return err
	}
	fmt.Printf("Minion %s is dead\n", args[0])
	return nil
}

func minionState(m roster.MinionView) string {
	switch {
	case !m.Alive:
		return "dead"
	case m.Status.Fleeing:
		return "fleeing"
	case m.Sleeping != nil:
		return "sleeping"
	case m.Status.Recreating:
		return "recreating"
	case m.Status.Idle:
		return "idle"
	default:
		return "working"
	}
}

// --- Beds ---

var bedCmd = &cobra.Command{
	Use:   "bed",
	Short: "Manage beds",
}

var bedAddCmd = &cobra.Command{
	Use:   "add [bed-id]",
	Short: "Add a bed",
	Args:  cobra.ExactArgs(1),
	RunE:  runBedAdd,
}

var bedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List beds and their occupants",
	RunE:  runBedList,
}

var bedStateCmd = &cobra.Command{
	Use:   "state [bed-id]",
	Short: "Set a bed's construction state",
	Args:  cobra.ExactArgs(1),
	RunE:  runBedState,
}

var bedDemolishCmd = &cobra.Command{
	Use:   "demolish [bed-id]",
	Short: "Demolish a bed and wake its sleepers",
	Args:  cobra.ExactArgs(1),
	RunE:  runBedDemolish,
}

var (
	bedLevels      int
	bedConstructed bool
	bedSabotaged   bool
)

func init() {
	bedCmd.AddCommand(bedAddCmd, bedListCmd, bedStateCmd, bedDemolishCmd)

	bedAddCmd.Flags().IntVar(&bedLevels, "levels", 1, "Number of sleepers the bed holds")
	for _, c := range []*cobra.Command{bedAddCmd, bedStateCmd} {
		c.Flags().BoolVar(&bedConstructed, "constructed", true, "Whether construction is finished")
	}
	bedStateCmd.Flags().BoolVar(&bedSabotaged, "sabotaged", false, "Whether the bed is sabotaged")
}

func runBedAdd(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"id":          args[0],
		"levels":      bedLevels,
		"constructed": bedConstructed,
	}
	if _, err := apiPost("/beds", body); err != nil {
		return err
	}
	fmt.Printf("Added bed %s\n", args[0])
	return nil
}

func runBedList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/beds")
	if err != nil {
		return err
	}

	var list []roster.BedView
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No beds found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLEVELS\tCONSTRUCTED\tSABOTAGED\tOCCUPANTS")
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%d\t%t\t%t\t%d\n", b.ID, b.Levels, b.Constructed, b.Sabotaged, len(b.Occupants))
	}
	w.Flush()
	return nil
}

func runBedState(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"constructed": bedConstructed,
		"sabotaged":   bedSabotaged,
	}
	if _, err := apiPatch("/beds/"+args[0], body); err != nil {
		return err
	}
	fmt.Printf("Updated bed %s\n", args[0])
	return nil
}

func runBedDemolish(cmd *cobra.Command, args []string) error {
	if _, err := apiPost("/beds/"+args[0]+"/demolish", nil); err != nil {
		return err
	}
	fmt.Printf("Demolished bed %s\n", args[0])
	return nil
}
