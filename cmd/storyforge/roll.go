package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyforge/internal/dice"
)

func rollCmd() *cobra.Command {
	var modifier int
	var target int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "roll <die>",
		Short: "Roll a skill check such as d20 or 2d6",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var t *int
			if cmd.Flags().Changed("target") {
				t = dice.Target(target)
			}
			if !cmd.Flags().Changed("seed") {
				var err error
				if seed, err = dice.NewSeed(); err != nil {
					return err
				}
			}
			return runRoll(args[0], modifier, t, seed)
		},
	}
	cmd.Flags().IntVar(&modifier, "mod", 0, "Modifier added to the dice total")
	cmd.Flags().IntVar(&target, "target", 0, "Total needed to pass")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible roll")
	return cmd
}

func runRoll(die string, modifier int, target *int, seed uint64) error {
	result, err := dice.Roll(dice.NewSource(seed), die, modifier, target)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s %v %+d = %d\n", result.Die, result.Rolls, result.Modifier, result.Total)
	switch {
	case result.CriticalSuccess:
		fmt.Fprintln(os.Stdout, "Critical success!")
	case result.CriticalFailure:
		fmt.Fprintln(os.Stdout, "Critical failure!")
	}
	if result.Target != nil {
		outcome := "Failed"
		if result.Passed() {
			outcome = "Passed"
		}
		fmt.Fprintf(os.Stdout, "%s against %d.\n", outcome, *result.Target)
	}
	return nil
}
