package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storyforge/internal/store"
)

func savesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Inspect and manage saved playthroughs",
	}
	cmd.AddCommand(savesListCmd())
	cmd.AddCommand(savesShowCmd())
	cmd.AddCommand(savesDeleteCmd())
	return cmd
}

func savesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List save slots, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSavesList,
	}
}

func savesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slot>",
		Short: "Print the snapshot stored in a slot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSavesShow,
	}
}

func savesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSavesDelete,
	}
}

func openProjectStore(ctx context.Context) (store.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(ctx, storageDSN(cfg))
}

func runSavesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openProjectStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	saves, err := db.ListSaves(ctx)
	if err != nil {
		return err
	}
	if len(saves) == 0 {
		fmt.Fprintln(os.Stdout, "No saves found.")
		return nil
	}

	for _, s := range saves {
		fmt.Fprintf(os.Stdout, "%s  %s  level %d at %s\n", s.Slot, s.SavedAt.Local().Format(time.DateTime), s.Level, s.Location)
	}
	return nil
}

func runSavesShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openProjectStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	rec, err := db.LoadSnapshot(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no save in slot %s", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Slot:        %s\n", rec.Slot)
	fmt.Fprintf(os.Stdout, "Playthrough: %s\n", rec.Playthrough)
	fmt.Fprintf(os.Stdout, "Saved at:    %s\n", rec.SavedAt.Local().Format(time.DateTime))
	fmt.Fprintf(os.Stdout, "Content:     %s\n", rec.ContentDigest)
	fmt.Fprintln(os.Stdout, "")
	fmt.Fprint(os.Stdout, string(rec.Data))
	return nil
}

func runSavesDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openProjectStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.DeleteSave(ctx, args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no save in slot %s", args[0])
		}
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %s.\n", args[0])
	return nil
}
