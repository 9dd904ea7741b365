package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"engage-engine/internal/engine"
	"engage-engine/internal/runlock"
)

var (
	runInstant    bool
	runNotifyOnly bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every active account once",
	Long: `Process every active Engage account once and exit.

With --instant only accounts marked for instant reaction are read, and new
applications are also pushed to the instant LINE group. --notify-only looks
back a single day and picks each account's IMAP host from its address.

An overlapping run of the same kind exits 0 with "already running".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := engine.Options{Instant: runInstant, NotifyOnly: runNotifyOnly}
		rt, err := prepare(profileName(opts), runInstant)
		if errors.Is(err, runlock.ErrLocked) {
			fmt.Fprintln(cmd.OutOrStdout(), "already running")
			return nil
		}
		if err != nil {
			return err
		}
		defer rt.Close()

		eng, err := engine.New(cmd.Context(), rt.cfg, rt.env, opts, nil, rt.log)
		if err != nil {
			return err
		}
		defer eng.Close()

		_, err = eng.RunOnce(cmd.Context())
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runInstant, "instant", false, "process instant-reaction accounts")
	runCmd.Flags().BoolVar(&runNotifyOnly, "notify-only", false, "one-day window with per-account IMAP hosts")
}

func profileName(o engine.Options) string {
	switch {
	case o.NotifyOnly && o.Instant:
		return "notify-instant"
	case o.NotifyOnly:
		return "notify"
	case o.Instant:
		return "instant"
	}
	return "normal"
}
