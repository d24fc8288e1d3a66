package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/lovetoday/internal/idea"
	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/push"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one push dispatch pass and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if !a.cfg.PushConfigured() {
				return fmt.Errorf("VAPID keys not set: run lovetoday vapid-keys")
			}
			res := a.dispatcher.RunOnce(cmd.Context(), time.Now())
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var vapidKeysCmd = &cobra.Command{
	Use:   "vapid-keys",
	Short: "Generate a VAPID key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "LOVETODAY_VAPID_PUBLIC_KEY=%s\n", pub)
		fmt.Fprintf(cmd.OutOrStdout(), "LOVETODAY_VAPID_PRIVATE_KEY=%s\n", priv)
		return nil
	},
}

var (
	ideaRecipient string
	ideaKid       string
	ideaDone      bool
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Print today's idea",
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient := model.Recipient(ideaRecipient)
		if !recipient.Valid() {
			return fmt.Errorf("unknown recipient %q", ideaRecipient)
		}
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			p, err := a.prefs.Load(ctx)
			if err != nil {
				return err
			}
			picked, err := a.selector.Select(p, recipient, ideaKid)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), idea.Render(picked, p, ideaKid))
			if p.FaithMode && picked.Faith != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", picked.Faith.Verse, picked.Faith.Ref)
			}

			if !ideaDone {
				return nil
			}
			if err := a.prefs.RecordShown(ctx, picked.ID); err != nil {
				return err
			}
			s, err := a.streaks.Tick(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "streak: %d (longest %d)\n", s.Current, s.Longest)
			return nil
		})
	},
}

func init() {
	ideaCmd.Flags().StringVarP(&ideaRecipient, "recipient", "r", string(model.RecipientSpouse), "spouse, kid, or family")
	ideaCmd.Flags().StringVarP(&ideaKid, "kid", "k", "", "kid id for kid ideas")
	ideaCmd.Flags().BoolVar(&ideaDone, "done", false, "mark the idea done and tick the streak")

	backupCmd.AddCommand(backupListCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload an encrypted snapshot of preferences and streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			key, err := a.backups.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			keys, err := a.backups.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [key]",
	Short: "Restore a snapshot (the newest when no key is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				keys, err := a.backups.List(ctx)
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					return fmt.Errorf("no snapshots found")
				}
				key = keys[0]
			}
			if err := a.backups.Restore(ctx, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", key)
			return nil
		})
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
