package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/AlexZinkM/seedvault/internal/common"
	"github.com/AlexZinkM/seedvault/internal/config"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				active, accounts, err := a.m.Accounts(ctx)
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts found.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "\tPOS\tNAME\tADDRESS\tINDEX\tBALANCE")
				for i, acc := range accounts {
					mark := ""
					if i == active {
						mark = "*"
					}
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\n",
						mark, i, acc.Name, acc.Address, acc.DerivationIndex, common.FormatAmount(acc.CachedBalance))
				}
				return w.Flush()
			})
		},
	}
}

// newAccountCmd is the root command for account management operations.
func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage derived accounts (add, rename, switch, delete)",
	}

	var name, icon string
	add := &cobra.Command{
		Use:   "add",
		Short: "Derive the next account from the master phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				password, err := config.PromptForPassword("Master password: ")
				if err != nil {
					return err
				}
				defer clear(password)

				s, err := a.m.Unlock(ctx, 0, password)
				if err != nil {
					return err
				}
				defer a.m.LockSession(s.Token)

				acc, err := a.m.CreateAccount(ctx, s.Token, password, name, icon)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %q %s\n", acc.Name, acc.Address)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "Account name")
	add.Flags().StringVar(&icon, "icon", "", "Icon type")

	rename := &cobra.Command{
		Use:   "rename <pos> <name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position: %w", err)
			}
			return withApp(func(ctx context.Context, a *app) error {
				return a.m.Rename(ctx, pos, args[1])
			})
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch <pos>",
		Short: "Make an account the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position: %w", err)
			}
			return withApp(func(ctx context.Context, a *app) error {
				return a.m.SwitchActive(ctx, pos)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <pos>",
		Short: "Delete a derived account and its vault record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position: %w", err)
			}
			return withApp(func(ctx context.Context, a *app) error {
				password, err := config.PromptForPassword("Master password: ")
				if err != nil {
					return err
				}
				defer clear(password)

				s, err := a.m.Unlock(ctx, 0, password)
				if err != nil {
					return err
				}
				defer a.m.LockSession(s.Token)

				acc, err := a.m.DeleteAccount(ctx, s.Token, pos, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q %s\n", acc.Name, acc.Address)
				return nil
			})
		},
	}

	cmd.AddCommand(add, rename, switchCmd, del)
	return cmd
}
