package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/AlexZinkM/seedvault/internal/config"

	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a new recovery phrase and store it as the master account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				password, err := config.PromptForNewPassword()
				if err != nil {
					return err
				}
				defer clear(password)

				acc, phrase, err := a.m.CreateWallet(ctx, password, name)
				if err != nil {
					return err
				}
				defer phrase.Wipe()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Address: %s\n\n", acc.Address)
				fmt.Fprintln(out, "Write down your recovery phrase. It will not be shown again:")
				fmt.Fprintf(out, "\n  %s\n\n", phrase.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Account name")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the master account from a recovery phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				phrase, err := config.PromptForPassword("Recovery phrase: ")
				if err != nil {
					return err
				}
				defer clear(phrase)

				password, err := config.PromptForNewPassword()
				if err != nil {
					return err
				}
				defer clear(password)

				acc, err := a.m.RestoreWallet(ctx, string(phrase), password, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", acc.Address)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Account name")
	return cmd
}

func newPasswdCmd() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				old, err := config.PromptForPassword("Current password: ")
				if err != nil {
					return err
				}
				defer clear(old)

				password, err := config.PromptForNewPassword()
				if err != nil {
					return err
				}
				defer clear(password)

				if err := a.m.ChangePassword(ctx, index, old, password); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Account position")
	return cmd
}

func newSignCmd() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "sign <hex-payload>",
		Short: "Sign a hex payload with an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("payload must be hex: %w", err)
			}
			return withApp(func(ctx context.Context, a *app) error {
				password, err := config.PromptForPassword("Password: ")
				if err != nil {
					return err
				}
				defer clear(password)

				s, err := a.m.Unlock(ctx, index, password)
				if err != nil {
					return err
				}
				defer a.m.LockSession(s.Token)

				sig, pub, err := a.m.Sign(ctx, s.Token, payload)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "signature:  %s\n", sig)
				fmt.Fprintf(out, "public key: %s\n", pub)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Account position")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <hex-payload> <signature> <public-key>",
		Short: "Verify a signature",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("payload must be hex: %w", err)
			}
			return withApp(func(ctx context.Context, a *app) error {
				if !a.m.Verify(payload, args[1], args[2]) {
					return fmt.Errorf("signature is not valid")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			})
		},
	}
}
