package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/isow/backend/internal/domain/account"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/spf13/cobra"
)

func newAccountsCmd(be func() backend) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage password sign-in accounts",
	}
	cmd.AddCommand(
		newAccountsAddCmd(be),
		newAccountsListCmd(be),
		newAccountsPasswdCmd(be),
		newAccountsRemoveCmd(be),
	)
	return cmd
}

func newAccountsAddCmd(be func() backend) *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := be().Accounts(cmd.Context())
			if err != nil {
				return err
			}
			if name == "" {
				name = account.NameFromEmail(args[0])
			}
			a, err := account.NewAccount(args[0], name, password)
			if err != nil {
				return err
			}
			exists, err := repo.ExistsByEmail(cmd.Context(), a.Email)
			if err != nil {
				return err
			}
			if exists {
				return exitError{code: 2, err: fmt.Errorf("account %s already exists", a.Email)}
			}
			if err := repo.Create(cmd.Context(), a); err != nil {
				return err
			}
			cmd.Printf("created %s (%s)\n", a.Email, a.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name, defaults to the part of the email before @")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountsListCmd(be func() backend) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := be().Accounts(cmd.Context())
			if err != nil {
				return err
			}
			accounts, err := repo.FindAll(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tCREATED")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Email, a.DisplayName, a.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func newAccountsPasswdCmd(be func() backend) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd EMAIL",
		Short: "Replace an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := be().Accounts(cmd.Context())
			if err != nil {
				return err
			}
			a, err := findAccount(cmd, repo, args[0])
			if err != nil {
				return err
			}
			if err := a.SetPassword(password); err != nil {
				return err
			}
			if err := repo.Update(cmd.Context(), a); err != nil {
				return err
			}
			cmd.Printf("password updated for %s\n", a.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountsRemoveCmd(be func() backend) *cobra.Command {
	return &cobra.Command{
		Use:   "remove EMAIL",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := be().Accounts(cmd.Context())
			if err != nil {
				return err
			}
			a, err := findAccount(cmd, repo, args[0])
			if err != nil {
				return err
			}
			if err := repo.Delete(cmd.Context(), a.ID); err != nil {
				return err
			}
			cmd.Printf("removed %s\n", a.Email)
			return nil
		},
	}
}

func findAccount(cmd *cobra.Command, repo account.Repository, email string) (*account.Account, error) {
	a, err := repo.FindByEmail(cmd.Context(), email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, exitError{code: 3, err: fmt.Errorf("account %s not found", email)}
	}
	return a, err
}
