package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/jetjot/internal/config"
	"github.com/pkordes/jetjot/internal/logging"
	"github.com/pkordes/jetjot/internal/service"
)

// newAdminCmd manages accounts from the command line. Commands run with an
// empty actor, so the self-action guard never applies.
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage user accounts",
	}
	userCmd := func(use, short string, apply func(*cobra.Command, *service.AdminService, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <username>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				return withAdmin(c, func(svc *service.AdminService) error {
					return apply(c, svc, args[0])
				})
			},
		}
	}
	cmd.AddCommand(
		userCmd("grant", "Give a user administrator rights", func(c *cobra.Command, svc *service.AdminService, u string) error {
			return svc.SetAdmin(c.Context(), "", u, true)
		}),
		userCmd("revoke", "Remove administrator rights from a user", func(c *cobra.Command, svc *service.AdminService, u string) error {
			return svc.SetAdmin(c.Context(), "", u, false)
		}),
		userCmd("disable", "Block a user from signing in", func(c *cobra.Command, svc *service.AdminService, u string) error {
			return svc.SetDisabled(c.Context(), "", u, true)
		}),
		userCmd("enable", "Allow a disabled user to sign in again", func(c *cobra.Command, svc *service.AdminService, u string) error {
			return svc.SetDisabled(c.Context(), "", u, false)
		}),
		userCmd("delete", "Delete a user and all of their sprints", func(c *cobra.Command, svc *service.AdminService, u string) error {
			n, err := svc.DeleteUser(c.Context(), "", u)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "deleted %s and %d sprints\n", u, n)
			return nil
		}),
	)
	return cmd
}

func withAdmin(cmd *cobra.Command, fn func(*service.AdminService) error) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	st, err := openStores(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()
	return fn(service.NewAdminService(st.creds, st.sprints, logger))
}
