// =============================================================================
// Pharmacy Records - User Commands
// =============================================================================
//
// This file defines the 'user' command group over the users file.
//
// COMMAND USAGE:
//   pharmacy user login --username alice --password secret
//   pharmacy user add --username alice --password secret --role Pharmacist
//   pharmacy user update --index 1 --username alice --password new --role Customer
//   pharmacy user delete --index 1 --yes
//   pharmacy user list
//   pharmacy user admin [--username root] [--password new]
//
// Exactly one Admin exists. It is created on first start and can only be
// changed through 'user admin'.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

// =============================================================================
// FLAGS
// =============================================================================

var (
	userName     string
	userPassword string
	userRole     string
	userIndex    int
	userYes      bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials and print the role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := app.users.CheckCredentials(cmd.Context(), userName, userPassword)
		if errors.Is(err, records.ErrNotFound) {
			return errors.New("invalid username or password")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", userName, role)
		return nil
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a Pharmacist or Customer account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := records.ParseRole(userRole)
		if err != nil {
			return err
		}
		if err := app.users.CreateUser(cmd.Context(), userName, userPassword, role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", userName, role)
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace the account at --index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := records.ParseRole(userRole)
		if err != nil {
			return err
		}
		if err := app.users.UpdateUser(cmd.Context(), userIndex, userName, userPassword, role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated user %d\n", userIndex)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the account at --index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(userYes, "delete a user"); err != nil {
			return err
		}
		if err := app.users.DeleteUser(cmd.Context(), userIndex); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", userIndex)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their index and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.users.LoadAll(cmd.Context())
		if err != nil {
			return err
		}
		for i, u := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s | %s\n", i, u.Username, u.Role)
		}
		return nil
	},
}

var userAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Change the administrator's username or password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var username, password *string
		if cmd.Flags().Changed("username") {
			username = &userName
		}
		if cmd.Flags().Changed("password") {
			password = &userPassword
		}
		if username == nil && password == nil {
			return errors.New("nothing to change: pass --username, --password or both")
		}
		if err := app.users.UpdateAdminCredentials(cmd.Context(), username, password); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Administrator updated.")
		return nil
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	for _, c := range []*cobra.Command{userLoginCmd, userAddCmd, userUpdateCmd, userAdminCmd} {
		c.Flags().StringVar(&userName, "username", "", "Username")
		c.Flags().StringVar(&userPassword, "password", "", "Password")
	}
	for _, c := range []*cobra.Command{userLoginCmd, userAddCmd, userUpdateCmd} {
		c.MarkFlagRequired("username")
		c.MarkFlagRequired("password")
	}
	for _, c := range []*cobra.Command{userAddCmd, userUpdateCmd} {
		c.Flags().StringVar(&userRole, "role", string(records.RoleCustomer), "Pharmacist or Customer")
	}
	for _, c := range []*cobra.Command{userUpdateCmd, userDeleteCmd} {
		c.Flags().IntVar(&userIndex, "index", -1, "Position in 'user list'")
		c.MarkFlagRequired("index")
	}
	userDeleteCmd.Flags().BoolVar(&userYes, "yes", false, "Confirm the deletion")

	userCmd.AddCommand(userLoginCmd, userAddCmd, userUpdateCmd, userDeleteCmd, userListCmd, userAdminCmd)
	rootCmd.AddCommand(userCmd)
}
