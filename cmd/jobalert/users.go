package main

import (
	"fmt"
	"strings"

	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/spf13/cobra"
)

var (
	userEmail     string
	userRoles     []string
	userTypes     []string
	userLocations []string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user alert profiles",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a profile or replace the preferences of an existing one",
	Example: "  jobalert user add --email ann@example.com --role \"Backend Developer\" " +
		"--type Full-time --location Remote",
	RunE: runUserAdd,
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Stop sending alerts to a user",
	RunE:  runUserDeactivate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user profiles",
	RunE:  runUserList,
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "user email")
	userAddCmd.Flags().StringSliceVar(&userRoles, "role", nil, "job role, up to 5 (repeatable)")
	userAddCmd.Flags().StringSliceVar(&userTypes, "type", nil, "job type (repeatable)")
	userAddCmd.Flags().StringSliceVar(&userLocations, "location", nil, "preferred location or Remote (repeatable)")
	_ = userAddCmd.MarkFlagRequired("email")

	userDeactivateCmd.Flags().StringVar(&userEmail, "email", "", "user email")
	_ = userDeactivateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd, userDeactivateCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.users.Upsert(cmd.Context(), entities.NewUser(userEmail, userRoles, userTypes, userLocations))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %s %s\n", userEmail, result)
	return nil
}

func runUserDeactivate(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err = s.users.SetActive(cmd.Context(), userEmail, false); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %s deactivated\n", userEmail)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.users.All(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-30s %-8s %-40s %s\n", "Email", "Active", "Roles", "Locations")
	fmt.Fprintln(out, strings.Repeat("─", 100))
	for _, u := range users {
		fmt.Fprintf(out, "%-30s %-8t %-40s %s\n", u.Email, u.Active,
			strings.Join(u.JobRoles, ", "), strings.Join(u.Locations, ", "))
	}
	fmt.Fprintf(out, "\nTotal: %d users\n", len(users))
	return nil
}
