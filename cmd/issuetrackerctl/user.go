package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/core/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/repositories/database/pgsql"
	"github.com/SscSPs/issue_tracker/pkg/database"
	"github.com/spf13/cobra"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage profiles",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a local profile",
	Long: `Create a local profile with a password. The role defaults to karyawan (employee);
pass --role bendahara to create a treasurer.`,
	Args: cobra.NoArgs,
	RunE: runUserCreate,
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change the role of an existing profile",
	Long: `Change the role of the profile registered under --email. The new role applies
to the profile's next request; issued tokens stay valid.`,
	Args: cobra.NoArgs,
	RunE: runUserSetRole,
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Login email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Login password (8 to 72 characters)")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(domain.RoleEmployee), "Role: bendahara or karyawan")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userSetRoleCmd.Flags().StringVar(&userEmail, "email", "", "Email of the profile to change")
	userSetRoleCmd.Flags().StringVar(&userRole, "role", "", "Role: bendahara or karyawan")
	_ = userSetRoleCmd.MarkFlagRequired("email")
	_ = userSetRoleCmd.MarkFlagRequired("role")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userSetRoleCmd)
}

// withProfileService opens the database for the duration of fn.
func withProfileService(ctx context.Context, fn func(portssvc.ProfileSvcFacade) error) error {
	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(pool, logger)

	repos := pgsql.NewRepositoryProvider(pool)
	return fn(services.NewProfileService(repos.ProfileRepo))
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	return withProfileService(cmd.Context(), func(ps portssvc.ProfileSvcFacade) error {
		profile, err := ps.CreateProfile(cmd.Context(), dto.CreateProfileRequest{
			Name:         userName,
			Email:        userEmail,
			Password:     userPassword,
			Role:         domain.Role(userRole),
			AuthProvider: domain.ProviderLocal,
		})
		if err != nil {
			return err
		}
		return printProfile(cmd.OutOrStdout(), "created", profile)
	})
}

func runUserSetRole(cmd *cobra.Command, args []string) error {
	return withProfileService(cmd.Context(), func(ps portssvc.ProfileSvcFacade) error {
		profile, err := ps.SetRole(cmd.Context(), userEmail, domain.Role(userRole))
		if err != nil {
			return err
		}
		return printProfile(cmd.OutOrStdout(), "updated", profile)
	})
}

func printProfile(w io.Writer, verb string, profile *domain.Profile) error {
	if jsonOutput {
		return printJSON(w, dto.ToProfileResponse(profile))
	}
	_, err := fmt.Fprintf(w, "%s profile %s <%s> role=%s id=%s\n", verb, profile.Name, profile.Email, profile.Role, profile.ProfileID)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
