package cli

import (
	"fmt"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/serverutils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCreateAdminCmd(opts Options) *cobra.Command {
	var req dto.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: withServices(opts, func(cmd *cobra.Command, svc *services) error {
			if err := serverutils.ValidateRequest(req); err != nil {
				return err
			}

			user, err := svc.auth.CreateUser(cmd.Context(), &req, entity.UserRoleAdmin)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.GreenString("✓")+" Administrator created")
			fmt.Fprintln(out, "  Username: "+color.CyanString(user.Username))
			fmt.Fprintln(out, "  Email:    "+color.CyanString(user.Email))
			fmt.Fprintln(out, "  User ID:  "+color.YellowString(user.Id.String()))
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password (8-72 characters)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
