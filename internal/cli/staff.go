package cli

import (
	"github.com/spf13/cobra"

	"medifinder/m/internal/config"
	"medifinder/m/internal/identity"
)

func newCreateStaffCommand(cfg *config.Config) *cobra.Command {
	var (
		in         identity.SignupInput
		pharmacyID string
	)

	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a pharmacy account linked to a pharmacy",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := identity.NewService(db, identity.NewTokens(cfg.Secret, cfg.TokenTTL))
			staff, err := svc.CreateStaff(cmd.Context(), in, pharmacyID)
			if err != nil {
				return err
			}
			cmd.Printf("created %s (%s) for pharmacy %s\n", staff.ID, staff.Email, pharmacyID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password (min 6 characters)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&pharmacyID, "pharmacy", "", "pharmacy id the account manages")
	for _, name := range []string{"name", "email", "password", "pharmacy"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
