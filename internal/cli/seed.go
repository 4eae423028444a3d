package cli

import (
	"math/rand/v2"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"medifinder/m/internal/config"
	"medifinder/m/internal/seed"
)

func newSeedCommand(cfg *config.Config) *cobra.Command {
	var stockCSV string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the reference data with the bundled Kigali catalog",
		Long: `Replace pharmacies, insurers, medicines and stock with the bundled catalog.
Existing orders are removed with their pharmacies and pharmacy accounts lose
their link; run link-users afterwards to restore it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := seed.Bundled()
			if err != nil {
				return err
			}
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := seed.Run(cmd.Context(), db, catalog, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))); err != nil {
				return err
			}
			if stockCSV == "" {
				return nil
			}
			f, err := os.Open(stockCSV)
			if err != nil {
				return errors.Wrap(err, "open stock csv")
			}
			defer f.Close()
			_, err = seed.LoadStockCSV(cmd.Context(), db, f)
			return err
		},
	}
	cmd.Flags().StringVar(&stockCSV, "stock-csv", "", "CSV of pharmacy_id,medicine,price_rwf,quantity rows applied after seeding")
	return cmd
}

func newLinkUsersCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "link-users",
		Short: "Link unlinked pharmacy accounts to pharmacies by name or phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			report, err := seed.LinkPharmacyUsers(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, id := range report.Unmatched {
				cmd.Printf("no pharmacy matched user %s\n", id)
			}
			cmd.Printf("linked %d account(s)\n", len(report.Linked))
			return nil
		},
	}
}
