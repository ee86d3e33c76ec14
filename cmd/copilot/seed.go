// cmd/copilot/seed.go
package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"supplychain-copilot/internal/store/sampledata"
)

func newSeedCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the sample supplier and order tables in a sqlite file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := sql.Open("sqlite", dsn)
			if err != nil {
				return fmt.Errorf("open %s: %w", dsn, err)
			}
			defer db.Close()

			if err := sampledata.Seed(ctx, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d suppliers and %d purchase orders into %s\n",
				len(sampledata.Suppliers), len(sampledata.PurchaseOrders), dsn)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "file:supply_chain.db", "sqlite DSN to seed")
	return cmd
}
