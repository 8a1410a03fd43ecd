package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bloodlink/bloodlink/internal/domain/inventory"
)

func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Blood unit maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "expire",
		Short: "Mark available units past their expiry date as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, pool, logger, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := inventory.NewService(inventory.NewRepo(pool), nil, logger).Expire(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d unit(s)\n", n)
			return nil
		},
	})
	return cmd
}
