package main

import (
	"time"

	"github.com/chachabrian/hotelbook-backend/internal/database"
	"github.com/chachabrian/hotelbook-backend/internal/repository"
	"github.com/chachabrian/hotelbook-backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newReapCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Mark pending bookings that never completed payment as failed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close(db)

			ttl := olderThan
			if ttl == 0 {
				ttl = cfg.PendingTTL
			}
			n, err := services.NewReaper(repository.NewBookingRepo(db), ttl, log).Run(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"failed": n, "olderThan": ttl.String()}).Info("reap finished")
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age after which a pending booking is failed (defaults to PENDING_TTL)")
	return cmd
}
