package database

import (
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	if err := db.AutoMigrate(&models.Booking{}, &models.WebhookEvent{}); err != nil {
		return err
	}

	// Bookings created before contact and payment tracking existed
	if db.Dialector.Name() == "postgres" && db.Migrator().HasTable(&models.Booking{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS payer_email text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS payer_phone text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS payment_order_id text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS failure_reason text DEFAULT ''",
		}
		for _, column := range columns {
			if err := db.Exec("ALTER TABLE bookings " + column).Error; err != nil {
				return err
			}
		}

		if err := db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`).Error; err != nil {
			return err
		}
		if err := db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('pending', 'confirmed', 'failed'))`).Error; err != nil {
			return err
		}
	}

	return nil
}
