package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

func createChargeAttemptsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_charge_attempts",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ChargeAttemptModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_charges_lead_provider ON charge_attempts (lead_id, provider_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_charges_idempotency_key ON charge_attempts (idempotency_key)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ChargeAttemptModel{})
		},
	}
}
