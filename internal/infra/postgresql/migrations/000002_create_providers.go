package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

func createProvidersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_providers",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ProviderModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_providers_eligible ON providers (eligible_for_leads) WHERE eligible_for_leads`,
				`CREATE INDEX IF NOT EXISTS idx_providers_featured ON providers (is_featured) WHERE is_featured`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ProviderModel{})
		},
	}
}
