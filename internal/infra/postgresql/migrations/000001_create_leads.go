package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

func createLeadsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_leads",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.LeadModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_leads_status_created ON leads (status, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_leads_zip ON leads (zip)`,
				`CREATE INDEX IF NOT EXISTS idx_leads_routed_to ON leads (routed_to_id) WHERE routed_to_id IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.LeadModel{})
		},
	}
}
