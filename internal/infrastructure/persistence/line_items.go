package persistence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// saveLineItems reconciles a parent document's line items: rows removed from
// the aggregate are deleted, the rest are upserted. bind stamps the parent
// foreign key on each item and returns the item's ID.
func saveLineItems[T any](tx *gorm.DB, fkColumn string, parentID uuid.UUID, items []T, bind func(*T) uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(items))
	for i := range items {
		ids = append(ids, bind(&items[i]))
	}

	var model T
	if len(ids) > 0 {
		if err := tx.Where(fkColumn+" = ? AND id NOT IN ?", parentID, ids).
			Delete(&model).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where(fkColumn+" = ?", parentID).Delete(&model).Error; err != nil {
			return err
		}
	}

	for i := range items {
		if err := tx.Save(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
