package migration_1

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Metadata datatypes.JSON
}

func Migration(db *gorm.DB) error {
	return db.Migrator().AddColumn(&ChatMessage{}, "Metadata")
}

func Rollback(db *gorm.DB) error {
	return db.Migrator().DropColumn(&ChatMessage{}, "Metadata")
}
