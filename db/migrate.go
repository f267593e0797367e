package db

import (
	"fmt"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&models.Message{},
		&models.RequestCounter{},
	)
}
