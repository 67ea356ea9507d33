package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	"github.com/interrail/forwarding/internal/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdminUser seeds the bootstrap operator account so a fresh
// installation can be logged into. Existing accounts are left alone.
func EnsureAdminUser(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if cfg.BootstrapAdminUsername == "" || cfg.BootstrapAdminPassword == "" {
		return errors.New("bootstrap admin username and password are required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.Where("username = ?", cfg.BootstrapAdminUsername).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now()
		return tx.Create(&authdomain.User{
			ID:           node.Generate(),
			Username:     cfg.BootstrapAdminUsername,
			FullName:     "Administrator",
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	})
}
