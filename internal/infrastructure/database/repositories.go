package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paywatch/subscription-service/internal/adapter/repository"
	domainRepo "github.com/paywatch/subscription-service/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Subscription domainRepo.SubscriptionRepository
	User         domainRepo.UserRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Subscription: repository.NewSubscriptionRepository(db, logger),
		User:         repository.NewUserRepository(db, logger),
	}
}
