package repository

import (
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type GormMemberRepository struct {
	db *gorm.DB
}

func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) Create(member *domain.Member) error {
	return translateErr(r.db.Create(member).Error)
}

func (r *GormMemberRepository) FindByID(id uint) (*domain.Member, error) {
	var member domain.Member
	err := r.db.First(&member, id).Error
	return firstOrNil(&member, err)
}

type GormLeadRepository struct {
	db *gorm.DB
}

func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

func (r *GormLeadRepository) FindByID(id uint) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.First(&lead, id).Error
	return firstOrNil(&lead, err)
}

func (r *GormLeadRepository) Update(lead *domain.Lead) error {
	return translateErr(r.db.Save(lead).Error)
}

type GormSubscriptionRepository struct {
	db *gorm.DB
}

func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) FindByID(id uint) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := r.db.First(&subscription, id).Error
	return firstOrNil(&subscription, err)
}

func (r *GormSubscriptionRepository) Update(subscription *domain.Subscription) error {
	return translateErr(r.db.Save(subscription).Error)
}

func (r *GormSubscriptionRepository) PausesBySubscription(subscriptionID uint) ([]domain.SubscriptionPause, error) {
	var pauses []domain.SubscriptionPause
	err := r.db.Where("subscription_id = ?", subscriptionID).
		Order("paused_at ASC").
		Find(&pauses).Error
	return pauses, err
}
