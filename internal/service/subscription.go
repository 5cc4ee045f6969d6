package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/models"
)

type SubscriptionService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionService(db *gorm.DB, log *logger.Logger) *SubscriptionService {
	return &SubscriptionService{db: db, log: log}
}

// Subscribe follows an author. Check order: author existence, then
// self-subscription, then duplicate. recipesLimit caps the recipes embedded
// in the returned view; zero means no cap.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, authorID uuid.UUID, recipesLimit int) (*SubscriptionView, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if err := ValidateSubscription(subscriberID, authorID, count > 0); err != nil {
		return nil, err
	}

	sub := models.Subscription{SubscriberID: subscriberID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}

	s.log.Info("subscription created", "subscriber_id", subscriberID, "author_id", authorID)
	return s.buildView(ctx, &author, recipesLimit)
}

// Unsubscribe deletes the subscription. ErrNotFound if it does not exist.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, authorID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.log.Info("subscription removed", "subscriber_id", subscriberID, "author_id", authorID)
	return nil
}

// List returns every author the subscriber follows, each with their recent
// recipes and total recipe count. Pagination is the caller's concern.
func (s *SubscriptionService) List(ctx context.Context, subscriberID uuid.UUID, recipesLimit int) ([]SubscriptionView, error) {
	var authors []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Order("subscriptions.created_at DESC").
		Find(&authors).Error
	if err != nil {
		return nil, err
	}

	views := make([]SubscriptionView, 0, len(authors))
	for i := range authors {
		view, err := s.buildView(ctx, &authors[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *SubscriptionService) buildView(ctx context.Context, author *models.User, recipesLimit int) (*SubscriptionView, error) {
	query := s.db.WithContext(ctx).
		Where("author_id = ?", author.ID).
		Order("created_at DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", author.ID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	shorts := make([]RecipeShort, 0, len(recipes))
	for _, r := range recipes {
		shorts = append(shorts, RecipeShort{
			ID:          r.ID,
			Name:        r.Name,
			ImageURL:    r.ImageURL,
			CookingTime: r.CookingTime,
		})
	}

	return &SubscriptionView{
		AuthorView: AuthorView{
			ID:           author.ID,
			Email:        author.Email,
			Username:     author.Username,
			FirstName:    author.FirstName,
			LastName:     author.LastName,
			IsSubscribed: true,
		},
		Recipes:      shorts,
		RecipesCount: total,
	}, nil
}
