package service

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sushihost/backend/internal/database"
	"github.com/sushihost/backend/internal/models"
	"github.com/sushihost/backend/internal/validate"
)

const (
	eventMenuLifetime = 30 * 24 * time.Hour
	tokenLength       = 8
	tokenAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Collisions on an 8-character token are nearly impossible but the
	// insert still detects the uniqueness violation and retries rather
	// than overwriting.
	maxTokenRetries = 5
)

// EventMenuService owns the shareable event-menu lifecycle. The public
// token is the capability: whoever holds it may read, update or delete
// the menu. That mirrors how hosts share menus with guests and is
// intentional, not a missing ownership check.
type EventMenuService struct {
	db   *gorm.DB
	caps database.Capabilities
	now  func() time.Time
}

func NewEventMenuService(db *gorm.DB, caps database.Capabilities) *EventMenuService {
	return &EventMenuService{db: db, caps: caps, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (s *EventMenuService) SetClock(now func() time.Time) { s.now = now }

type CreateEventMenuInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HostName    string          `json:"host_name"`
	MenuData    models.JSONBlob `json:"menu_data"`
	ReadOnly    bool            `json:"read_only"`
}

// Create validates and stores a new event menu, expiring 30 days out.
func (s *EventMenuService) Create(ctx context.Context, input CreateEventMenuInput, createdBy *int) (*models.EventMenu, error) {
	if err := validate.Name(input.Name); err != nil {
		return nil, validationErr(err.Error())
	}
	if err := validate.Description(input.Description); err != nil {
		return nil, validationErr(err.Error())
	}
	if err := validate.HostName(input.HostName); err != nil {
		return nil, validationErr(err.Error())
	}
	if len(input.MenuData) == 0 || string(input.MenuData) == "null" {
		return nil, validationErr("menu_data is required")
	}

	now := s.now()
	menu := models.EventMenu{
		Name:        validate.Sanitize(input.Name),
		Description: validate.Sanitize(input.Description),
		HostName:    validate.Sanitize(input.HostName),
		MenuData:    input.MenuData,
		ReadOnly:    input.ReadOnly,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(eventMenuLifetime),
	}
	if s.caps.HasEventMenuOwner {
		menu.CreatedBy = createdBy
	}

	for attempt := 0; attempt < maxTokenRetries; attempt++ {
		token, err := generateToken(tokenLength)
		if err != nil {
			return nil, err
		}
		menu.UniqueID = token
		err = s.db.WithContext(ctx).Create(&menu).Error
		if err == nil {
			return &menu, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		menu.ID = 0
	}
	return nil, errors.New("failed to generate a unique event menu token")
}

// GetByToken returns an unexpired event menu. Expired and nonexistent
// are indistinguishable to the caller.
func (s *EventMenuService) GetByToken(ctx context.Context, token string) (*models.EventMenu, error) {
	var menu models.EventMenu
	err := s.db.WithContext(ctx).
		Where("unique_id = ? AND expires_at > ?", token, s.now()).
		First(&menu).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &menu, nil
}

type UpdateEventMenuInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	HostName    *string          `json:"host_name"`
	MenuData    *models.JSONBlob `json:"menu_data"`
	ReadOnly    *bool            `json:"read_only"`
}

// Update merges only the fields present in the request into an unexpired
// menu and stamps updated_at.
func (s *EventMenuService) Update(ctx context.Context, token string, input UpdateEventMenuInput) (*models.EventMenu, error) {
	menu, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": s.now()}
	if input.Name != nil {
		if err := validate.Name(*input.Name); err != nil {
			return nil, validationErr(err.Error())
		}
		updates["name"] = validate.Sanitize(*input.Name)
	}
	if input.Description != nil {
		if err := validate.Description(*input.Description); err != nil {
			return nil, validationErr(err.Error())
		}
		updates["description"] = validate.Sanitize(*input.Description)
	}
	if input.HostName != nil {
		if err := validate.HostName(*input.HostName); err != nil {
			return nil, validationErr(err.Error())
		}
		updates["host_name"] = validate.Sanitize(*input.HostName)
	}
	if input.MenuData != nil {
		updates["menu_data"] = *input.MenuData
	}
	if input.ReadOnly != nil {
		updates["read_only"] = *input.ReadOnly
	}

	if err := s.db.WithContext(ctx).Model(menu).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByToken(ctx, token)
}

// Delete removes the row for a token. Expiration is deliberately not
// checked: deleting an expired-but-present row is allowed.
func (s *EventMenuService) Delete(ctx context.Context, token string) error {
	result := s.db.WithContext(ctx).Where("unique_id = ?", token).Delete(&models.EventMenu{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the caller's unexpired event menus. Nil user means not
// authenticated: the answer is an empty list, never an error, so
// existence leaks nothing. A store without the ownership column also
// lists nothing, to avoid exposing pre-auth-era rows to the wrong viewer.
func (s *EventMenuService) List(ctx context.Context, user *models.User, mineOnly bool) ([]models.EventMenu, error) {
	menus := []models.EventMenu{}
	if user == nil || !s.caps.HasEventMenuOwner {
		return menus, nil
	}

	query := s.db.WithContext(ctx).Where("expires_at > ?", s.now())
	if !user.IsAdmin() || mineOnly {
		query = query.Where("created_by = ?", user.ID)
	}
	if err := query.Order("created_at DESC").Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = tokenAlphabet[int(buf[i])%len(tokenAlphabet)]
	}
	return string(buf), nil
}
