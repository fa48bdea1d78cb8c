package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sushihost/backend/internal/models"
	"github.com/sushihost/backend/internal/validate"
)

// ContentService serves the read-only restaurant content: menu,
// ingredients, categories, recipes and the event runbook.
type ContentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

// MenuItemView is a menu item with its category denormalized and its
// ingredient links partitioned by position.
type MenuItemView struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	ImagePath         string   `json:"image_path"`
	Category          string   `json:"category"`
	CategoryColor     string   `json:"category_color"`
	IngredientsInside []string `json:"ingredients_inside"`
	IngredientsOnTop  []string `json:"ingredients_on_top"`
}

type menuItemRow struct {
	ID            int
	Name          string
	Description   string
	Price         float64
	ImagePath     string
	Category      string
	CategoryColor string
}

type ingredientLinkRow struct {
	MenuItemID int
	Name       string
	Position   string
}

// GetMenu returns all active menu items grouped by category name, each
// with its inside/on-top ingredient lists.
func (s *ContentService) GetMenu(ctx context.Context) (map[string][]MenuItemView, error) {
	var rows []menuItemRow
	err := s.db.WithContext(ctx).
		Table("menu_items mi").
		Select("mi.id, mi.name, mi.description, mi.price, mi.image_path, c.name AS category, c.color AS category_color").
		Joins("JOIN categories c ON mi.category_id = c.id").
		Where("mi.is_active = ?", true).
		Order("c.sort_order, mi.sort_order, mi.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]MenuItemView, 0, len(rows))
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		items = append(items, MenuItemView{
			ID:                r.ID,
			Name:              r.Name,
			Description:       r.Description,
			Price:             r.Price,
			ImagePath:         r.ImagePath,
			Category:          r.Category,
			CategoryColor:     r.CategoryColor,
			IngredientsInside: []string{},
			IngredientsOnTop:  []string{},
		})
		ids = append(ids, r.ID)
	}

	if err := s.attachIngredients(ctx, ids, items); err != nil {
		return nil, err
	}

	grouped := make(map[string][]MenuItemView)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped, nil
}

// GetMenuItem returns one active menu item with ingredients.
func (s *ContentService) GetMenuItem(ctx context.Context, id int) (*MenuItemView, error) {
	var row menuItemRow
	err := s.db.WithContext(ctx).
		Table("menu_items mi").
		Select("mi.id, mi.name, mi.description, mi.price, mi.image_path, c.name AS category, c.color AS category_color").
		Joins("JOIN categories c ON mi.category_id = c.id").
		Where("mi.id = ? AND mi.is_active = ?", id, true).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, ErrNotFound
	}

	item := MenuItemView{
		ID:                row.ID,
		Name:              row.Name,
		Description:       row.Description,
		Price:             row.Price,
		ImagePath:         row.ImagePath,
		Category:          row.Category,
		CategoryColor:     row.CategoryColor,
		IngredientsInside: []string{},
		IngredientsOnTop:  []string{},
	}
	items := []MenuItemView{item}
	if err := s.attachIngredients(ctx, []int{row.ID}, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// attachIngredients fills the inside/on_top lists for the given items.
// The two lists partition the item's links exactly: every link lands in
// one list, chosen by its position discriminant.
func (s *ContentService) attachIngredients(ctx context.Context, ids []int, items []MenuItemView) error {
	if len(ids) == 0 {
		return nil
	}
	var links []ingredientLinkRow
	err := s.db.WithContext(ctx).
		Table("menu_item_ingredients mii").
		Select("mii.menu_item_id, i.name, mii.position").
		Joins("JOIN ingredients i ON mii.ingredient_id = i.id").
		Where("mii.menu_item_id IN ?", ids).
		Order("mii.position, mii.sort_order").
		Scan(&links).Error
	if err != nil {
		return err
	}

	byItem := make(map[int]*MenuItemView, len(items))
	for i := range items {
		byItem[items[i].ID] = &items[i]
	}
	for _, link := range links {
		item, ok := byItem[link.MenuItemID]
		if !ok {
			continue
		}
		if link.Position == models.PositionInside {
			item.IngredientsInside = append(item.IngredientsInside, link.Name)
		} else {
			item.IngredientsOnTop = append(item.IngredientsOnTop, link.Name)
		}
	}
	return nil
}

// GetIngredients returns all ingredients grouped by category label.
func (s *ContentService) GetIngredients(ctx context.Context) (map[string][]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Order("category, name").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.Ingredient)
	for _, ing := range ingredients {
		grouped[ing.Category] = append(grouped[ing.Category], ing)
	}
	return grouped, nil
}

func (s *ContentService) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("sort_order").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetRunbook returns the checklist ordered by sort_order with timeline as
// tiebreak. sort_order is authoritative; the timeline strings are never
// parsed.
func (s *ContentService) GetRunbook(ctx context.Context) ([]models.RunbookItem, error) {
	var items []models.RunbookItem
	if err := s.db.WithContext(ctx).Order("sort_order, timeline").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ContentService) GetRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("order_index") }).
		Order("name").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *ContentService) GetRecipe(ctx context.Context, id int) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("order_index") }).
		First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *ContentService) GetRecipesByCategory(ctx context.Context, category string) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("order_index") }).
		Where("category = ?", category).
		Order("name").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// SearchResult is the flat search hit shape: no ingredient lists, just
// enough to render a result row.
type SearchResult struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	CategoryColor string  `json:"category_color"`
}

// Search matches active menu items whose name, description or any linked
// ingredient name contains the query, case-insensitively. An empty query
// returns an empty result, never the whole menu.
func (s *ContentService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	results := []SearchResult{}
	if strings.TrimSpace(query) == "" {
		return results, nil
	}

	like := "%" + strings.ToLower(query) + "%"
	err := s.db.WithContext(ctx).
		Table("menu_items mi").
		Select("DISTINCT mi.id, mi.name, mi.description, mi.price, c.name AS category, c.color AS category_color").
		Joins("JOIN categories c ON mi.category_id = c.id").
		Joins("LEFT JOIN menu_item_ingredients mii ON mi.id = mii.menu_item_id").
		Joins("LEFT JOIN ingredients i ON mii.ingredient_id = i.id").
		Where("mi.is_active = ?", true).
		Where("LOWER(mi.name) LIKE ? OR LOWER(mi.description) LIKE ? OR LOWER(i.name) LIKE ?", like, like, like).
		Order("mi.name").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MenuItemInput is the admin create payload: the item plus its
// ingredient links.
type MenuItemInput struct {
	CategoryID  int                 `json:"category_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	ImagePath   string              `json:"image_path"`
	SortOrder   int                 `json:"sort_order"`
	Ingredients []MenuItemLinkInput `json:"ingredients"`
}

type MenuItemLinkInput struct {
	IngredientID int    `json:"ingredient_id"`
	Position     string `json:"position"`
	Quantity     string `json:"quantity"`
	SortOrder    int    `json:"sort_order"`
}

// CreateMenuItem inserts a menu item and its ingredient links in one
// transaction so a failed link insert leaves no orphaned item.
func (s *ContentService) CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error) {
	if err := validate.Name(input.Name); err != nil {
		return nil, validationErr(err.Error())
	}
	if err := validate.Description(input.Description); err != nil {
		return nil, validationErr(err.Error())
	}
	for _, link := range input.Ingredients {
		if link.Position != models.PositionInside && link.Position != models.PositionOnTop {
			return nil, validationErr("ingredient position must be 'inside' or 'on_top'")
		}
	}

	item := models.MenuItem{
		CategoryID:  input.CategoryID,
		Name:        validate.Sanitize(input.Name),
		Description: validate.Sanitize(input.Description),
		Price:       input.Price,
		ImagePath:   input.ImagePath,
		IsActive:    true,
		SortOrder:   input.SortOrder,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		for _, link := range input.Ingredients {
			row := models.MenuItemIngredient{
				MenuItemID:   item.ID,
				IngredientID: link.IngredientID,
				Position:     link.Position,
				Quantity:     link.Quantity,
				SortOrder:    link.SortOrder,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &item, nil
}
