package models

import "time"

// Ingredient positions on a menu item. The legacy data only ever
// contains these two values.
const (
	PositionInside = "inside"
	PositionOnTop  = "on_top"
)

type Category struct {
	ID        int    `gorm:"primarykey" json:"id"`
	Name      string `gorm:"uniqueIndex;not null" json:"name"`
	Color     string `gorm:"size:20" json:"color"`
	SortOrder int    `json:"sort_order"`
}

func (Category) TableName() string { return "categories" }

type Ingredient struct {
	ID               int     `gorm:"primarykey" json:"id"`
	Name             string  `gorm:"uniqueIndex;not null" json:"name"`
	Category         string  `gorm:"size:100" json:"category"`
	Store            string  `gorm:"size:100" json:"store"`
	Cost             float64 `json:"cost"`
	Quantity         string  `gorm:"size:100" json:"quantity"`
	UnitCost         float64 `json:"unit_cost"`
	Brand            string  `gorm:"size:100" json:"brand"`
	ShoppingCartName string  `gorm:"size:255" json:"shopping_cart_name"`
	UsesPerPurchase  int     `gorm:"default:1" json:"uses_per_purchase"`
}

func (Ingredient) TableName() string { return "ingredients" }

type MenuItem struct {
	ID          int                  `gorm:"primarykey" json:"id"`
	CategoryID  int                  `gorm:"not null" json:"category_id"`
	Name        string               `gorm:"size:255;not null" json:"name"`
	Description string               `gorm:"type:text" json:"description"`
	Price       float64              `json:"price"`
	ImagePath   string               `gorm:"size:255" json:"image_path"`
	IsActive    bool                 `gorm:"default:true" json:"is_active"`
	SortOrder   int                  `json:"sort_order"`
	Ingredients []MenuItemIngredient `gorm:"foreignKey:MenuItemID" json:"-"`
}

func (MenuItem) TableName() string { return "menu_items" }

// MenuItemIngredient links a menu item to an ingredient at a position.
// The (menu_item_id, ingredient_id, position) triple is unique: the same
// ingredient may appear inside and on top, but never twice in one position.
type MenuItemIngredient struct {
	MenuItemID   int    `gorm:"primarykey;uniqueIndex:idx_item_ingredient_position" json:"menu_item_id"`
	IngredientID int    `gorm:"primarykey;uniqueIndex:idx_item_ingredient_position" json:"ingredient_id"`
	Position     string `gorm:"primarykey;size:10;uniqueIndex:idx_item_ingredient_position" json:"position"`
	Quantity     string `gorm:"size:100" json:"quantity"`
	SortOrder    int    `json:"sort_order"`
}

func (MenuItemIngredient) TableName() string { return "menu_item_ingredients" }

type Recipe struct {
	ID           int                `gorm:"primarykey" json:"id"`
	Name         string             `gorm:"size:255;not null" json:"name"`
	Category     string             `gorm:"size:100" json:"category"`
	Description  string             `gorm:"type:text" json:"description"`
	Instructions string             `gorm:"type:text" json:"instructions"`
	PrepTime     string             `gorm:"size:50" json:"prep_time"`
	CookTime     string             `gorm:"size:50" json:"cook_time"`
	TotalTime    string             `gorm:"size:50" json:"total_time"`
	Difficulty   string             `gorm:"size:50" json:"difficulty"`
	Yield        string             `gorm:"size:100" json:"yield"`
	StorageNotes string             `gorm:"type:text" json:"storage_notes"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Ingredients  []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient is one line of a recipe. OrderIndex defines the
// display sequence and must be preserved on read.
type RecipeIngredient struct {
	ID             int    `gorm:"primarykey" json:"id"`
	RecipeID       int    `gorm:"not null;index" json:"recipe_id"`
	IngredientName string `gorm:"size:255;not null" json:"ingredient_name"`
	Quantity       string `gorm:"size:100" json:"quantity"`
	Unit           string `gorm:"size:50" json:"unit"`
	Notes          string `gorm:"type:text" json:"notes"`
	OrderIndex     int    `json:"order_index"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

// RunbookItem is one row of the event-planning checklist. Timeline is a
// free-text bucket ("T-5 days", "T-0"); SortOrder is authoritative for
// display order, timeline only breaks ties.
type RunbookItem struct {
	ID                int    `gorm:"primarykey" json:"id"`
	Timeline          string `gorm:"size:50" json:"timeline"`
	Activity          string `gorm:"size:255" json:"activity"`
	BeginnerSteps     string `gorm:"type:text" json:"beginner_steps"`
	AdvancedSteps     string `gorm:"type:text" json:"advanced_steps"`
	EstimatedDuration string `gorm:"size:100" json:"estimated_duration"`
	Notes             string `gorm:"type:text" json:"notes"`
	HasBeginner       bool   `gorm:"default:false" json:"has_beginner"`
	HasAdvanced       bool   `gorm:"default:false" json:"has_advanced"`
	SortOrder         int    `json:"sort_order"`
}

func (RunbookItem) TableName() string { return "runbook_items" }
