package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"         json:"email"`
	Name         string    `gorm:"not null"                     json:"name"`
	PasswordHash string    `gorm:"not null"                     json:"-"`
	Role         string    `gorm:"not null;default:user"        json:"role"`
	TokenVersion int       `gorm:"not null;default:0"           json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID           uint   `gorm:"primaryKey"           json:"id"`
	Token        string `gorm:"uniqueIndex;not null" json:"-"`
	UserID       uint   `gorm:"index;not null"       json:"user_id"`
	TokenVersion int    `gorm:"not null"             json:"-"`
	ExpiresAt    int64  `gorm:"not null"             json:"expires_at"`
	Revoked      bool   `gorm:"default:false"        json:"revoked"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Description string `json:"description"`
}

type Product struct {
	ID                  uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string         `gorm:"not null"                 json:"name"`
	Description         string         `gorm:"not null"                 json:"description"`
	Price               float64        `gorm:"not null"                 json:"price"`
	ImageURL            string         `json:"image_url"`
	Stock               int            `gorm:"not null;default:0"       json:"stock"`
	CategoryID          *uint          `gorm:"index"                    json:"category_id"`
	Details             datatypes.JSON `json:"details,omitempty"`
	Dimensions          datatypes.JSON `json:"dimensions,omitempty"`
	CareNotes           datatypes.JSON `json:"care_notes,omitempty"`
	SustainabilityNotes datatypes.JSON `json:"sustainability_notes,omitempty"`
	ColorVariants       datatypes.JSON `json:"color_variants,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	ProductID uint   `gorm:"index;not null" json:"product_id"`
	URL       string `gorm:"not null"       json:"url"`
	AltText   string `json:"alt_text"`
	Position  int    `gorm:"default:0"      json:"position"`
}

const (
	CartStatusActive             = "ACTIVE"
	CartStatusCheckoutInProgress = "CHECKOUT_IN_PROGRESS"
	CartStatusCompleted          = "COMPLETED"
	CartStatusAbandoned          = "ABANDONED"
)

// Cart carries a partial unique index so a user can never hold two ACTIVE
// carts at once; get-or-create relies on it.
type Cart struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:ux_carts_user_active,where:status = 'ACTIVE'" json:"user_id"`
	Status    string    `gorm:"not null;default:ACTIVE"  json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Size and ColorHex default to empty strings rather than NULL so line
// uniqueness holds across variants.
type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                          json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:ux_cart_items_line"             json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:ux_cart_items_line"             json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                         json:"quantity"`
	Size      string    `gorm:"not null;default:'';uniqueIndex:ux_cart_items_line"  json:"size,omitempty"`
	ColorHex  string    `gorm:"not null;default:'';uniqueIndex:ux_cart_items_line"  json:"color_hex,omitempty"`
	AddedAt   time.Time `gorm:"autoCreateTime"                                      json:"added_at"`
}

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusPaid      = "PAID"
	PaymentStatusSucceeded = "SUCCEEDED"
	PaymentStatusFailed    = "FAILED"
)

type Order struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"index;not null"           json:"user_id"`
	TotalPrice    float64   `gorm:"not null"                 json:"total_price"`
	PaymentStatus string    `gorm:"not null;default:PENDING" json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Price is the product price at order-creation time. It never changes,
// whatever happens to the product afterwards.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID uint    `gorm:"not null"       json:"product_id"`
	Quantity  int     `gorm:"not null"       json:"quantity"`
	Price     float64 `gorm:"not null"       json:"price"`
	Size      string  `json:"size,omitempty"`
	ColorHex  string  `json:"color_hex,omitempty"`
}

const (
	DeliveryStatusProcessing = "PROCESSING"
	DeliveryStatusShipped    = "SHIPPED"
	DeliveryStatusDelivered  = "DELIVERED"
)

type ShippingDetails struct {
	ID             uint   `gorm:"primaryKey"                  json:"id"`
	OrderID        uint   `gorm:"uniqueIndex;not null"        json:"order_id"`
	UserID         uint   `gorm:"index;not null"              json:"user_id"`
	Name           string `gorm:"not null"                    json:"name"`
	Address        string `gorm:"not null"                    json:"address"`
	City           string `gorm:"not null"                    json:"city"`
	Province       string `json:"province,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	DeliveryStatus string `gorm:"not null;default:PROCESSING" json:"delivery_status"`
}

type Payment struct {
	ID            uint      `gorm:"primaryKey"               json:"id"`
	OrderID       uint      `gorm:"index;not null"           json:"order_id"`
	Amount        float64   `gorm:"not null"                 json:"amount"`
	Method        string    `gorm:"not null"                 json:"method"`
	TransactionID string    `gorm:"uniqueIndex;not null"     json:"transaction_id"`
	PaymentStatus string    `gorm:"not null;default:PENDING" json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// SavedPaymentCard never stores a full PAN, only what the UI needs to
// render the card picker.
type SavedPaymentCard struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Brand     string    `gorm:"not null"       json:"brand"`
	Last4     string    `gorm:"not null"       json:"last4"`
	ExpMonth  int       `gorm:"not null"       json:"exp_month"`
	ExpYear   int       `gorm:"not null"       json:"exp_year"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_reviews_user_prod"  json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:ux_reviews_user_prod"  json:"product_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// InventoryLog rows are append-only: one row per applied stock delta,
// written in the same transaction as the stock update itself.
type InventoryLog struct {
	ID              uint      `gorm:"primaryKey"     json:"id"`
	ProductID       uint      `gorm:"index;not null" json:"product_id"`
	ChangeType      string    `gorm:"not null"       json:"change_type"`
	QuantityChanged int       `gorm:"not null"       json:"quantity_changed"`
	Size            string    `json:"size,omitempty"`
	ColorHex        string    `json:"color_hex,omitempty"`
	PreviousStock   int       `gorm:"not null"       json:"previous_stock"`
	NewStock        int       `gorm:"not null"       json:"new_stock"`
	Source          string    `json:"source,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Note            string    `json:"note,omitempty"`
	ActorUserID     uint      `gorm:"not null"       json:"actor_user_id"`
	OrderID         *uint     `json:"order_id,omitempty"`
	CartItemID      *uint     `json:"cart_item_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type HomeFeature struct {
	ID       uint   `gorm:"primaryKey"   json:"id"`
	Title    string `gorm:"not null"     json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `gorm:"not null"     json:"image_url"`
	LinkURL  string `json:"link_url"`
	Position int    `gorm:"default:0"    json:"position"`
	Active   bool   `gorm:"default:true" json:"active"`
}

// All returns every entity in migration order.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &Category{}, &Product{}, &ProductImage{},
		&Cart{}, &CartItem{}, &Order{}, &OrderItem{}, &ShippingDetails{},
		&Payment{}, &SavedPaymentCard{}, &Review{}, &InventoryLog{}, &HomeFeature{},
	}
}
