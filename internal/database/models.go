package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AddOn struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Price     pgtype.Numeric `json:"price"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}

type ItemModifier struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type MenuItem struct {
	ID                  uuid.UUID          `json:"id"`
	Name                string             `json:"name"`
	Category            string             `json:"category"`
	Cogm                pgtype.Numeric     `json:"cogm"`
	AddOnEligibility    string             `json:"add_on_eligibility"`
	AllowedTemperatures []uuid.UUID        `json:"allowed_temperatures"`
	AllowedSweetness    []uuid.UUID        `json:"allowed_sweetness"`
	Status              string             `json:"status"`
	HasPromo            bool               `json:"has_promo"`
	DiscountType        pgtype.Text        `json:"discount_type"`
	DiscountValue       pgtype.Numeric     `json:"discount_value"`
	PromoStartDate      pgtype.Timestamptz `json:"promo_start_date"`
	PromoEndDate        pgtype.Timestamptz `json:"promo_end_date"`
	PromoActive         bool               `json:"promo_active"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type Transaction struct {
	ID                  uuid.UUID          `json:"id"`
	UserID              uuid.UUID          `json:"user_id"`
	Status              string             `json:"status"`
	Items               []byte             `json:"items"`
	Subtotal            pgtype.Numeric     `json:"subtotal"`
	TotalDiscount       pgtype.Numeric     `json:"total_discount"`
	Total               pgtype.Numeric     `json:"total"`
	Cogs                pgtype.Numeric     `json:"cogs"`
	TransactionDiscount []byte             `json:"transaction_discount"`
	Version             int32              `json:"version"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	CompletedAt         pgtype.Timestamptz `json:"completed_at"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
