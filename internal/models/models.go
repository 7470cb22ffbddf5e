package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	Coins        int64     `json:"coins"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated caller handed to every workflow call.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	ImagePath   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type CoinRequest struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Amount         int64      `json:"amount"`
	ProofReference string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	Reviewed       bool       `json:"reviewed"`
	Approved       *bool      `json:"approved"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewerID     *int64     `json:"reviewer_id,omitempty"`
}

type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type Contact struct {
	Name        string   `json:"name,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Address     string   `json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type Order struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	LineItems    []LineItem `json:"line_items"`
	TotalPrice   int64      `json:"total_price"`
	Status       string     `json:"status"`
	DeliveryTime *time.Time `json:"delivery_time"`
	Contact      Contact    `json:"contact"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type CartItem struct {
	UserID    int64     `json:"-"`
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

type CartLine struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartView struct {
	Items      []CartLine `json:"items"`
	TotalPrice int64      `json:"total_price"`
}
