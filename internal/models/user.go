package models

import "time"

// AdminAccessLevel is the minimum access level that grants administrative
// rights (product management, acting on other users' carts).
const AdminAccessLevel = 2

// User represents a registered user of the store.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string     `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Username    string     `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Password    string     `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	AccessLevel int        `json:"access_level" gorm:"default:1"`
	Cart        []CartItem `json:"cart" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has administrative rights.
func (u *User) IsAdmin() bool {
	return u.AccessLevel >= AdminAccessLevel
}

// InCart returns the cart entry for the given product, or nil if the
// product is not in the user's cart.
func (u *User) InCart(productID string) *CartItem {
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			return &u.Cart[i]
		}
	}
	return nil
}
