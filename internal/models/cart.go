package models

// CartItem is a single entry in a user's cart: a product reference plus the
// desired quantity. Entries are unique per (user, product) and keep their
// insertion order.
type CartItem struct {
	ID        uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID    string `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_cart_user_product"`
	ProductID string `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_user_product"`
	Quantity  int    `json:"quantity"`
}

// CartProduct is the joined view returned when listing a cart: the product
// record annotated with the quantity held in the cart.
type CartProduct struct {
	Product
	Quantity int `json:"quantity"`
}
