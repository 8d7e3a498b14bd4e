package models

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&User{},
		&Address{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Wishlist{},
		&WishlistItem{},
		&Counter{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
