package models

// All lists every persisted model, in dependency order, for AutoMigrate in sqlite mode and tests.
func All() []any {
	return []any{
		&User{},
		&Warehouse{},
		&Item{},
		&AuditLog{},
	}
}
