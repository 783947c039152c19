package model

// All lists every table, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Company{},
		&SuperAdmin{},
		&User{},
		&Supplier{},
		&Category{},
		&Product{},
		&StockMovement{},
		&ChecklistTemplate{},
		&ChecklistItem{},
		&ChecklistExecution{},
		&ChecklistExecutionItem{},
	}
}
