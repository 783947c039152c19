package model

type PlanTier string

const (
	PlanBasic      PlanTier = "basic"
	PlanPremium    PlanTier = "premium"
	PlanEnterprise PlanTier = "enterprise"
)

// MovementType is the kind of a stock ledger entry.
type MovementType string

const (
	MovementIn     MovementType = "entrada"
	MovementOut    MovementType = "saida"
	MovementAdjust MovementType = "ajuste"
)

// Weekday is used for a product's best purchase day.
type Weekday string

const (
	Monday    Weekday = "segunda"
	Tuesday   Weekday = "terca"
	Wednesday Weekday = "quarta"
	Thursday  Weekday = "quinta"
	Friday    Weekday = "sexta"
	Saturday  Weekday = "sabado"
	Sunday    Weekday = "domingo"
)

type ChecklistType string

const (
	ChecklistOpening  ChecklistType = "abertura"
	ChecklistClosing  ChecklistType = "fechamento"
	ChecklistCleaning ChecklistType = "limpeza"
)
