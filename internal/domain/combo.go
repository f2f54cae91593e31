package domain

import "time"

// Combo is a finished draw saved for sharing and reopening. Sheets are referenced by sheetExpr so
// a combo survives dataset reloads; an expression that no longer resolves becomes a dummy sheet.
type Combo struct {
	ID          string            `json:"id"`
	GameCode    string            `json:"gameCode"`
	SheetExprs  []string          `json:"sheetExprs"`
	Size        int               `json:"size"`
	Replacement bool              `json:"replacement"`
	Query       map[string]string `json:"query,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// SheetSelection is the persisted set of sheets an owner picked for a game.
type SheetSelection struct {
	GameCode   string    `json:"gameCode"`
	Owner      string    `json:"owner"`
	SheetExprs []string  `json:"sheetExprs"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
