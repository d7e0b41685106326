package store

// Holding represents one position in a user's stock portfolio.
type Holding struct {
	ID        int64
	UserID    int32
	Symbol    string
	Shares    float64
	CostBasis float64
	CreatedTs int64
	UpdatedTs int64
}

// FindHolding specifies the conditions for listing holdings.
type FindHolding struct {
	UserID *int32
	Symbol *string
}

// DeleteHolding specifies the holding to remove.
type DeleteHolding struct {
	UserID int32
	Symbol string
}
