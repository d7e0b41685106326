package store

// User represents a registered dashboard user.
type User struct {
	ID           int32
	Username     string
	Email        string
	PasswordHash string
	CreatedTs    int64
	UpdatedTs    int64
}

// FindUser specifies the conditions for finding a user.
type FindUser struct {
	ID       *int32
	Username *string
	Email    *string
}
