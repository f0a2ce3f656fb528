package model

// Admin -- учётная запись административного API.
type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
}
