package auth

// Claims es la identidad autenticada que llega a los handlers.
type Claims struct {
	UserID string
	Email  string
}
