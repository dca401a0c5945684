package domain

// Principal is the identity a request acts as. The zero value is anonymous.
type Principal struct {
	AccountID string
	Email     string
}

// Anonymous is the principal of an unauthenticated request.
var Anonymous = Principal{}

// Authenticated builds a principal for the given account.
func Authenticated(accountID, email string) Principal {
	return Principal{AccountID: accountID, Email: email}
}

// IsAuthenticated reports whether the principal refers to an account.
func (p Principal) IsAuthenticated() bool {
	return p.AccountID != ""
}
