package domain

// CredentialsRequest is the form payload shared by signup and login.
// Binding tags enforce the field schema before any business logic runs.
type CredentialsRequest struct {
	Username string `form:"username" binding:"required,min=3,max=31,alphanum"`
	Password string `form:"password" binding:"required,min=6,max=255"`
}
