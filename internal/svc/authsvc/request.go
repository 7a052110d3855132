package authsvc

// JoinRequest is the body of a join request.
type JoinRequest struct {
	Username  string `json:"username" label:"Username" validate:"required,min=5"`
	FirstName string `json:"first_name" label:"First name" validate:"required,min=3"`
	Email     string `json:"email" label:"Email" validate:"required,email"`
	Password  string `json:"password" label:"Password" validate:"required,min=6,max=72"`
}

// LoginRequest is the body of a login request.
type LoginRequest struct {
	Username string `json:"username" label:"Username" validate:"required"`
	Password string `json:"password" label:"Password" validate:"required"`
}
