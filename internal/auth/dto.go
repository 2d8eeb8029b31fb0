package auth

// SignupInput carries a new account registration.
type SignupInput struct {
	UserName string
	Password string
	FullName string
	Email    string
	Address  *string
	Phone    *string
}

// AuthResult is returned by every login flow: a signed access token
// plus the identity it was minted for.
type AuthResult struct {
	Token     string  `json:"token"`
	UserName  string  `json:"userName"`
	FullName  string  `json:"fullName"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}
