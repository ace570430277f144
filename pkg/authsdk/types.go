package authsdk

// ErrorResponse is the uniform error body. Client code should prefer the
// APIError type from errors.go.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Address is an optional postal or residential address on an account.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	// AccessToken is the JWT used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`
}

// RegisterRequest creates a new account. Exactly the username and email are
// required; role defaults to "member" when omitted.
type RegisterRequest struct {
	Username        string   `json:"username"`
	FirstName       string   `json:"first_name,omitempty"`
	LastName        string   `json:"last_name,omitempty"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
	Phone           string   `json:"phone,omitempty"`
	Role            string   `json:"role,omitempty"`
	CurrentAddress  *Address `json:"current_address,omitempty"`
	PostalAddress   *Address `json:"postal_address,omitempty"`
}

// RegisterResponse is the created account plus its first access token.
type RegisterResponse struct {
	User  UserResponse  `json:"user"`
	Token TokenResponse `json:"token"`
}

// LoginRequest authenticates with exactly one of username, email, or phone.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// LoginResponse either carries a token and the holder's role name, or
// signals that a second factor is still required and the token is withheld.
type LoginResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	Role        string `json:"role,omitempty"`
	TFARequired bool   `json:"tfa_required,omitempty"`
}

// TFARequest completes a login parked behind a second-factor challenge. It
// repeats the primary credentials alongside the code.
type TFARequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// CodeRequest submits a one-time code for the authenticated account.
type CodeRequest struct {
	Code string `json:"code"`
}

// PasswordForgotRequest starts the reset flow for a public identifier.
type PasswordForgotRequest struct {
	Identifier string `json:"identifier"`
}

// PasswordResetRequest proves possession of the delivered reset code. The
// same shape completes the reset's second-factor step, where the code is
// the TFA code instead.
type PasswordResetRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

// PasswordChangeRequest rotates the caller's password. Only honoured after
// a verified reset code armed the account.
type PasswordChangeRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdateUserRequest partially edits an account. Absent fields are left
// untouched.
type UpdateUserRequest struct {
	Username       *string  `json:"username,omitempty"`
	FirstName      *string  `json:"first_name,omitempty"`
	LastName       *string  `json:"last_name,omitempty"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Role           *string  `json:"role,omitempty"`
	Password       *string  `json:"password,omitempty"`
	CurrentAddress *Address `json:"current_address,omitempty"`
	PostalAddress  *Address `json:"postal_address,omitempty"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	FirstName      string   `json:"first_name,omitempty"`
	LastName       string   `json:"last_name,omitempty"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone,omitempty"`
	Role           string   `json:"role"`
	Status         string   `json:"status"`
	EmailVerified  bool     `json:"email_verified"`
	PhoneVerified  bool     `json:"phone_verified"`
	TFAEnabled     bool     `json:"tfa_enabled"`
	CurrentAddress *Address `json:"current_address,omitempty"`
	PostalAddress  *Address `json:"postal_address,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// UserListResponse wraps the account listing.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// TOTPEnrollResponse carries a freshly provisioned authenticator secret.
// The secret is shown exactly once.
type TOTPEnrollResponse struct {
	Secret  string `json:"secret"`
	URL     string `json:"url"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// RoleResponse is a role with its ordered permission names.
type RoleResponse struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// RoleListResponse wraps the role listing.
type RoleListResponse struct {
	Roles []RoleResponse `json:"roles"`
}

// CreateRoleRequest adds a role granting the named permissions.
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ReplacePermissionsRequest swaps a role's permission set wholesale.
type ReplacePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// PermissionResponse is one entry of the capability catalogue.
type PermissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PermissionListResponse wraps the capability catalogue.
type PermissionListResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
}

// MessageResponse acknowledges an operation with no other payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks breaks the readiness status down per dependency.
type HealthChecks struct {
	Database string `json:"database"`
}
