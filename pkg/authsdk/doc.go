/*
Package authsdk provides a client SDK for the MemberGate authentication service.

# Overview

The package carries the request/response types shared by the server handlers
and a thin HTTP client for integrations and tests. It is organized around two
types:

  - SDKClient: unauthenticated operations (register, login, password reset,
    health probes) and session creation
  - Session: authenticated operations performed with a bearer token

Create an SDKClient for public endpoints and to start a login:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.Livez(ctx)

	// Register a new member
	res, err := client.Register(ctx, authsdk.RegisterRequest{...})

	// Log in and get a session in one step
	session, err := client.AuthenticateSession(ctx, authsdk.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret",
	})

# Two-Factor Login

Accounts with TFA enabled withhold the access token at login. The login
response sets TFARequired and the client completes the exchange with the
delivered or authenticator code:

	res, err := client.Login(ctx, req)
	if err == nil && res.TFARequired {
		res, err = client.VerifyTFA(ctx, authsdk.TFARequest{
			Email:    req.Email,
			Password: req.Password,
			Code:     code,
		})
	}
	session := client.NewSession(res.AccessToken)

AuthenticateSession fails with ErrorCodeTFARequired instead of returning a
half-finished session.

# Sessions

A Session wraps one access token; there is no refresh flow, clients log in
again when the token expires. Self-service operations (Me, ChangePassword,
verification, TOTP enrollment) need only a valid token. Administrative
operations (user listing, blocking, role management) additionally require the
caller's role to hold the matching permission, which the server re-checks
against the store on every request.

# Error Handling

Server failures decode into *APIError carrying the HTTP status and the
service's uniform error body:

	session, err := client.AuthenticateSession(ctx, req)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case authsdk.ErrorCodeInvalidCredentials:
			// wrong identifier or password
		case authsdk.ErrorCodeAccountBlocked:
			// account exists but is blocked
		}
	}
*/
package authsdk
