// Package auth provides the two authentication schemes of the API.
//
// # Bearer tokens
//
// Login looks an email up in the catalog users, then integration users,
// and issues an HMAC-signed JWT whose sub claim is that email. Passwords
// are accepted and ignored. Nothing is stored server side: every request
// re-verifies the signature and expiry and checks that the subject still
// exists.
//
//	tm, err := auth.NewTokenManager(secret, jose.HS256, time.Hour)
//	authn := auth.NewAuthenticator(tm, store)
//	result, err := authn.Login(ctx, "albi@example.edu", "anything")
//	principal, err := authn.Authenticate(ctx, "Bearer "+result.Token)
//
// # API keys
//
// KeySet is a static allow-list compared in constant time. Rejections are
// Forbidden rather than Unauthorized.
//
// # Audit
//
// AuditLogger writes login and rejection events as structured logrus
// entries tagged audit=true.
package auth
