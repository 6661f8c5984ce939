// Package auth owns the credential state shared by every API request.
//
// # Token Cache
//
// [TokenCache] is the single mutable resource in the client. It is created empty, filled by
// [Login] or [TokenFile.Load], and mutated in place by [TokenCache.Refresh]. Every component
// that issues requests receives the same *TokenCache.
//
// Freshness is computed from the token's issuance instant plus its lifetime. A refresh
// replaces the access token and lifetime but keeps the refresh token, because refresh
// responses usually omit it.
//
// # Gateway
//
// [Gateway] is the OAuth collaborator. [OAuthGateway] implements it with [oauth2.Config]
// against the Google endpoints, using PKCE S256 for the authorization-code exchange.
//
// Gateway failures are typed:
//   - [shared.ErrAuthFailed] : the token endpoint rejected the exchange
//   - [shared.ErrTransport] : the exchange never got a response
//
// # Login Handlers
//
// The human step of the flow is a [LoginHandler]. [StdioLogin] prompts on a terminal;
// the server package provides a loopback redirect capture.
package auth
