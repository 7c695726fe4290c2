// Package supabase provides the remote store client for a hosted Supabase project.
//
// # Overview
//
// The handbook keeps its data in two PostgREST tables and authenticates
// editors through GoTrue. Client implements both halves of the contract the
// state container needs (state.Remote and state.Auth).
//
// # Endpoints
//
//	GET    /rest/v1/<entries>?select=*            all entries
//	GET    /rest/v1/<categories>?select=name      all category names
//	POST   /rest/v1/<entries>                     insert, Prefer: return=representation
//	PATCH  /rest/v1/<entries>?id=eq.<id>          update, Prefer: return=representation
//	DELETE /rest/v1/<entries>?id=eq.<id>          delete
//	POST   /rest/v1/<categories>                  insert category
//	POST   /auth/v1/token?grant_type=password     sign in
//	POST   /auth/v1/logout                        sign out
//
// Table names default to "entries" and "kategorien" and can be overridden.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Send apikey and Authorization headers (user token when signed in, anon key otherwise)
//   - Set Accept: application/json and User-Agent: handbook/0.1
//   - Return wrapped errors; non-2xx responses become *APIError
//
// The client sets no request timeout of its own. A hung call lasts as long as
// the caller's context.
//
// # Sessions
//
// SignIn and SignOut publish on an internal session.Bus; OnSessionChange hands
// out subscriptions that first receive the current session. A failed SignOut
// keeps the local session, so local and remote state may disagree until the
// next attempt.
//
// When Options.SessionFile is set the session survives restarts: it is written
// after sign-in, deleted after sign-out, and restored by NewClient unless the
// access token has expired.
package supabase
