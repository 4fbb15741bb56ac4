// Package auth provides session based authentication primitives: user
// registration with email verification, credential login, server side
// session checks, and HTTP helpers for cookie handling.
//
// Lifecycle:
//   - Registration stores a pending user with a hashed password and a single
//     use verification token, then dispatches a verification email. Repeating
//     a registration before verifying replaces the pending record; a verified
//     email can never be re-registered.
//   - Verification consumes the token and activates the account. Consumed and
//     expired tokens report distinct errors.
//   - Login checks credentials against verified accounts only, creates an
//     opaque session id in the session store, and hands back a record the
//     HTTP layer turns into an HttpOnly cookie.
//   - Sessions resolve through the store on every check; sign out destroys
//     the record and is idempotent.
//
// Storage is split between a Bun backed user repository and a Redis backed
// session store. Both sit behind interfaces so tests can swap them out.
package auth
