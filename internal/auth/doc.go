// Package auth provides authentication for the Zafiri CMS API.
//
// It implements bearer-token authentication for the admin console:
//   - Argon2id password hashing (PHC string format)
//   - Short-lived JWT access tokens validated by signature only (no DB hit)
//   - Long-lived random refresh tokens, stored hashed, rotated on every
//     refresh with family-based theft detection: reuse of a rotated token
//     revokes the whole family
//
// The CMS has a single tier of users: administrators. There is no role
// model; an account either exists and is active, or it cannot log in.
package auth
