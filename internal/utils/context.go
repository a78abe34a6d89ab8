// Package utils provides shared utility functions and constants
package utils

// ContextKeyCreds is the key used to store credentials in the echo context
const ContextKeyCreds = "creds"

// CookieName is the name of the cookie carrying the API token
const CookieName = "IronSeal"

// BearerPrefix precedes the API token in the Authorization header
const BearerPrefix = "Bearer "
