// Package auth provides authentication middleware for the REST API.
//
// APIKey(mode, header, key, open...) returns HTTP middleware that validates
// the API key from the named request header.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). Paths listed in open, and CORS
// preflight requests, are never checked. When the key is incorrect or absent
// the middleware answers 401 with a JSON error body.
package auth
