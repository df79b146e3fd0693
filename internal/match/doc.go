// Package match detects mutual selections by token-occurrence counting,
// verifies the result against a fresh recount, and supports purely
// client-side discovery against a published matched-token list.
package match
