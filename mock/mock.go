// Package mock is used to generate mock files for testing.
package mock

//go:generate mockgen -source ../principal/principal.go -destination mock_principal/mock_principal.go
//go:generate mockgen -source ../sessionstore/sessionstore.go -destination mock_sessionstore/mock_sessionstore.go
//go:generate mockgen -package auth -source ../auth/cookies.go -destination ../auth/mock_cookies_test.go
