// Package mocks provides mock implementations for testing the auth session subsystem.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// port interfaces. The mocks are generated using go:generate directives and provide
// a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockAPI := mocks.NewMockAuthAPI(ctrl)
//	mockAPI.EXPECT().Login(gomock.Any(), gomock.Any()).Return(grant, nil)
package mocks

// Generate mock for AuthAPI interface from internal/ports.
// This creates MockAuthAPI with methods for all AuthAPI interface methods:
// Login, Register, RefreshToken, Logout, GetProfile, UpdateProfile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/foliohq/folio-auth/internal/ports AuthAPI

// Generate mock for CredentialStore interface from internal/ports.
// This creates MockCredentialStore with methods for all CredentialStore interface methods:
// Get, Set, Delete, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/foliohq/folio-auth/internal/ports CredentialStore
