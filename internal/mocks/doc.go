// Package mocks contains mockery-generated test doubles for the ports.
//
// Regenerate with:
//
//	mockery --dir internal/ports --name 'QuoteSource|MessageSender|HealthRegistry' --with-expecter --output internal/mocks --outpkg mocks
package mocks
