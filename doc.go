// Package main provides the entry point of keyward, an identity and access control service.
// It stores principals with hashed credentials, authenticates them by account name, email
// or phone with brute-force lockout, and resolves their roles and permissions for access
// decisions served by a Fiber JSON API backed by gorm.
package main
