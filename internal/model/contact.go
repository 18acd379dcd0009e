// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. The `json:"..."` tags match
// the field names the front-end sends and expects.
package model

import "strings"

// ContactSubmission is one contact-form payload submitted by a site visitor.
//
// It lives only for the duration of the request that carries it: the
// dispatcher renders it into an email and drops it. Nothing here is ever
// written to the database.
//
// The `validate` tags are read by go-playground/validator in the service
// layer. LastName, Phone and Service are optional in the form, so they only
// carry a length cap.
type ContactSubmission struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"max=100"`
	Email     string `json:"email"     validate:"required,email,max=254"`
	Phone     string `json:"phone"     validate:"max=40"`
	Service   string `json:"service"   validate:"max=100"`
	Message   string `json:"message"   validate:"required,max=5000"`
}

// FullName joins first and last name the way the email subject shows it.
// A missing last name leaves no trailing space.
func (s ContactSubmission) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
