package model

import "fmt"

// ConfigurationError reports a missing or empty required setting. It is fatal.
type ConfigurationError struct {
	Var string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required env var: %s", e.Var)
}

// AuthError reports credentials the platform will not (or cannot) accept.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: not authorized", e.Op)
	}
	return fmt.Sprintf("%s: not authorized: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError reports a name the platform could not resolve.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s: %s", e.Kind, e.Name)
}

// ValidationError reports a locally detected constraint violation. Nothing was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError reports a network or HTTP failure talking to a provider.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PostError reports a well-formed post the platform rejected.
type PostError struct {
	Status int
	Detail string
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post rejected (HTTP %d): %s", e.Status, e.Detail)
}
