// Copyright (C) 2025 Austin Beattie
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package apperrors implements the error taxonomy of spec.md §7: a small
// set of typed errors that every layer (store, provider adapters, sync
// engine, action dispatcher) returns instead of ad-hoc errors, so the HTTP
// boundary can map them to status codes with a single switch.
package apperrors

import (
	"errors"
	"fmt"
)

// NotFoundError means the requested entity id does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NewNotFound constructs a NotFoundError.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// AlreadyExistsError means a natural-key uniqueness constraint was
// violated (spec §3.1, §4.1: callers retry the operation as an update).
type AlreadyExistsError struct {
	Entity string
	Key    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Entity, e.Key)
}

// NewAlreadyExists constructs an AlreadyExistsError.
func NewAlreadyExists(entity, key string) error {
	return &AlreadyExistsError{Entity: entity, Key: key}
}

// InvalidInputError means a caller-supplied patch or body was malformed,
// missing a required field, or named an invalid enum value.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// NewInvalidInput constructs an InvalidInputError.
func NewInvalidInput(reason string) error {
	return &InvalidInputError{Reason: reason}
}

// UnauthorizedError means there is no valid session, or a provider
// revoked the access token we held for it.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Reason
}

// NewUnauthorized constructs an UnauthorizedError.
func NewUnauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

// RecoverableError wraps a transient provider failure (network blip, 5xx,
// rate limit) that the HTTP retry middleware or the job queue's
// at-least-once redelivery should retry (spec §4.2, §4.2.2).
type RecoverableError struct {
	Provider string
	Cause    error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: recoverable error: %v", e.Provider, e.Cause)
}

func (e *RecoverableError) Unwrap() error { return e.Cause }

// NewRecoverable constructs a RecoverableError.
func NewRecoverable(provider string, cause error) error {
	return &RecoverableError{Provider: provider, Cause: cause}
}

// PermanentError wraps a provider 4xx (other than auth/not-found) that
// will not succeed on retry. The caller surfaces it via the connection's
// failure_message (spec §4.2, §7).
type PermanentError struct {
	Provider string
	Cause    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: permanent error: %v", e.Provider, e.Cause)
}

func (e *PermanentError) Unwrap() error { return e.Cause }

// NewPermanent constructs a PermanentError.
func NewPermanent(provider string, cause error) error {
	return &PermanentError{Provider: provider, Cause: cause}
}

// IsNotFound, IsAlreadyExists, IsInvalidInput, IsUnauthorized,
// IsRecoverable and IsPermanent classify an error using errors.As, so
// wrapped errors (fmt.Errorf("...: %w", err)) still match.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAlreadyExists reports whether err is (or wraps) an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var e *AlreadyExistsError
	return errors.As(err, &e)
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}

// IsUnauthorized reports whether err is (or wraps) an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}

// IsRecoverable reports whether err is (or wraps) a RecoverableError.
func IsRecoverable(err error) bool {
	var e *RecoverableError
	return errors.As(err, &e)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var e *PermanentError
	return errors.As(err, &e)
}
