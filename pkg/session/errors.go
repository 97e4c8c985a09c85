/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package session

import (
	"errors"
	"fmt"

	"github.com/carverauto/camshim/pkg/models"
)

var (
	// ErrAttemptFailed matches every *AttemptError via errors.Is.
	ErrAttemptFailed = errors.New("connection attempt failed")
	ErrNoContext     = errors.New("connection context is required")
	ErrNoConnector   = errors.New("connector is required")
)

// ConnectError is the error a Connector returns for a coded failure.
type ConnectError struct {
	Code    int
	Message string
	Err     error
}

// NewConnectError returns a ConnectError with no underlying cause.
func NewConnectError(code int, message string) *ConnectError {
	return &ConnectError{Code: code, Message: message}
}

func (e *ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connect error %d: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("connect error %d: %s", e.Code, e.Message)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// AttemptError is returned by Manager.Attempt for every failed attempt. It
// carries the classification and wraps the connector's error.
type AttemptError struct {
	StreamName string
	Kind       models.ErrorKind
	Code       *int
	Err        error
}

func (e *AttemptError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("stream %q: %s (code %d): %v", e.StreamName, e.Kind, *e.Code, e.Err)
	}

	return fmt.Sprintf("stream %q: %s: %v", e.StreamName, e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

func (*AttemptError) Is(target error) bool {
	return target == ErrAttemptFailed
}
