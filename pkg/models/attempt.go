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

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a failed connection attempt.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindTimeout
	ErrorKindAuthRejected
	ErrorKindUnreachable
	ErrorKindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindAuthRejected:
		return "auth_rejected"
	case ErrorKindUnreachable:
		return "unreachable"
	case ErrorKindProtocol:
		return "protocol_error"
	case ErrorKindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ParseErrorKind is the inverse of String.
func ParseErrorKind(s string) (ErrorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timeout":
		return ErrorKindTimeout, nil
	case "auth_rejected":
		return ErrorKindAuthRejected, nil
	case "unreachable":
		return ErrorKindUnreachable, nil
	case "protocol_error":
		return ErrorKindProtocol, nil
	case "unknown":
		return ErrorKindUnknown, nil
	default:
		return ErrorKindUnknown, fmt.Errorf("%w: %q", ErrInvalidErrorKind, s)
	}
}

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ErrorKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	kind, err := ParseErrorKind(s)
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// AttemptOutcome is the result of one connection attempt.
type AttemptOutcome struct {
	Success   bool       `json:"success"`
	ErrorKind *ErrorKind `json:"error_kind,omitempty"`
	ErrorCode *int       `json:"error_code,omitempty"`
}

// SuccessOutcome returns the outcome of a successful attempt.
func SuccessOutcome() AttemptOutcome {
	return AttemptOutcome{Success: true}
}

// FailureOutcome returns a failed outcome. A nil code means the failure had
// no connector error code, e.g. a cancelled attempt.
func FailureOutcome(kind ErrorKind, code *int) AttemptOutcome {
	return AttemptOutcome{Success: false, ErrorKind: &kind, ErrorCode: code}
}

// AttemptRecord is the structured record emitted once per attempt.
// It never carries credentials.
type AttemptRecord struct {
	StreamName string            `json:"stream_name"`
	DeviceID   string            `json:"device_id"`
	Decision   TransportDecision `json:"transport_decision"`
	Success    bool              `json:"success"`
	ErrorKind  *ErrorKind        `json:"error_kind,omitempty"`
	ErrorCode  *int              `json:"error_code,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Timestamp  time.Time         `json:"timestamp"`
}
