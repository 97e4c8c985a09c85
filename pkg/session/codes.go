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

import "github.com/carverauto/camshim/pkg/models"

// Error codes reported by the P2P tunnel library (IOTC and AV layers).
const (
	CodeServerNotResponse         = -1
	CodeFailResolveHostname       = -2
	CodeNotInitialized            = -12
	CodeTimeout                   = -13
	CodeInvalidSID                = -14
	CodeUnknownDevice             = -15
	CodeCanNotFindDevice          = -19
	CodeSessionClosedByRemote     = -22
	CodeRemoteTimeoutDisconnect   = -23
	CodeDeviceNotListening        = -24
	CodeChannelNotOn              = -26
	CodeNetworkUnreachable        = -41
	CodeDeviceOffline             = -90
	CodeAVWrongViewAccOrPwd       = -20009
	CodeAVInvalidSID              = -20010
	CodeAVTimeout                 = -20011
	CodeAVSessionClosedByRemote   = -20015
	CodeAVRemoteTimeoutDisconnect = -20016
)

// CodeTable maps connector error codes to error kinds. Codes missing from
// the table classify as models.ErrorKindUnknown.
type CodeTable map[int]models.ErrorKind

// DefaultCodeTable returns a fresh copy of the built-in table.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		CodeTimeout:   models.ErrorKindTimeout,
		CodeAVTimeout: models.ErrorKindTimeout,

		CodeAVWrongViewAccOrPwd: models.ErrorKindAuthRejected,

		CodeServerNotResponse:   models.ErrorKindUnreachable,
		CodeFailResolveHostname: models.ErrorKindUnreachable,
		CodeUnknownDevice:       models.ErrorKindUnreachable,
		CodeCanNotFindDevice:    models.ErrorKindUnreachable,
		CodeDeviceNotListening:  models.ErrorKindUnreachable,
		CodeNetworkUnreachable:  models.ErrorKindUnreachable,
		CodeDeviceOffline:       models.ErrorKindUnreachable,

		CodeNotInitialized:            models.ErrorKindProtocol,
		CodeInvalidSID:                models.ErrorKindProtocol,
		CodeSessionClosedByRemote:     models.ErrorKindProtocol,
		CodeRemoteTimeoutDisconnect:   models.ErrorKindProtocol,
		CodeChannelNotOn:              models.ErrorKindProtocol,
		CodeAVInvalidSID:              models.ErrorKindProtocol,
		CodeAVSessionClosedByRemote:   models.ErrorKindProtocol,
		CodeAVRemoteTimeoutDisconnect: models.ErrorKindProtocol,
	}
}

// Kind classifies code.
func (t CodeTable) Kind(code int) models.ErrorKind {
	if kind, ok := t[code]; ok {
		return kind
	}

	return models.ErrorKindUnknown
}

// With returns a copy of t with overrides applied.
func (t CodeTable) With(overrides map[int]models.ErrorKind) CodeTable {
	out := make(CodeTable, len(t)+len(overrides))

	for code, kind := range t {
		out[code] = kind
	}

	for code, kind := range overrides {
		out[code] = kind
	}

	return out
}
