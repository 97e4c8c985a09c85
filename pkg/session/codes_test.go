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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/camshim/pkg/models"
)

func TestDefaultCodeTable(t *testing.T) {
	table := DefaultCodeTable()

	assert.Equal(t, models.ErrorKindTimeout, table.Kind(CodeTimeout))
	assert.Equal(t, models.ErrorKindAuthRejected, table.Kind(CodeAVWrongViewAccOrPwd))
	assert.Equal(t, models.ErrorKindUnreachable, table.Kind(CodeDeviceOffline))
	assert.Equal(t, models.ErrorKindProtocol, table.Kind(CodeAVSessionClosedByRemote))
	assert.Equal(t, models.ErrorKindUnknown, table.Kind(0))
	assert.Equal(t, models.ErrorKindUnknown, table.Kind(-99999))
}

func TestDefaultCodeTable_ReturnsCopies(t *testing.T) {
	a := DefaultCodeTable()
	a[CodeTimeout] = models.ErrorKindProtocol

	assert.Equal(t, models.ErrorKindTimeout, DefaultCodeTable().Kind(CodeTimeout))
}

func TestCodeTable_With(t *testing.T) {
	base := CodeTable{CodeTimeout: models.ErrorKindTimeout}

	merged := base.With(map[int]models.ErrorKind{
		CodeTimeout: models.ErrorKindUnreachable,
		-5000:       models.ErrorKindProtocol,
	})

	assert.Equal(t, models.ErrorKindUnreachable, merged.Kind(CodeTimeout))
	assert.Equal(t, models.ErrorKindProtocol, merged.Kind(-5000))
	assert.Equal(t, models.ErrorKindTimeout, base.Kind(CodeTimeout))
	assert.Len(t, base, 1)
}

func TestConnectError_Message(t *testing.T) {
	err := NewConnectError(CodeTimeout, "IOTC connect timed out")
	assert.Equal(t, "connect error -13: IOTC connect timed out", err.Error())

	wrapped := &ConnectError{Code: CodeDeviceOffline, Message: "dial", Err: errSocketReset}
	assert.ErrorIs(t, wrapped, errSocketReset)
}

func TestAttemptError_Message(t *testing.T) {
	code := CodeTimeout
	err := &AttemptError{StreamName: "garage", Kind: models.ErrorKindTimeout, Code: &code, Err: errSocketReset}

	assert.Equal(t, `stream "garage": timeout (code -13): socket reset`, err.Error())
	assert.ErrorIs(t, err, ErrAttemptFailed)
	assert.ErrorIs(t, err, errSocketReset)
}
