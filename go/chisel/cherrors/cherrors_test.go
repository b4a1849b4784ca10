/*
Copyright 2026 The Chisel Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cherrors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, Contract, CodeOf(New(Contract, "bad projection")))
	assert.Equal(t, Mutation, CodeOf(Errorf(Mutation, "table %q is stale", "t")))
	assert.Equal(t, Backend, CodeOf(Wrapf(Backend, io.ErrUnexpectedEOF, "scan failed")))

	// errors that never passed through this package classify as Backend
	assert.Equal(t, Backend, CodeOf(io.EOF))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := New(Unsupported, "no writer for extension")
	wrapped := fmt.Errorf("materialize: %w", err)
	assert.Equal(t, Unsupported, CodeOf(wrapped))
}

func TestWrapfNil(t *testing.T) {
	require.NoError(t, Wrapf(Backend, nil, "ignored"))
}

func TestWrapfMessage(t *testing.T) {
	err := Wrapf(Backend, io.ErrClosedPipe, "cannot scan %q", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot scan "t"`)
	assert.Contains(t, err.Error(), io.ErrClosedPipe.Error())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "MUTATION", Mutation.String())
	assert.Equal(t, "CONTRACT", Contract.String())
	assert.Equal(t, "UNSUPPORTED", Unsupported.String())
	assert.Equal(t, "BACKEND", Backend.String())
	assert.Equal(t, "INTERNAL", Internal.String())
	assert.Equal(t, "UNKNOWN", Code(42).String())
}
