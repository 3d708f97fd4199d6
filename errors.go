// Copyright 2024 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package stripepool

import (
	"fmt"

	"github.com/juju/errors"
)

// ConfigError reports an invalid idleTimeout or maxResources argument to
// New. It is fatal to construction; the caller must fix its arguments and
// retry.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string { return e.err.Error() }
func (e *ConfigError) Unwrap() error { return e.err }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{err: errors.Errorf(format, args...)}
}

// CreateFailure wraps whatever error the caller's CreateFunc returned. The
// pool restores the stripe's available counter before propagating it, so a
// later Take behaves exactly as if the failed create had never happened.
type CreateFailure struct {
	err error
}

func (e *CreateFailure) Error() string {
	return fmt.Sprintf("stripepool: create failed: %v", e.err)
}

func (e *CreateFailure) Unwrap() error { return e.err }

func newCreateFailure(err error) *CreateFailure {
	return &CreateFailure{err: errors.Trace(err)}
}
