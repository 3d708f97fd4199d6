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
	"io"
	"log"
	"os"
	"sync"
)

// Level is a leveled-logging bitmask, following the same encoding as the
// wider codebase's logging package: each level is the previous one shifted
// left and OR'd with 1, so a logger configured at level L emits everything
// of level >= L when tested with L&configured == configured.
type Level uint8

const (
	DebugLevel Level = 1
	InfoLevel  Level = DebugLevel<<1 + 1
	WarnLevel  Level = InfoLevel<<1 + 1
	ErrorLevel Level = WarnLevel<<1 + 1
)

var levelPrefixes = map[Level]string{
	DebugLevel: "[DEBUG]",
	InfoLevel:  "[INFO.]",
	WarnLevel:  "[WARN.]",
	ErrorLevel: "[ERROR]",
}

// Logger is a minimal leveled logger adapted from the wider codebase's
// async file logger, but writing directly to an io.Writer: a pool library
// embedded in a host process has no business opening and rotating its own
// log files, so the rotation machinery is dropped and the destination is
// left to the caller (default os.Stderr).
type Logger struct {
	mu     sync.Mutex
	level  Level
	writer *log.Logger
}

// NewLogger builds a Logger writing to w at the given minimum level.
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{level: level, writer: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	msg := levelPrefixes[level] + " " + fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.writer.Output(3, msg)
	l.mu.Unlock()
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(DebugLevel, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(InfoLevel, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(WarnLevel, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(ErrorLevel, format, args...) }

// defaultLogger is used by pools that don't pass WithLogger.
var defaultLogger = NewLogger(os.Stderr, WarnLevel)
