package service

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrorCodes resolves twilio error codes to their description using the
// error dictionary file published by twilio.
type ErrorCodes struct {
	messages map[int64]string
	logger   *zap.Logger
}

type errorCodeEntry struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// LoadErrorCodes reads the dictionary at path. A missing or unreadable file
// leaves the table empty; every lookup then resolves to nil.
func LoadErrorCodes(path string, logger *zap.Logger) *ErrorCodes {
	ec := &ErrorCodes{messages: map[int64]string{}, logger: logger}
	if path == "" {
		logger.Warn("twilio error code dictionary not configured")
		return ec
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("twilio error code dictionary not found", zap.String("path", path))
		return ec
	}
	if err != nil {
		logger.Error("unable to read twilio error code dictionary", zap.String("path", path), zap.Error(err))
		return ec
	}

	var entries []errorCodeEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		logger.Error("unable to parse twilio error code dictionary", zap.String("path", path), zap.Error(err))
		return ec
	}
	for _, e := range entries {
		ec.messages[e.Code] = e.Message
	}

	logger.Info("loaded twilio error codes", zap.Int("count", len(ec.messages)))
	return ec
}

// Lookup returns the description for code, or nil when code is not numeric
// or not in the dictionary.
func (ec *ErrorCodes) Lookup(code string) *string {
	n, err := strconv.ParseInt(strings.TrimSpace(code), 10, 64)
	if err != nil {
		ec.logger.Error("unexpected error code when retrieving error message", zap.String("errorCode", code), zap.Error(err))
		return nil
	}

	msg, ok := ec.messages[n]
	if !ok {
		ec.logger.Warn("no error message for error code", zap.Int64("errorCode", n))
		return nil
	}
	return &msg
}
