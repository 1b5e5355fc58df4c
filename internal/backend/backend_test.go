package backend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	base := errors.New("UNIQUE constraint failed: users.email")
	err := &Error{Code: CodeUnique, Op: "insert", Collection: "users", Err: base}

	assert.Equal(t, CodeUnique, CodeOf(err))
	assert.Equal(t, CodeUnique, CodeOf(fmt.Errorf("store: %w", err)))
	assert.Equal(t, CodeUnknown, CodeOf(base))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
	assert.ErrorIs(t, err, base)
}

func TestError_Message(t *testing.T) {
	err := &Error{Code: CodeReference, Op: "remove", Collection: "users", Err: errors.New("FOREIGN KEY constraint failed")}
	assert.Equal(t, "remove users: reference violation: FOREIGN KEY constraint failed", err.Error())
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "unique", CodeUnique.String())
	assert.Equal(t, "reference", CodeReference.String())
	assert.Equal(t, "check", CodeCheck.String())
	assert.Equal(t, "unknown", CodeUnknown.String())
}
