package errdefs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checkFn func(error) bool
	}{
		{"direct unsupported", ErrFeatureUnsupported, IsFeatureUnsupported},
		{"wrapped unsupported", fmt.Errorf("wrap: %w", ErrFeatureUnsupported), IsFeatureUnsupported},
		{"constructed unsupported", FeatureUnsupportedf("no %s on this host", "cpb"), IsFeatureUnsupported},
		{"direct invalid argument", ErrInvalidArgument, IsInvalidArgument},
		{"constructed invalid argument", InvalidArgumentf("n must be >= 1, got %d", 0), IsInvalidArgument},
		{"direct io error", ErrIOError, IsIOError},
		{"constructed io error", IOErrorf("read %s: %v", "/sys/x", "boom"), IsIOError},
		{"direct failed operation", ErrFailedOperation, IsFailedOperation},
		{"constructed failed operation", FailedOperationf("no TDP interface available"), IsFailedOperation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.checkFn(tc.err))
		})
	}
}

func TestErrorKindsAreMutuallyExclusive(t *testing.T) {
	assert.False(t, IsInvalidArgument(ErrIOError))
	assert.False(t, IsIOError(ErrInvalidArgument))
	assert.False(t, IsFailedOperation(ErrFeatureUnsupported))
}

func TestConstructedErrorMessage(t *testing.T) {
	err := InvalidArgumentf("tdp must be >= %v, got %v", 1.0, 0.9)
	assert.Equal(t, "tdp must be >= 1, got 0.9", err.Error())
}
