package email

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendResetCode_MockModeWithoutHost(t *testing.T) {
	s := NewSender("", "587", "", "", "no-reply@huddle.local", zap.NewNop())
	require.NoError(t, s.SendResetCode("amy@example.com", "code-123"))
}
