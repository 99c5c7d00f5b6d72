package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoticeText(t *testing.T) {
	tests := []struct {
		name   string
		notice Notice
		want   string
	}{
		{name: "title only", notice: Success("Login successful", ""), want: "Login successful"},
		{name: "detail only", notice: Notice{Detail: "retry later"}, want: "retry later"},
		{name: "both", notice: Error("Error", "Invalid OTP"), want: "Error: Invalid OTP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.notice.Text())
		})
	}
	assert.Equal(t, NoticeInfo, Info("Conversation cleared", "").Kind)
	assert.True(t, Notice{}.IsZero())
	assert.False(t, Warning("Heads up", "").IsZero())
}
