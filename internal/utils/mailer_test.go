package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendgridMailerBuild(t *testing.T) {
	m := NewSendgridMailer("SG.test", "Society Office", "office@society.test", true)
	v3 := m.build(Email{
		To:        []string{"seller@example.com", "buyer@example.com"},
		CC:        []string{"chair@society.test"},
		Subject:   "Acknowledgement",
		PlainText: "plain",
		HTML:      "<p>html</p>",
	})

	require.Len(t, v3.Personalizations, 1)
	p := v3.Personalizations[0]
	require.Len(t, p.To, 2)
	assert.Equal(t, "seller@example.com", p.To[0].Address)
	assert.Equal(t, "buyer@example.com", p.To[1].Address)
	require.Len(t, p.CC, 1)
	assert.Equal(t, "chair@society.test", p.CC[0].Address)
	assert.Equal(t, "office@society.test", v3.From.Address)
	require.Len(t, v3.Content, 2)
	require.NotNil(t, v3.MailSettings)
	require.NotNil(t, v3.MailSettings.SandboxMode)
	assert.True(t, *v3.MailSettings.SandboxMode.Enable)
}

func TestSendgridMailerRejectsEmptyRecipients(t *testing.T) {
	m := NewSendgridMailer("SG.test", "Society Office", "office@society.test", true)
	err := m.Send(context.Background(), Email{Subject: "x"})
	assert.Error(t, err)
}
