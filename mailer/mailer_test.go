package mailer

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	attachment := []byte(strings.Repeat("workbook bytes ", 20))
	msg, err := buildMessage("fwat@school.cn",
		[]string{"head@school.cn", "kitchen@school.cn"},
		"Weekly recap", "Recap attached.", "recap-2024-05-13.xlsx", attachment)
	require.NoError(t, err)

	text := string(msg)
	assert.Contains(t, text, "From: fwat@school.cn\r\n")
	assert.Contains(t, text, "To: head@school.cn, kitchen@school.cn\r\n")
	assert.Contains(t, text, "Subject: Weekly recap\r\n")
	assert.Contains(t, text, "Content-Type: multipart/mixed")
	assert.Contains(t, text, "Recap attached.")
	assert.Contains(t, text, attachmentContentType)
	assert.Contains(t, text, `filename="recap-2024-05-13.xlsx"`)
	assert.True(t, strings.HasSuffix(text, "--fwat-report-boundary--\r\n"))
}

func TestBuildMessageAttachmentRoundTrips(t *testing.T) {
	attachment := []byte(strings.Repeat("0123456789", 50))
	msg, err := buildMessage("fwat@school.cn", []string{"head@school.cn"},
		"s", "b", "recap.xlsx", attachment)
	require.NoError(t, err)

	// Pull the base64 block back out and decode it.
	text := string(msg)
	start := strings.Index(text, "base64\r\n")
	require.GreaterOrEqual(t, start, 0)
	block := text[start+len("base64\r\n"):]
	// Skip the disposition header and blank line.
	block = block[strings.Index(block, "\r\n\r\n")+4:]
	end := strings.Index(block, "\r\n--fwat-report-boundary--")
	require.GreaterOrEqual(t, end, 0)

	lines := strings.Split(block[:end], "\r\n")
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 76)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.Join(lines, ""))
	require.NoError(t, err)
	assert.Equal(t, attachment, decoded)
}

func TestBuildMessageEncodesNonASCIISubject(t *testing.T) {
	msg, err := buildMessage("fwat@school.cn", []string{"head@school.cn"},
		"食物浪费周报", "b", "recap.xlsx", []byte("x"))
	require.NoError(t, err)

	text := string(msg)
	assert.NotContains(t, text, "Subject: 食物浪费周报")
	assert.Contains(t, text, "Subject: =?utf-8?")
}

func TestSendReportRequiresRecipients(t *testing.T) {
	m := New("smtp.school.cn", "25", "", "", "fwat@school.cn")
	err := m.SendReport(nil, "s", "b", "recap.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
}

func TestSendReportMissingAttachment(t *testing.T) {
	m := New("smtp.school.cn", "25", "", "", "fwat@school.cn")
	err := m.SendReport([]string{"head@school.cn"}, "s", "b",
		filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attachment")
}
