package format

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatQuoteNumber(t *testing.T) {
	createdAt := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		template string
		seq      int64
		want     string
	}{
		{DefaultQuoteNumberTemplate, 7, "DEV-2025-007"},
		{DefaultQuoteNumberTemplate, 0, "DEV-2025-000"},
		{DefaultQuoteNumberTemplate, 999, "DEV-2025-999"},
		{"Q{YY}{MM}{DD}-{SEQ}", 42, "Q250307-42"},
	}

	for _, tt := range tests {
		got, err := FormatQuoteNumber(tt.template, createdAt, tt.seq)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatQuoteNumber_Errors(t *testing.T) {
	now := time.Now()

	_, err := FormatQuoteNumber("", now, 1)
	assert.Error(t, err)

	_, err = FormatQuoteNumber(DefaultQuoteNumberTemplate, now, -1)
	assert.Error(t, err)

	_, err = FormatQuoteNumber("DEV-{BAD}", now, 1)
	assert.Error(t, err)
}

func TestNewQuoteNumber(t *testing.T) {
	createdAt := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "DEV-2024-123", NewQuoteNumber(createdAt, func() int64 { return 123 }))
	assert.Equal(t, "DEV-2024-000", NewQuoteNumber(createdAt, func() int64 { return -5 }))

	pattern := regexp.MustCompile(`^DEV-2024-\d{3}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, NewQuoteNumber(createdAt, nil))
	}
}
