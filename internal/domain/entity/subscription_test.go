package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Machine Learning", want: "machine learning"},
		{name: "trims surrounding whitespace", input: "  cs.AI  ", want: "cs.ai"},
		{name: "collapses internal whitespace", input: "quantum\t  computing", want: "quantum computing"},
		{name: "empty input", input: "", want: ""},
		{name: "whitespace only", input: "   \t\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTopic(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		wantErr bool
	}{
		{name: "valid category code", topic: "cs.ai", wantErr: false},
		{name: "valid keyword phrase", topic: "large language models", wantErr: false},
		{name: "empty", topic: "", wantErr: true},
		{name: "too long", topic: strings.Repeat("a", maxTopicLength+1), wantErr: true},
		{name: "exactly at limit", topic: strings.Repeat("a", maxTopicLength), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTopic(tt.topic)
			if tt.wantErr {
				assert.Error(t, err)
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
				assert.Equal(t, "topic", vErr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, ValidateUserID(123456789))
	assert.Error(t, ValidateUserID(0))
}
