package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
)

func TestValidateComic(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		c         comic.Comic
		field     string
	}{
		{"valid", 5, comic.Comic{Num: 5, Title: "ok"}, ""},
		{"latest accepts any", 0, comic.Comic{Num: 3000}, ""},
		{"empty title is allowed", 5, comic.Comic{Num: 5}, ""},
		{"zero num", 0, comic.Comic{}, "num"},
		{"mismatched num", 5, comic.Comic{Num: 6}, "num"},
		{"long title", 5, comic.Comic{Num: 5, Title: strings.Repeat("x", maxTitleLength+1)}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComic(tt.requested, &tt.c)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidationError_SortedMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "too long", "num": "bad"}}
	assert.Equal(t, "num:bad; title:too long", err.Error())
}
