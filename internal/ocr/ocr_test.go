package ocr

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguages(t *testing.T) {
	assert.Equal(t, []string{"eng", "deu"}, ParseLanguages("eng+deu"))
	assert.Equal(t, []string{"eng", "fra"}, ParseLanguages(" eng, fra "))
	assert.Nil(t, ParseLanguages(""))
}

func TestIsEngineMissing(t *testing.T) {
	assert.True(t, IsEngineMissing(fmt.Errorf("init: %w", ErrEngineMissing)))
	assert.False(t, IsEngineMissing(ErrUnavailable))
}

func TestUnusable(t *testing.T) {
	e := Unusable("tesseract", ErrEngineMissing)
	assert.Equal(t, "tesseract", e.Name())
	_, err := e.Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEngineMissing)
}
