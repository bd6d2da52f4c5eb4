package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaultNum(t *testing.T) {
	var i int
	SetDefaultNum(&i, 5)
	assert.Equal(t, 5, i)

	i = 3
	SetDefaultNum(&i, 5)
	assert.Equal(t, 3, i)

	d := -time.Second
	SetDefaultNum(&d, time.Minute)
	assert.Equal(t, time.Minute, d)
}

func TestSetDefaultString(t *testing.T) {
	s := ""
	SetDefaultString(&s, "x")
	assert.Equal(t, "x", s)
	SetDefaultString(&s, "y")
	assert.Equal(t, "x", s)
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, SecondsToDuration(3))
	assert.Equal(t, time.Duration(0), SecondsToDuration(uint(0)))
}
