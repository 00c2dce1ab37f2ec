package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, ParseOrigins(" , ,"))
	assert.Equal(t,
		[]string{"https://a.example.com", "https://b.example.com"},
		ParseOrigins(" https://a.example.com, https://b.example.com "))
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

func TestBuildDBCheck(t *testing.T) {
	check := BuildDBCheck(pingStub{})
	require.NoError(t, check(context.Background()))

	check = BuildDBCheck(pingStub{err: fmt.Errorf("refused")})
	assert.Error(t, check(context.Background()))

	check = BuildDBCheck(nil)
	assert.Error(t, check(context.Background()))
}
