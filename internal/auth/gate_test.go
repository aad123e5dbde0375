package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateDecide(t *testing.T) {
	g, err := NewGate(DefaultRoutes(), nil)
	require.NoError(t, err)

	cases := []struct {
		name     string
		loggedIn bool
		path     string
		redirect string
	}{
		{"anonymous root", false, "/", ""},
		{"anonymous home", false, "/Home/Index", ""},
		{"anonymous login", false, "/Account/Login", ""},
		{"anonymous signup", false, "/Account/Signup", ""},
		{"anonymous posts", false, "/Posts/Index", "/Account/Login"},
		{"anonymous logout", false, "/Account/Logout", "/Account/Login"},
		{"logged in root", true, "/", ""},
		{"logged in home", true, "/Home/Index", ""},
		{"logged in login", true, "/Account/Login", "/Home/Index"},
		{"logged in signup", true, "/Account/Signup", "/Home/Index"},
		{"logged in posts", true, "/Posts/Index", ""},
		{"logged in logout", true, "/Account/Logout", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Decide(tc.loggedIn, tc.path)
			assert.Equal(t, tc.redirect, d.RedirectTo)
			assert.Equal(t, tc.redirect == "", d.Allowed())
		})
	}
}

func TestGatePublicPatterns(t *testing.T) {
	g, err := NewGate(DefaultRoutes(), []string{"/health", "/static/**"})
	require.NoError(t, err)

	assert.True(t, g.Decide(false, "/health").Allowed())
	assert.True(t, g.Decide(false, "/static/css/site.css").Allowed())
	assert.False(t, g.Decide(false, "/healthz").Allowed())
	assert.False(t, g.Decide(false, "/metrics").Allowed())
}

func TestNewGateRejectsBadPattern(t *testing.T) {
	_, err := NewGate(DefaultRoutes(), []string{"/static/[a"})
	require.Error(t, err)
}
