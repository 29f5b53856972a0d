package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublic(t *testing.T) {
	tests := []struct {
		name string
		in   PublicInput
		want Decision
	}{
		{"anonymous", PublicInput{}, Decision{State: Allow}},
		{"anonymous with path", PublicInput{AfterLoginPath: "/x"}, Decision{State: Allow}},
		{"signed in no path", PublicInput{Authenticated: true}, Decision{State: DenyRedirect, Location: "/documents"}},
		{"signed in fallback", PublicInput{Authenticated: true, Fallback: "/home"}, Decision{State: DenyRedirect, Location: "/home"}},
		{"signed in path", PublicInput{Authenticated: true, AfterLoginPath: "/documents/abc?tab=1", Fallback: "/home"}, Decision{State: DenyRedirect, Location: "/documents/abc?tab=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Public(tt.in))
		})
	}
}

func TestAuthenticated(t *testing.T) {
	assert.Equal(t, Decision{State: Allow}, Authenticated(AuthenticatedInput{Authenticated: true}))
	assert.Equal(t, Decision{State: DenyRedirect, Location: "/login"}, Authenticated(AuthenticatedInput{}))
}

func TestAuthorized(t *testing.T) {
	tests := []struct {
		name string
		in   AuthorizedInput
		want Decision
	}{
		{
			name: "no user",
			in:   AuthorizedInput{RequiredRoles: []string{"admin"}},
			want: Decision{State: DenyRedirect, Location: "/"},
		},
		{
			name: "no user custom failure",
			in:   AuthorizedInput{RequiredRoles: []string{"admin"}, PathAfterFailure: "/documents"},
			want: Decision{State: DenyRedirect, Location: "/documents"},
		},
		{
			name: "loading",
			in:   AuthorizedInput{UserID: 1, RolesLoading: true, RequiredRoles: []string{"admin"}},
			want: Decision{State: Pending},
		},
		{
			name: "no roles",
			in:   AuthorizedInput{UserID: 1, RequiredRoles: []string{"admin"}},
			want: Decision{State: DenyRedirect, Location: "/"},
		},
		{
			name: "wrong role",
			in:   AuthorizedInput{UserID: 1, UserRoles: []string{"user"}, RequiredRoles: []string{"admin"}},
			want: Decision{State: DenyRedirect, Location: "/"},
		},
		{
			name: "one of",
			in:   AuthorizedInput{UserID: 1, UserRoles: []string{"user"}, RequiredRoles: []string{"admin", "user"}},
			want: Decision{State: Allow},
		},
		{
			name: "empty required",
			in:   AuthorizedInput{UserID: 1, UserRoles: []string{"admin"}},
			want: Decision{State: DenyRedirect, Location: "/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorized(tt.in))
		})
	}
}

func TestDecisionAt(t *testing.T) {
	d := Decision{State: DenyRedirect, Location: "/login?next=1"}
	assert.Equal(t, Decision{State: DenyBlank}, d.At("/login"))
	assert.Equal(t, d, d.At("/documents"))
	assert.Equal(t, Decision{State: Allow}, Decision{State: Allow}.At("/login"))
}

func TestMountLatchesAllow(t *testing.T) {
	m := NewMount()
	assert.Equal(t, Pending, m.Decision().State)

	assert.Equal(t, Pending, m.Step(Decision{State: Pending}).State)
	assert.Equal(t, Allow, m.Step(Decision{State: Allow}).State)

	got := m.Step(Decision{State: DenyRedirect, Location: "/"})
	assert.Equal(t, Allow, got.State)
	assert.Equal(t, Allow, m.Decision().State)
}

func TestMountFollowsUntilAllow(t *testing.T) {
	m := NewMount()

	assert.Equal(t, DenyRedirect, m.Step(Decision{State: DenyRedirect, Location: "/"}).State)
	assert.Equal(t, Pending, m.Step(Decision{State: Pending}).State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "ALLOW", Allow.String())
	assert.Equal(t, "DENY-REDIRECT", DenyRedirect.String())
	assert.Equal(t, "DENY-BLANK", DenyBlank.String())
}
