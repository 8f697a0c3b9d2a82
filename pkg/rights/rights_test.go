package rights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type user struct {
	name   string
	admin  bool
	domain string
}

var (
	admin    = New("admin", func(u user) bool { return u.admin })
	inDomain = New("in_domain", func(u user) bool { return u.domain == "example.org" })
	named    = New("named", func(u user) bool { return u.name != "" })
)

func TestOperators(t *testing.T) {
	root := user{name: "root", admin: true, domain: "example.org"}
	guest := user{domain: "elsewhere"}
	staff := user{name: "jo", domain: "example.org"}

	tests := []struct {
		rule Rule[user]
		u    user
		want bool
	}{
		{admin.And(inDomain), root, true},
		{admin.And(inDomain), staff, false},
		{admin.Or(inDomain), staff, true},
		{admin.Or(inDomain), guest, false},
		{admin.Xor(inDomain), root, false},
		{admin.Xor(inDomain), staff, true},
		{admin.Not(), guest, true},
		{admin.Not(), root, false},
		{admin.Or(inDomain).And(named.Not()), staff, false},
		{admin.Or(inDomain).And(named.Not()), user{domain: "example.org"}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rule.Allows(tt.u), "%s for %+v", tt.rule, tt.u)
	}
}

func TestShortCircuit(t *testing.T) {
	calls := 0
	counted := New("counted", func(user) bool { calls++; return true })

	Never[user]().And(counted).Allows(user{})
	Always[user]().Or(counted).Allows(user{})
	assert.Zero(t, calls)

	Always[user]().And(counted).Allows(user{})
	assert.Equal(t, 1, calls)
}

func TestCheck(t *testing.T) {
	rule := admin.Or(inDomain)
	assert.NoError(t, rule.Check(user{admin: true}))

	err := rule.Check(user{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "(admin | in_domain)")
}

func TestAllAny(t *testing.T) {
	assert.True(t, All[user]().Allows(user{}))
	assert.False(t, Any[user]().Allows(user{}))

	staff := user{name: "jo", domain: "example.org"}
	assert.True(t, All(inDomain, named).Allows(staff))
	assert.False(t, All(inDomain, named, admin).Allows(staff))
	assert.True(t, Any(admin, named).Allows(staff))
}

func TestZeroRuleAllows(t *testing.T) {
	var zero Rule[user]
	assert.True(t, zero.Allows(user{}))
	assert.Equal(t, "always", zero.String())
}
