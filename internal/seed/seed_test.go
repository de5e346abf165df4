package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity/internal/database/dbtest"
	"smartcity/internal/domain/marketplace"
	"smartcity/internal/domain/user"
)

const fixture = `
users:
  - name: Sipho Dlamini
    email: Sipho@Durban.example
    password: provider-pass-1
    role: mentor
  - name: Lindiwe Zulu
    email: lindiwe@durban.example
    password: client-pass-1
offerings:
  - provider: sipho@durban.example
    title: Plumbing
    description: Drains
    category: HOME REPAIRS
    price: 450
    delivery_time: same day
    features: [Berea]
requests:
  - owner: lindiwe@durban.example
    title: Fix leaking geyser
    description: Drips
    category: home repairs
    budget: 800
`

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad yaml", "users: [:"},
		{"missing password", "users:\n  - name: A\n    email: a@x.example\n"},
		{"unknown role", "users:\n  - name: A\n    email: a@x.example\n    password: p\n    role: wizard\n"},
		{"duplicate email", "users:\n  - {name: A, email: a@x.example, password: p}\n  - {name: B, email: A@x.example, password: p}\n"},
		{"free offering", "offerings:\n  - {provider: a@x.example, title: T, category: c, price: 0}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	db := dbtest.Open(t, append([]any{&user.User{}}, marketplace.Models()...)...)
	ctx := context.Background()

	f, err := Parse([]byte(fixture))
	require.NoError(t, err)

	res, err := Apply(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Offerings: 1, Requests: 1}, res)

	var provider user.User
	require.NoError(t, db.Where("email = ?", "sipho@durban.example").First(&provider).Error)
	assert.Equal(t, user.RoleMentor, provider.Role)
	assert.True(t, user.PasswordMatches(provider.PasswordHash, "provider-pass-1"))

	var client user.User
	require.NoError(t, db.Where("email = ?", "lindiwe@durban.example").First(&client).Error)
	assert.Equal(t, user.RoleLearner, client.Role)

	var offering marketplace.ServiceOffering
	require.NoError(t, db.First(&offering).Error)
	assert.Equal(t, "Home Repairs", offering.Category)
	assert.True(t, offering.IsActive)
	assert.Equal(t, provider.ID, offering.ProviderID)

	var req marketplace.ServiceRequest
	require.NoError(t, db.First(&req).Error)
	assert.Equal(t, "Home Repairs", req.Category)
	assert.Equal(t, marketplace.RequestOpen, req.Status)

	res, err = Apply(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SkippedUsers)
	assert.Zero(t, res.Users)
}

func TestApply_UnknownUserRollsBack(t *testing.T) {
	db := dbtest.Open(t, append([]any{&user.User{}}, marketplace.Models()...)...)

	f, err := Parse([]byte(`
users:
  - {name: A, email: a@x.example, password: p}
requests:
  - {owner: ghost@x.example, title: T, category: c}
`))
	require.NoError(t, err)

	_, err = Apply(context.Background(), db, f)
	require.Error(t, err)

	var count int64
	db.Model(&user.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestLoad_BundledFixture(t *testing.T) {
	path := filepath.Join("..", "..", "seeds", "durban.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("bundled fixture not present")
	}
	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Users, 4)
	assert.Len(t, f.Offerings, 2)
	assert.Len(t, f.Requests, 2)
}
