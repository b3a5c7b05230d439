package client

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/auth"
	"github.com/healthmap/healthmap/internal/devapi/devapitest"
	"github.com/healthmap/healthmap/internal/models"
)

type session struct {
	client  *Client
	service *auth.Service
	store   auth.Store
	visited []string
}

// newSession wires a client and an auth service the way the CLI does, on a
// fresh in-memory store
func newSession(t *testing.T, srv *devapitest.Server, opts ...auth.Option) *session {
	t.Helper()

	s := &session{store: auth.NewMemoryStore()}
	state := auth.NewState()
	nav := auth.NavigatorFunc(func(path string, _ url.Values) {
		s.visited = append(s.visited, path)
	})

	transport, err := auth.NewTransport(srv.URL, nil, s.store, state, nav, zerolog.Nop())
	require.NoError(t, err)

	s.client = New(srv.URL, &http.Client{Transport: transport})
	s.service = auth.NewService(s.store, state, s.client, nav, opts...)
	return s
}

func (s *session) signIn(t *testing.T, email, password string) *models.AuthUser {
	t.Helper()
	user, err := s.service.SignIn(context.Background(), models.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return user
}

func TestSignInResolvesMember(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)

	user := s.signIn(t, devapitest.MemberEmail, devapitest.MemberPassword)

	assert.Equal(t, models.RoleMember, user.Role)
	assert.Equal(t, int64(devapitest.MemberID), user.ID)
	assert.Equal(t, "Aminata", user.FirstName)
	require.NotNil(t, user.Structure)
	assert.Equal(t, int64(devapitest.MemberStructureID), user.Structure.ID)
	assert.Equal(t, auth.BasisRosterMatch, s.service.RoleBasis())

	assert.True(t, s.service.CanModifyStructure(devapitest.MemberStructureID))
	assert.False(t, s.service.CanModifyStructure(devapitest.OtherStructureID))
}

func TestSignInResolvesAdmin(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)

	user := s.signIn(t, devapitest.AdminEmail, devapitest.AdminPassword)

	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.AdminSentinelID, user.ID)
	assert.True(t, s.service.RoleBasis().Inferred())
	assert.Empty(t, s.visited, "a roster 403 is not a redirect")

	stored, err := s.store.GetUser()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}

func TestSignInStrictRejectsAdmin(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv, auth.WithStrictRoleInference(true))

	_, err := s.service.SignIn(context.Background(), models.Credentials{Email: devapitest.AdminEmail, Password: devapitest.AdminPassword})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAmbiguousRole, apperr.KindOf(err))
	assert.False(t, s.service.IsAuthenticated())

	creds, err := s.store.Get()
	require.NoError(t, err)
	assert.Nil(t, creds, "a failed sign-in leaves no session behind")
}

func TestSignInWrongPassword(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)

	_, err := s.service.SignIn(context.Background(), models.Credentials{Email: devapitest.MemberEmail, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))
	assert.Equal(t, "Email ou mot de passe incorrect", err.Error())
	assert.Empty(t, s.visited, "the login probe does not navigate")
}

func TestStaleCredentialsRedirectToLogin(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)
	s.signIn(t, devapitest.MemberEmail, devapitest.MemberPassword)

	// Someone changes the password behind our back
	admin := newSession(t, srv)
	admin.signIn(t, devapitest.AdminEmail, devapitest.AdminPassword)
	_, err := admin.client.UpdateMember(context.Background(), devapitest.MemberID, models.UpdateMemberRequest{
		Email:           devapitest.MemberEmail,
		Password:        "changed1",
		FirstName:       "Aminata",
		LastName:        "Diop",
		RoleInStructure: "Directrice administrative",
	})
	require.NoError(t, err)

	_, err = s.client.ListStructures(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.StatusCode(err))
	assert.Equal(t, []string{auth.RouteLogin}, s.visited)
	assert.False(t, s.service.IsAuthenticated())
	assert.Equal(t, auth.BasisStored, s.service.RoleBasis())

	creds, err := s.store.Get()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestPublicReadsWithoutSession(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)
	ctx := context.Background()

	all, err := s.client.ListStructures(ctx)
	require.NoError(t, err)
	assert.Len(t, all, devapitest.DemoStructures)

	clinics, err := s.client.StructuresByType(ctx, models.StructureClinic)
	require.NoError(t, err)
	require.Len(t, clinics, 1)

	found, err := s.client.SearchStructures(ctx, "hôpital")
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	regions, err := s.client.UniqueRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dakar", "Saint-Louis", "Thiès"}, regions)

	cities, err := s.client.UniqueCitiesForRegion(ctx, "Dakar")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dakar"}, cities)

	filtered, err := s.client.FilterStructures(ctx, models.StructureFilter{Type: models.StructureHospital, Region: "Saint-Louis"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Hôpital Régional de Saint-Louis", filtered[0].Name)

	docs, err := s.client.AvailableDocs(ctx, devapitest.MemberStructureID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestErrorsCarryResourceMessages(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)
	ctx := context.Background()

	_, err := s.client.GetStructure(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))
	assert.Equal(t, "Vous devez être connecté pour effectuer cette action.", err.Error())
	assert.Equal(t, []string{auth.RouteLogin}, s.visited)

	s.signIn(t, devapitest.MemberEmail, devapitest.MemberPassword)
	s.visited = nil

	_, err = s.client.GetStructure(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
	assert.Empty(t, s.visited, "403 does not navigate")
	assert.True(t, s.service.IsAuthenticated(), "403 keeps the session")

	_, err = s.client.CreateMember(ctx, models.CreateMemberRequest{
		Email:           devapitest.OtherEmail,
		Password:        "secret1",
		FirstName:       "Moussa",
		LastName:        "Fall",
		StructureID:     devapitest.OtherStructureID,
		RoleInStructure: "Médecin",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "Un membre avec cette adresse email existe déjà.", err.Error())
}

func TestMemberWorkflow(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)
	s.signIn(t, devapitest.MemberEmail, devapitest.MemberPassword)
	ctx := context.Background()

	name := "Hôpital Principal"
	updated, err := s.client.UpdateStructure(ctx, devapitest.MemberStructureID, models.UpdateStructureRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = s.client.UpdateStructure(ctx, devapitest.OtherStructureID, models.UpdateStructureRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	doc, err := s.client.AddDocument(ctx, devapitest.MemberStructureID, models.AvailableDoc{Type: models.DocPassport})
	require.NoError(t, err)
	assert.NotZero(t, doc.ID)

	created, err := s.client.CreateStructure(ctx, models.CreateStructureRequest{
		Name:    "Centre de Santé de Pikine",
		Type:    models.StructureClinic,
		Contact: models.Contact{Phone: "+221 33 000 11 22", Email: "cs.pikine@example.sn"},
		Address: models.Address{City: "Pikine", Region: "Dakar"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	colleagues, err := s.client.MembersByStructure(ctx, devapitest.MemberStructureID)
	require.NoError(t, err)
	require.Len(t, colleagues, 1)
	assert.Equal(t, devapitest.MemberEmail, colleagues[0].Email)
}

func TestAdminWorkflow(t *testing.T) {
	srv := devapitest.Start(t)
	s := newSession(t, srv)
	s.signIn(t, devapitest.AdminEmail, devapitest.AdminPassword)
	ctx := context.Background()

	structure, err := s.client.GetStructure(ctx, devapitest.OtherStructureID)
	require.NoError(t, err)
	assert.Equal(t, "Clinique de la Madeleine", structure.Name)

	member, err := s.client.GetMember(ctx, devapitest.OtherMemberID)
	require.NoError(t, err)
	assert.Equal(t, "Moussa Fall", member.FullName())

	require.NoError(t, s.client.DeleteMember(ctx, devapitest.OtherMemberID))
	_, err = s.client.GetMember(ctx, devapitest.OtherMemberID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, s.client.DeleteStructure(ctx, devapitest.OtherStructureID))
	err = s.client.DeleteStructure(ctx, devapitest.OtherStructureID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Structure non trouvée.", err.Error())

	admin, err := s.client.CreateAdmin(ctx, models.CreateAdminRequest{Email: "ops@healthmap.test", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ops@healthmap.test", admin.Email)
}

func TestNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1/api", nil)

	_, err := c.ListStructures(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	assert.Zero(t, apperr.StatusCode(err))
}
