package devapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmap/healthmap/internal/devapi/devapitest"
	"github.com/healthmap/healthmap/internal/models"
)

type account struct {
	email, password string
}

var (
	anonymous = account{}
	admin     = account{devapitest.AdminEmail, devapitest.AdminPassword}
	member    = account{devapitest.MemberEmail, devapitest.MemberPassword}
	other     = account{devapitest.OtherEmail, devapitest.MemberPassword}
)

// call sends a JSON request as who and decodes the response into out when non-nil
func call(t *testing.T, srv *devapitest.Server, who account, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if who.email != "" {
		req.SetBasicAuth(who.email, who.password)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestLogin(t *testing.T) {
	srv := devapitest.Start(t)

	assert.Equal(t, http.StatusOK, call(t, srv, admin, http.MethodPost, "/login", struct{}{}, nil))
	assert.Equal(t, http.StatusOK, call(t, srv, member, http.MethodPost, "/login", struct{}{}, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, account{devapitest.AdminEmail, "wrong"}, http.MethodPost, "/login", struct{}{}, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, account{"nobody@x.com", "whatever"}, http.MethodPost, "/login", struct{}{}, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, anonymous, http.MethodPost, "/login", struct{}{}, nil))
}

func TestRosterIsMembersOnly(t *testing.T) {
	srv := devapitest.Start(t)

	var roster []models.Member
	require.Equal(t, http.StatusOK, call(t, srv, member, http.MethodGet, "/membres_structures", nil, &roster))
	require.Len(t, roster, 2)
	assert.Equal(t, devapitest.MemberEmail, roster[0].Email)
	assert.Equal(t, int64(devapitest.MemberStructureID), roster[0].Structure.ID)

	assert.Equal(t, http.StatusForbidden, call(t, srv, admin, http.MethodGet, "/membres_structures", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, anonymous, http.MethodGet, "/membres_structures", nil, nil))
}

func TestWrongCredentialsRejectedOnPublicRoutes(t *testing.T) {
	srv := devapitest.Start(t)

	assert.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, account{devapitest.MemberEmail, "nope"}, http.MethodGet, "/structures", nil, nil))
}

func TestStructureReads(t *testing.T) {
	srv := devapitest.Start(t)

	var all []models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures", nil, &all))
	assert.Len(t, all, devapitest.DemoStructures)

	var hospitals []models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures/type/HOSPITAL", nil, &hospitals))
	assert.Len(t, hospitals, 2)
	for _, s := range hospitals {
		assert.Equal(t, models.StructureHospital, s.Type)
	}
	assert.Equal(t, http.StatusBadRequest, call(t, srv, anonymous, http.MethodGet, "/structures/type/SPA", nil, nil))

	var found []models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures/search?name=madeleine", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Clinique de la Madeleine", found[0].Name)

	var dakar []models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures/region/Dakar/city/Dakar", nil, &dakar))
	assert.Len(t, dakar, 3)

	var filtered []models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures/filter?type=PHARMACY&region=Dakar", nil, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "Pharmacie Guigon", filtered[0].Name)

	var docs []models.AvailableDoc
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, fmt.Sprintf("/structures/available_docs/%d", devapitest.MemberStructureID), nil, &docs))
	assert.Len(t, docs, 2)
	assert.Equal(t, http.StatusNotFound, call(t, srv, anonymous, http.MethodGet, "/structures/available_docs/999", nil, nil))
}

func TestStructureByIDIsAdminOnly(t *testing.T) {
	srv := devapitest.Start(t)

	var s models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, admin, http.MethodGet, "/structures/1", nil, &s))
	assert.Equal(t, int64(1), s.ID)
	require.NotNil(t, s.OpeningHours)
	assert.Equal(t, "00:00-24:00", s.OpeningHours.Monday)

	assert.Equal(t, http.StatusForbidden, call(t, srv, member, http.MethodGet, "/structures/1", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, anonymous, http.MethodGet, "/structures/1", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, admin, http.MethodGet, "/structures/999", nil, nil))
}

func TestCreateStructure(t *testing.T) {
	srv := devapitest.Start(t)

	req := models.CreateStructureRequest{
		Name:    "Pharmacie du Port",
		Type:    models.StructurePharmacy,
		Contact: models.Contact{Phone: "+221 33 000 00 00", Email: "port@example.sn"},
		Address: models.Address{City: "Dakar", Region: "Dakar"},
	}

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, anonymous, http.MethodPost, "/structures", req, nil))

	var created models.Structure
	require.Equal(t, http.StatusCreated, call(t, srv, member, http.MethodPost, "/structures", req, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Pharmacie du Port", created.Name)
	assert.Empty(t, created.AvailableDocs)

	invalid := req
	invalid.Type = "SPA"
	invalid.Contact.Email = "not-an-email"
	assert.Equal(t, http.StatusBadRequest, call(t, srv, member, http.MethodPost, "/structures", invalid, nil))
}

func TestUpdateStructureOwnership(t *testing.T) {
	srv := devapitest.Start(t)

	name := "Hôpital Principal"
	req := models.UpdateStructureRequest{Name: &name}

	var updated models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, member, http.MethodPut, "/structures/1", req, &updated))
	assert.Equal(t, "Hôpital Principal", updated.Name)
	assert.Len(t, updated.AvailableDocs, 2, "documents survive an update")

	assert.Equal(t, http.StatusForbidden, call(t, srv, other, http.MethodPut, "/structures/1", req, nil))
	assert.Equal(t, http.StatusOK, call(t, srv, admin, http.MethodPut, "/structures/2", req, nil))

	badType := models.StructureType("SPA")
	assert.Equal(t, http.StatusBadRequest, call(t, srv, admin, http.MethodPut, "/structures/2", models.UpdateStructureRequest{Type: &badType}, nil))
}

func TestDeleteStructure(t *testing.T) {
	srv := devapitest.Start(t)

	assert.Equal(t, http.StatusForbidden, call(t, srv, member, http.MethodDelete, "/structures/3", nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, srv, admin, http.MethodDelete, "/structures/3", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, admin, http.MethodDelete, "/structures/3", nil, nil))

	var all []models.Structure
	require.Equal(t, http.StatusOK, call(t, srv, anonymous, http.MethodGet, "/structures", nil, &all))
	assert.Len(t, all, devapitest.DemoStructures-1)
}

func TestAddDocument(t *testing.T) {
	srv := devapitest.Start(t)

	doc := models.AvailableDoc{Type: models.DocIDCard, Description: "Renouvellement"}
	var created models.AvailableDoc
	require.Equal(t, http.StatusCreated, call(t, srv, member, http.MethodPost, "/structures/3/document", doc, &created))
	assert.Equal(t, models.DocIDCard, created.Type)

	assert.Equal(t, http.StatusBadRequest, call(t, srv, member, http.MethodPost, "/structures/3/document", models.AvailableDoc{Type: "VISA"}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, member, http.MethodPost, "/structures/999/document", doc, nil))
}

func TestMemberSignUp(t *testing.T) {
	srv := devapitest.Start(t)

	req := models.CreateMemberRequest{
		Email:           "fatou.sow@example.sn",
		Password:        "secret1",
		FirstName:       "Fatou",
		LastName:        "Sow",
		StructureID:     3,
		RoleInStructure: "Pharmacienne",
	}

	var created models.Member
	require.Equal(t, http.StatusCreated, call(t, srv, anonymous, http.MethodPost, "/membres_structures", req, &created))
	assert.Equal(t, "Fatou Sow", created.FullName())
	assert.Equal(t, int64(3), created.Structure.ID)

	// The new account can sign in
	assert.Equal(t, http.StatusOK, call(t, srv, account{req.Email, req.Password}, http.MethodPost, "/login", struct{}{}, nil))

	assert.Equal(t, http.StatusConflict, call(t, srv, anonymous, http.MethodPost, "/membres_structures", req, nil))

	adminEmail := req
	adminEmail.Email = devapitest.AdminEmail
	assert.Equal(t, http.StatusConflict, call(t, srv, anonymous, http.MethodPost, "/membres_structures", adminEmail, nil))

	unknown := req
	unknown.Email = "x@example.sn"
	unknown.StructureID = 999
	assert.Equal(t, http.StatusBadRequest, call(t, srv, anonymous, http.MethodPost, "/membres_structures", unknown, nil))

	short := req
	short.Email = "y@example.sn"
	short.FirstName = " F "
	assert.Equal(t, http.StatusBadRequest, call(t, srv, anonymous, http.MethodPost, "/membres_structures", short, nil))
}

func TestUpdateMember(t *testing.T) {
	srv := devapitest.Start(t)

	req := models.UpdateMemberRequest{
		Email:           devapitest.MemberEmail,
		FirstName:       "Aminata",
		LastName:        "Diop-Ndiaye",
		RoleInStructure: "Directrice",
	}

	var updated models.Member
	path := fmt.Sprintf("/membres_structures/%d", devapitest.MemberID)
	require.Equal(t, http.StatusOK, call(t, srv, member, http.MethodPut, path, req, &updated))
	assert.Equal(t, "Diop-Ndiaye", updated.LastName)
	assert.Equal(t, int64(devapitest.MemberStructureID), updated.Structure.ID)

	assert.Equal(t, http.StatusForbidden, call(t, srv, other, http.MethodPut, path, req, nil))

	moved := req
	moved.StructureID = devapitest.OtherStructureID
	assert.Equal(t, http.StatusForbidden, call(t, srv, member, http.MethodPut, path, moved, nil))
	require.Equal(t, http.StatusOK, call(t, srv, admin, http.MethodPut, path, moved, &updated))
	assert.Equal(t, int64(devapitest.OtherStructureID), updated.Structure.ID)

	taken := req
	taken.Email = devapitest.OtherEmail
	assert.Equal(t, http.StatusConflict, call(t, srv, admin, http.MethodPut, path, taken, nil))
}

func TestMemberAdministration(t *testing.T) {
	srv := devapitest.Start(t)

	path := fmt.Sprintf("/membres_structures/%d", devapitest.OtherMemberID)

	var m models.Member
	require.Equal(t, http.StatusOK, call(t, srv, admin, http.MethodGet, path, nil, &m))
	assert.Equal(t, devapitest.OtherEmail, m.Email)
	assert.Equal(t, http.StatusForbidden, call(t, srv, member, http.MethodGet, path, nil, nil))

	assert.Equal(t, http.StatusForbidden, call(t, srv, member, http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, srv, admin, http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, admin, http.MethodGet, path, nil, nil))
}

func TestCreateAdmin(t *testing.T) {
	srv := devapitest.Start(t)

	req := models.CreateAdminRequest{Email: "second@healthmap.test", Password: "admin456"}
	var created models.Admin
	require.Equal(t, http.StatusCreated, call(t, srv, anonymous, http.MethodPost, "/admins", req, &created))
	assert.Equal(t, req.Email, created.Email)

	assert.Equal(t, http.StatusConflict, call(t, srv, anonymous, http.MethodPost, "/admins", req, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, srv, anonymous, http.MethodPost, "/admins", models.CreateAdminRequest{Email: "x@y.z", Password: "123"}, nil))

	// A new admin is denied the roster like any admin
	assert.Equal(t, http.StatusForbidden, call(t, srv, account{req.Email, req.Password}, http.MethodGet, "/membres_structures", nil, nil))
}
