package commands

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmap/healthmap/internal/auth"
)

func TestMatchRoute(t *testing.T) {
	tests := []struct {
		pattern, path string
		wantID        string
		wantOK        bool
	}{
		{"/map", "/map", "", true},
		{"/map", "/map/", "", true},
		{"/add-building", "/map", "", false},
		{"/structures/:id/edit", "/structures/7/edit", "7", true},
		{"/structures/:id/edit", "/structures/7", "", false},
		{"/structures/:id/edit", "/members/7/edit", "", false},
		{"/admin/members/:id", "/admin/members/12", "12", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			id, ok := matchRoute(tt.pattern, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func newRouteTree() *cobra.Command {
	root := &cobra.Command{Use: "healthmap"}
	structures := &cobra.Command{Use: "structures"}
	structures.AddCommand(
		routed(&cobra.Command{Use: "ls"}, auth.RouteMap, ""),
		routed(&cobra.Command{Use: "update <structure-id>"}, "/structures/:id/edit", GuardAuth),
		routed(&cobra.Command{Use: "get <structure-id>"}, "/admin/structures/:id", GuardAdmin),
	)
	root.AddCommand(structures, routed(&cobra.Command{Use: "whoami"}, "/profile", GuardAuth))
	return root
}

func TestResumeCommand(t *testing.T) {
	root := newRouteTree()

	cmd, ok := ResumeCommand(root, "/structures/42/edit")
	require.True(t, ok)
	assert.Equal(t, "healthmap structures update 42", cmd)

	cmd, ok = ResumeCommand(root, "/profile")
	require.True(t, ok)
	assert.Equal(t, "healthmap whoami", cmd)

	_, ok = ResumeCommand(root, "/nowhere")
	assert.False(t, ok)
}

func TestRouteFor(t *testing.T) {
	cmd := routed(&cobra.Command{Use: "update"}, "/structures/:id/edit", GuardAuth)
	assert.Equal(t, "/structures/9/edit", RouteFor(cmd, []string{"9"}))
	assert.Equal(t, "/structures/:id/edit", RouteFor(cmd, nil))
	assert.Equal(t, "", RouteFor(&cobra.Command{Use: "plain"}, nil))
}

func TestNavigatorHints(t *testing.T) {
	var out bytes.Buffer
	nav := NewNavigator(&out)
	assert.Nil(t, nav.Last())

	nav.Navigate(auth.RouteLogin, url.Values{auth.ReturnURLParam: {"/add-building"}})
	assert.Equal(t, "→ Connexion requise. Lancez: healthmap login --return-url /add-building\n", out.String())
	require.NotNil(t, nav.Last())
	assert.Equal(t, "/add-building", nav.Last().ReturnURL())

	out.Reset()
	nav.Navigate(auth.RouteLogin, nil)
	assert.Equal(t, "→ Connexion requise. Lancez: healthmap login\n", out.String())

	out.Reset()
	nav.Navigate(auth.RouteLogin, url.Values{auth.SignedOutParam: {"true"}})
	assert.Equal(t, "→ Session fermée. Pour vous reconnecter: healthmap login\n", out.String())

	out.Reset()
	nav.Navigate(auth.RouteMap, nil)
	assert.Equal(t, "→ Retour à la carte: healthmap structures ls\n", out.String())
	assert.Equal(t, auth.RouteMap, nav.Last().Path)
}

func TestRedirectErrorMessages(t *testing.T) {
	assert.Equal(t, "accès réservé aux administrateurs", (&RedirectError{Redirect: Redirect{Path: auth.RouteMap}}).Error())
	assert.Equal(t, "vous devez être connecté pour accéder à cette page", (&RedirectError{Redirect: Redirect{Path: auth.RouteLogin}}).Error())
}

func TestValidateOutput(t *testing.T) {
	for _, format := range []string{"", OutputTable, OutputJSON, OutputYAML} {
		assert.NoError(t, ValidateOutput(format))
	}
	assert.Error(t, ValidateOutput("csv"))
}

func TestParseID(t *testing.T) {
	id, err := parseID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintfSilentForMachineFormats(t *testing.T) {
	var out bytes.Buffer
	env := &Env{Out: &out, Flags: Flags{Output: OutputJSON}}
	env.printf("hello %s\n", "world")
	assert.Empty(t, out.String())

	env.Flags.Output = OutputTable
	env.println("hello")
	assert.Equal(t, "hello\n", out.String())
}
