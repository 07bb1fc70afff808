package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog/internal/app"
	"catalog/internal/cli"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIURL(t *testing.T) string {
	t.Helper()
	repo := repositories.NewMemoryProductRepository()
	_, err := database.Seed(context.Background(), repo)
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:          "test",
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
		BodyLimit:       1 << 20,
	}
	srv := httptest.NewServer(adaptor.FiberApp(app.New(app.Deps{Config: cfg, Service: services.NewProductService(repo)})))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_List(t *testing.T) {
	url := newAPIURL(t)

	out, err := execute(t, "", "list", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Wireless Mouse")
	assert.Contains(t, out, "89.90")

	out, err = execute(t, "", "list", "--api-url", url, "-q", "HDMI")
	require.NoError(t, err)
	assert.Contains(t, out, "USB-C Hub")
	assert.NotContains(t, out, "Wireless Mouse")

	out, err = execute(t, "", "list", "--api-url", url, "-q", "nothing-matches")
	require.NoError(t, err)
	assert.Contains(t, out, "no products")
}

func TestCLI_AddEditDelete(t *testing.T) {
	url := newAPIURL(t)

	out, err := execute(t, "", "add", "--api-url", url, "--name", " Desk Lamp ", "--price", "19.99")
	require.NoError(t, err)
	assert.Contains(t, out, "created product #5 Desk Lamp (19.99)")

	out, err = execute(t, "", "edit", "5", "--api-url", url, "--price", "17.5")
	require.NoError(t, err)
	assert.Contains(t, out, "updated product #5 Desk Lamp (17.50)")

	out, err = execute(t, "n\n", "delete", "5", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	out, err = execute(t, "y\n", "delete", "5", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted product #5")

	_, err = execute(t, "", "delete", "5", "--api-url", url, "--yes")
	assert.ErrorContains(t, err, "product not found")
}

func TestCLI_AddValidatesLocally(t *testing.T) {
	_, err := execute(t, "", "add", "--api-url", "http://127.0.0.1:1/api", "--name", "Lamp", "--price", "free")
	assert.ErrorContains(t, err, "price must be a positive number")
}

func TestCLI_InvalidID(t *testing.T) {
	_, err := execute(t, "", "edit", "abc", "--api-url", "http://127.0.0.1:1/api")
	assert.ErrorContains(t, err, "invalid product id")
}
