package bigquery

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
)

func TestCredentials(t *testing.T) {
	assert.Len(t, credentials(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/creds"}), 1)
	assert.Len(t, credentials(config.GCPConfig{ApplicationCredentials: "/tmp/creds"}), 1)
	assert.Empty(t, credentials(config.GCPConfig{CredentialsJSON: "  "}))
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		gcp  config.GCPConfig
		cfg  config.BigQueryConfig
		want error
	}{
		{config.GCPConfig{}, config.BigQueryConfig{Dataset: "vb", OrderTable: "o", PaymentTable: "p"}, errProjectIDRequired},
		{config.GCPConfig{ProjectID: "vb-prod"}, config.BigQueryConfig{OrderTable: "o", PaymentTable: "p"}, errDatasetRequired},
		{config.GCPConfig{ProjectID: "vb-prod"}, config.BigQueryConfig{Dataset: "vb", OrderTable: "o"}, errTableNameRequired},
	}
	for _, tc := range cases {
		_, err := NewClient(ctx, tc.gcp, tc.cfg, nil)
		assert.ErrorIs(t, err, tc.want)
	}
}

func TestDescribe(t *testing.T) {
	assert.EqualError(t, describe("table", "order_events", &googleapi.Error{Code: http.StatusNotFound}), `table "order_events" does not exist`)

	denied := &googleapi.Error{Code: http.StatusForbidden}
	assert.ErrorIs(t, describe("dataset", "vb", denied), denied)
	assert.ErrorContains(t, describe("dataset", "vb", errors.New("timeout")), `checking dataset "vb"`)
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.Ping(context.Background()), errClientNotInitialized)
	assert.ErrorIs(t, c.InsertRows(context.Background(), "order_events", []any{1}), errClientNotInitialized)
	assert.NoError(t, c.Close())
}
