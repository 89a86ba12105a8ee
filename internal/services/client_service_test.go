package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/case-billing-api/internal/models"
)

func TestClientService_CRUD(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	scope := createTenant(t, env.db, "alice")
	other := createTenant(t, env.db, "bob")

	_, err := env.clients.CreateClient(ctx, scope, ClientInput{Name: " "})
	assert.Error(t, err)

	client := createClient(t, env, scope, "Acme Corp")
	createClient(t, env, scope, "Globex")
	createClient(t, env, other, "Acme Holdings")

	clients, total, err := env.clients.ListClients(ctx, scope, "acme", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, clients, 1)
	assert.Equal(t, client.ID, clients[0].ID)

	email := "billing@acme.test"
	updated, err := env.clients.UpdateClient(ctx, scope, client.ID, UpdateClientInput{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, "Acme Corp", updated.Name)

	_, err = env.clients.GetClient(ctx, other, client.ID)
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = env.clients.UpdateClient(ctx, other, client.ID, UpdateClientInput{Email: &email})
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.ErrorIs(t, env.clients.DeleteClient(ctx, other, client.ID), ErrClientNotFound)
}

func TestClientService_DeleteBlockedByInvoices(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	scope := createTenant(t, env.db, "alice")

	billed := createClient(t, env, scope, "Acme Corp")
	_, err := env.invoices.CreateInvoice(ctx, scope, sampleInvoiceInput(billed.ID))
	require.NoError(t, err)
	assert.ErrorIs(t, env.clients.DeleteClient(ctx, scope, billed.ID), ErrClientHasInvoices)

	unbilled := createClient(t, env, scope, "Globex")
	c, err := env.cases.CreateCase(ctx, scope, CreateCaseInput{ClientID: unbilled.ID, Title: "Lease review"})
	require.NoError(t, err)

	require.NoError(t, env.clients.DeleteClient(ctx, scope, unbilled.ID))
	_, err = env.cases.GetCase(ctx, scope, c.ID)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestCaseService_CRUD(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	scope := createTenant(t, env.db, "alice")
	other := createTenant(t, env.db, "bob")
	client := createClient(t, env, scope, "Acme Corp")
	foreignClient := createClient(t, env, other, "Globex")

	_, err := env.cases.CreateCase(ctx, scope, CreateCaseInput{ClientID: foreignClient.ID, Title: "Nope"})
	assert.ErrorIs(t, err, ErrClientNotFound)

	c, err := env.cases.CreateCase(ctx, scope, CreateCaseInput{ClientID: client.ID, Title: "Trademark filing"})
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusOpen, c.Status)
	assert.Equal(t, "Acme Corp", c.Client.Name)

	closed := models.CaseStatusClosed
	updated, err := env.cases.UpdateCase(ctx, scope, c.ID, UpdateCaseInput{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusClosed, updated.Status)

	cases, total, err := env.cases.ListCases(ctx, scope, ListCasesInput{Status: &closed, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, cases, 1)

	_, err = env.cases.GetCase(ctx, other, c.ID)
	assert.ErrorIs(t, err, ErrCaseNotFound)

	input := sampleInvoiceInput(client.ID)
	input.CaseID = &c.ID
	_, err = env.invoices.CreateInvoice(ctx, scope, input)
	require.NoError(t, err)
	assert.ErrorIs(t, env.cases.DeleteCase(ctx, scope, c.ID), ErrCaseHasInvoices)
}
