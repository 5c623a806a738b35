package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

type sampleBody struct {
	Name   string `json:"name" validate:"required,max=10"`
	Status string `json:"status" validate:"omitempty,oneof=pending ready"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"lost"}`))
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be one of: pending ready", details["status"])
}

func TestDecodeJSONBodyRejectsUnknownAndEmpty(t *testing.T) {
	var body sampleBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`)), &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``)), &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "request body required", pkgerrors.As(err).Message())
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	var body struct {
		Notes *string `json:"notes"`
	}
	require.NoError(t, DecodeOptionalJSONBody(httptest.NewRequest(http.MethodPost, "/", nil), &body))
	assert.Nil(t, body.Notes)

	require.NoError(t, DecodeOptionalJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":"stain"}`)), &body))
	require.NotNil(t, body.Notes)
	assert.Equal(t, "stain", *body.Notes)
}

func TestQueryParsers(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc&include_warning=true&item_id="+id.String(), nil)

	page, err := ParsePage(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, page)

	flag, err := ParseQueryBool(req, "include_warning")
	require.NoError(t, err)
	assert.True(t, flag)

	itemID, err := ParseQueryUUID(req, "item_id")
	require.NoError(t, err)
	require.NotNil(t, itemID)
	assert.Equal(t, id, *itemID)

	bad := httptest.NewRequest(http.MethodGet, "/?limit=500&item_id=nope&include_warning=maybe", nil)
	_, err = ParsePage(bad)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryUUID(bad, "item_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryBool(bad, "include_warning")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	rc.URLParams.Add("lineId", "bogus")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParsePathUUID(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParsePathUUID(req, "lineId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParsePathUUID(req, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
