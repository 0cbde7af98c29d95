package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollvite/internal/schema"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api")
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
}

func TestListCategoriesSendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/categories/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":1,"name":"Wedding","slug":"wedding"}]`))
	})

	cats, err := c.WithToken("tok").ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "wedding", cats[0].Slug)
}

func TestAnonymousClientSendsNoAuthorization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "/api/invite/asha-ravi/", r.URL.Path)
		w.Write([]byte(`{"schema":{"hero":{"bride_name":"Asha"}},"template_component":"RoyalWeddingTemplate"}`))
	})

	inv, err := c.GetPublicInvite(context.Background(), "asha-ravi")
	require.NoError(t, err)
	assert.False(t, inv.Expired)
	assert.Equal(t, "Asha", inv.Schema.Text(schema.SectionHero, "bride_name"))
}

func TestTemplatePriceDecodesAsDecimal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/template/7/", r.URL.Path)
		w.Write([]byte(`{"id":7,"title":"Royal","price":"499.00","template_component":"RoyalWeddingTemplate","schema":{}}`))
	})

	tpl, err := c.GetTemplate(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("499").Equal(tpl.Price))
	assert.Equal(t, "RoyalWeddingTemplate", tpl.TemplateComponent)
}

func TestStatusErrorsMatchSentinels(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"detail":"nope"}`))
		})

		_, err := c.GetInvite(context.Background(), "abc")
		require.Error(t, err)
		assert.ErrorIs(t, err, tc.want)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, tc.status, apiErr.Status)
		assert.Equal(t, "nope", apiErr.Message)
	}
}

func TestNonJSONErrorBodyBecomesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.ListCategories(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestExpiredInviteIsData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"expired":true,"expires_at":"2024-01-01"}`))
	})

	inv, err := c.GetInvite(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, inv.Expired)
	assert.Equal(t, "2024-01-01", inv.ExpiresAt)

	pub, err := c.GetPublicInvite(context.Background(), "slug")
	require.NoError(t, err)
	assert.True(t, pub.Expired)
}

func TestSaveInvite(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/invites/abc/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Schema map[string]any `json:"schema"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Asha", body.Schema["hero"].(map[string]any)["bride_name"])

		w.Write([]byte(`{"status":"saved","id":"abc","public_slug":"asha-ravi"}`))
	})

	res, err := c.SaveInvite(context.Background(), "abc", schema.MustParse(`{"hero":{"bride_name":"Asha"}}`))
	require.NoError(t, err)
	assert.Equal(t, "asha-ravi", res.PublicSlug)
}

func TestSaveExpiredInvite(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expired":true,"expires_at":"2024-01-01"}`))
	})

	_, err := c.SaveInvite(context.Background(), "abc", schema.Empty())
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMalformedSchemaIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"abc","schema":{"events":"not a list"}}`))
	})

	_, err := c.GetInvite(context.Background(), "abc")
	assert.ErrorIs(t, err, schema.ErrMalformed)
}

func TestUploadImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invites/abc/upload-image/", r.URL.Path)
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "couple.jpg", hdr.Filename)
		assert.Equal(t, "jpegbytes", string(data))
		w.Write([]byte(`{"url":"https://cdn.example/couple.jpg"}`))
	})

	url, err := c.UploadImage(context.Background(), "abc", "couple.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/couple.jpg", url)
}

func TestPaymentOrderAlreadyPurchased(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/create-payment-order/7/", r.URL.Path)
		w.Write([]byte(`{"already_purchased":true,"invite_id":"abc","editor_url":"/editor/abc"}`))
	})

	order, err := c.CreatePaymentOrder(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, order.AlreadyPurchased)
	assert.Equal(t, "/editor/abc", order.EditorURL)
}

func TestVerifyPayment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var conf PaymentConfirmation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&conf))
		assert.Equal(t, "order_1", conf.RazorpayOrderID)
		assert.Equal(t, "sig", conf.RazorpaySignature)
		w.Write([]byte(`{"message":"ok","invite_id":"new"}`))
	})

	res, err := c.VerifyPayment(context.Background(), PaymentConfirmation{
		RazorpayOrderID:   "order_1",
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, "new", res.InviteID)
}

func TestLoginWithGoogle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/google/", r.URL.Path)
		w.Write([]byte(`{"access":"jwt","user":{"id":3,"email":"a@b.c","name":"A","role":"SUPER_ADMIN"}}`))
	})

	res, err := c.LoginWithGoogle(context.Background(), "idtoken")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Access)
	assert.True(t, res.User.IsAdmin())
}

func TestSaveTemplateOmitsPublishedWhenNil(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Write([]byte(`{"status":"saved"}`))
	})

	require.NoError(t, c.SaveTemplate(context.Background(), "7", schema.Empty(), nil))
	published := true
	require.NoError(t, c.SaveTemplate(context.Background(), "7", schema.Empty(), &published))

	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[0], "is_published")
	assert.Equal(t, true, bodies[1]["is_published"])
}
